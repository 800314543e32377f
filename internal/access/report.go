package access

import (
	"context"

	"lockshare/api/internal/store"
)

// SharedLock is one lock both parties can reach, with each party's effective
// role and whether the requester may revoke the target's access.
type SharedLock struct {
	LockID    int64  `json:"lock_id"`
	LockName  string `json:"lock_name"`
	MyRole    Role   `json:"my_role"`
	UserRole  Role   `json:"user_role"`
	CanRemove bool   `json:"can_remove"`
}

// Report is the shared-access view of a target user from the requester's
// perspective. ShareableLocks is always disjoint from SharedLocks.
type Report struct {
	User           store.UserProfile `json:"user"`
	SharedLocks    []SharedLock      `json:"shared_locks"`
	ShareableLocks []store.LockRef   `json:"locks_you_can_share"`
}

// BuildReport joins the requester's controlled-lock set with the target's
// effective roles. All-or-nothing: any storage failure aborts the report.
// A missing target surfaces as the store's not-found error.
func (s *Service) BuildReport(ctx context.Context, requesterID, targetID int64) (Report, error) {
	profile, err := s.store.GetUserProfile(ctx, targetID)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		User:           profile,
		SharedLocks:    []SharedLock{},
		ShareableLocks: []store.LockRef{},
	}

	controlled, err := s.ControlledLocks(ctx, requesterID)
	if err != nil {
		return Report{}, err
	}
	// A user who controls nothing can share nothing and has nothing to report.
	if len(controlled) == 0 {
		return report, nil
	}

	lockIDs := make([]int64, len(controlled))
	for i, lock := range controlled {
		lockIDs[i] = lock.ID
	}

	myRoles, err := s.ResolveAll(ctx, requesterID, lockIDs)
	if err != nil {
		return Report{}, err
	}
	targetRoles, err := s.ResolveAll(ctx, targetID, lockIDs)
	if err != nil {
		return Report{}, err
	}

	for _, lock := range controlled {
		targetRole := targetRoles[lock.ID]
		if targetRole == RoleNone {
			report.ShareableLocks = append(report.ShareableLocks, lock)
			continue
		}
		myRole := myRoles[lock.ID]
		report.SharedLocks = append(report.SharedLocks, SharedLock{
			LockID:    lock.ID,
			LockName:  lock.Name,
			MyRole:    myRole,
			UserRole:  targetRole,
			CanRemove: CanRemove(myRole, targetRole),
		})
	}
	return report, nil
}
