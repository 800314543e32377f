package access

import (
	"context"
	"sort"

	"lockshare/api/internal/store"
)

// Store is the read surface the resolver needs. *store.PostgresStore
// satisfies it.
type Store interface {
	GetUserProfile(ctx context.Context, userID int64) (store.UserProfile, error)
	ListOwnedLocks(ctx context.Context, userID int64) ([]store.LockRef, error)
	ListDirectAdminLocks(ctx context.Context, userID int64) ([]store.LockRef, error)
	ListGroupAdminLocks(ctx context.Context, userID int64) ([]store.LockRef, error)
	ListLocksByIDs(ctx context.Context, lockIDs []int64) ([]store.Lock, error)
	ListDirectGrantsIn(ctx context.Context, userID int64, lockIDs []int64) ([]store.LockGrant, error)
	ListGroupGrantsIn(ctx context.Context, userID int64, lockIDs []int64) ([]store.LockGrant, error)
}

type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Resolve computes the effective role of a user on a single lock.
func (s *Service) Resolve(ctx context.Context, userID, lockID int64) (Role, error) {
	roles, err := s.ResolveAll(ctx, userID, []int64{lockID})
	if err != nil {
		return RoleNone, err
	}
	return roles[lockID], nil
}

// ResolveAll computes effective roles for a set of locks in three batched
// queries. Ownership wins over any grant row; a direct grant wins over group
// grants; conflicting group grants resolve to the highest precedence.
func (s *Service) ResolveAll(ctx context.Context, userID int64, lockIDs []int64) (map[int64]Role, error) {
	roles := make(map[int64]Role, len(lockIDs))
	for _, lockID := range lockIDs {
		roles[lockID] = RoleNone
	}
	if len(lockIDs) == 0 {
		return roles, nil
	}

	locks, err := s.store.ListLocksByIDs(ctx, lockIDs)
	if err != nil {
		return nil, err
	}
	direct, err := s.store.ListDirectGrantsIn(ctx, userID, lockIDs)
	if err != nil {
		return nil, err
	}
	group, err := s.store.ListGroupGrantsIn(ctx, userID, lockIDs)
	if err != nil {
		return nil, err
	}

	directRole := make(map[int64]Role, len(direct))
	for _, grant := range direct {
		directRole[grant.LockID] = Granted(grant.Role)
	}
	groupRole := make(map[int64]Role)
	for _, grant := range group {
		groupRole[grant.LockID] = Max(groupRole[grant.LockID], Granted(grant.Role))
	}

	for _, lock := range locks {
		switch {
		case lock.OwnerID == userID:
			roles[lock.ID] = RoleOwner
		case directRole[lock.ID] != "" && directRole[lock.ID] != RoleNone:
			roles[lock.ID] = directRole[lock.ID]
		default:
			roles[lock.ID] = groupRole[lock.ID]
			if roles[lock.ID] == "" {
				roles[lock.ID] = RoleNone
			}
		}
	}
	return roles, nil
}

// ControlledLocks returns the locks the user effectively controls,
// deduplicated and sorted by id. The owned/direct-admin/group-admin union is
// filtered through ResolveAll so it always agrees with Resolve: a direct
// "user" grant demotes a group-admin lock out of the set.
func (s *Service) ControlledLocks(ctx context.Context, userID int64) ([]store.LockRef, error) {
	owned, err := s.store.ListOwnedLocks(ctx, userID)
	if err != nil {
		return nil, err
	}
	directAdmin, err := s.store.ListDirectAdminLocks(ctx, userID)
	if err != nil {
		return nil, err
	}
	groupAdmin, err := s.store.ListGroupAdminLocks(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var candidates []store.LockRef
	for _, set := range [][]store.LockRef{owned, directAdmin, groupAdmin} {
		for _, lock := range set {
			if seen[lock.ID] {
				continue
			}
			seen[lock.ID] = true
			candidates = append(candidates, lock)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	lockIDs := make([]int64, len(candidates))
	for i, lock := range candidates {
		lockIDs[i] = lock.ID
	}
	roles, err := s.ResolveAll(ctx, userID, lockIDs)
	if err != nil {
		return nil, err
	}

	var controlled []store.LockRef
	for _, lock := range candidates {
		if roles[lock.ID].Controls() {
			controlled = append(controlled, lock)
		}
	}
	sort.Slice(controlled, func(i, j int) bool { return controlled[i].ID < controlled[j].ID })
	return controlled, nil
}
