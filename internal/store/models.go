package store

import "time"

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	FirstName    string
	LastName     string
	PhoneNumber  string
	CreatedAt    time.Time
}

func (u User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserProfile is the public subset of a user row exposed in reports.
type UserProfile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type Lock struct {
	ID      int64
	Name    string
	OwnerID int64
}

// LockRef identifies a lock in aggregated and report output.
type LockRef struct {
	ID   int64  `json:"lock_id"`
	Name string `json:"lock_name"`
}

// LockGrant is a direct user_locks row. Role is "admin" or "user";
// ownership is never stored as a grant row.
type LockGrant struct {
	UserID int64
	LockID int64
	Role   string
}

type AccessGroup struct {
	ID   int64
	Name string
}

// GroupMember is an access_group_users row.
type GroupMember struct {
	GroupID int64
	UserID  int64
	Role    string
}

// GroupSummary is a group as seen by one of its members, with
// aggregate member and lock counts.
type GroupSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	UserCount int    `json:"user_count"`
	LockCount int    `json:"lock_count"`
}

// GroupUser is a member row exposed on the group read surface.
type GroupUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// PendingAccess is a grant queued for an email that has not registered yet.
// Rows are applied as user_locks grants and deleted at registration.
type PendingAccess struct {
	Email  string
	LockID int64
	Role   string
}

// SharedUser is one row of the shared-with-admin report: a user holding a
// direct grant on locks the reporting user owns.
type SharedUser struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	LockCount int    `json:"lock_count"`
}
