package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `
		SELECT id, email, password_hash, role, first_name, last_name, phone_number
		FROM users WHERE email = $1
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.FirstName, &user.LastName, &user.PhoneNumber,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID int64) (User, error) {
	const query = `
		SELECT id, email, password_hash, role, first_name, last_name, phone_number
		FROM users WHERE id = $1
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Role,
		&user.FirstName, &user.LastName, &user.PhoneNumber,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserProfile(ctx context.Context, userID int64) (UserProfile, error) {
	const query = `
		SELECT id, TRIM(CONCAT(first_name, ' ', last_name)), email, phone_number
		FROM users WHERE id = $1
	`
	var profile UserProfile
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID, &profile.Name, &profile.Email, &profile.PhoneNumber,
	)
	if err != nil {
		return UserProfile{}, err
	}
	return profile, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (int64, error) {
	const query = `
		INSERT INTO users (email, password_hash, role, first_name, last_name, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Role,
		user.FirstName, user.LastName, user.PhoneNumber,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListOwnedLocks(ctx context.Context, userID int64) ([]LockRef, error) {
	const query = `SELECT id, name FROM locks WHERE owner_id = $1 ORDER BY id`
	return s.queryLockRefs(ctx, query, userID)
}

func (s *PostgresStore) ListDirectAdminLocks(ctx context.Context, userID int64) ([]LockRef, error) {
	const query = `
		SELECT l.id, l.name
		FROM user_locks ul
		JOIN locks l ON ul.lock_id = l.id
		WHERE ul.user_id = $1 AND ul.role = 'admin'
		ORDER BY l.id
	`
	return s.queryLockRefs(ctx, query, userID)
}

func (s *PostgresStore) ListGroupAdminLocks(ctx context.Context, userID int64) ([]LockRef, error) {
	const query = `
		SELECT DISTINCT l.id, l.name
		FROM access_group_users agu
		JOIN access_group_locks agl ON agl.group_id = agu.group_id
		JOIN locks l ON agl.lock_id = l.id
		WHERE agu.user_id = $1 AND agu.role = 'admin'
		ORDER BY l.id
	`
	return s.queryLockRefs(ctx, query, userID)
}

func (s *PostgresStore) queryLockRefs(ctx context.Context, query string, args ...any) ([]LockRef, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list locks: %w", err)
	}
	defer rows.Close()

	var locks []LockRef
	for rows.Next() {
		var lock LockRef
		if err := rows.Scan(&lock.ID, &lock.Name); err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		locks = append(locks, lock)
	}
	return locks, rows.Err()
}

func (s *PostgresStore) ListLocksByIDs(ctx context.Context, lockIDs []int64) ([]Lock, error) {
	if len(lockIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, name, owner_id FROM locks WHERE id IN (` + placeholders(len(lockIDs), 1) + `) ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, int64Args(lockIDs)...)
	if err != nil {
		return nil, fmt.Errorf("list locks by ids: %w", err)
	}
	defer rows.Close()

	var locks []Lock
	for rows.Next() {
		var lock Lock
		if err := rows.Scan(&lock.ID, &lock.Name, &lock.OwnerID); err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		locks = append(locks, lock)
	}
	return locks, rows.Err()
}

func (s *PostgresStore) ListDirectGrantsIn(ctx context.Context, userID int64, lockIDs []int64) ([]LockGrant, error) {
	if len(lockIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT user_id, lock_id, role
		FROM user_locks
		WHERE user_id = $1 AND lock_id IN (` + placeholders(len(lockIDs), 2) + `)`
	args := append([]any{userID}, int64Args(lockIDs)...)
	return s.queryGrants(ctx, query, args...)
}

// ListGroupGrantsIn returns one row per (group, lock) combination that reaches
// the user, so a lock may appear with more than one role.
func (s *PostgresStore) ListGroupGrantsIn(ctx context.Context, userID int64, lockIDs []int64) ([]LockGrant, error) {
	if len(lockIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT agu.user_id, agl.lock_id, agu.role
		FROM access_group_users agu
		JOIN access_group_locks agl ON agl.group_id = agu.group_id
		WHERE agu.user_id = $1 AND agl.lock_id IN (` + placeholders(len(lockIDs), 2) + `)`
	args := append([]any{userID}, int64Args(lockIDs)...)
	return s.queryGrants(ctx, query, args...)
}

func (s *PostgresStore) queryGrants(ctx context.Context, query string, args ...any) ([]LockGrant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	defer rows.Close()

	var grants []LockGrant
	for rows.Next() {
		var grant LockGrant
		if err := rows.Scan(&grant.UserID, &grant.LockID, &grant.Role); err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

// ListSharedUsers reports the users holding a direct grant on any lock owned
// by ownerID, grouped by email and role with a lock count.
func (s *PostgresStore) ListSharedUsers(ctx context.Context, ownerID int64) ([]SharedUser, error) {
	const query = `
		SELECT u.email, ul.role, COUNT(ul.lock_id)
		FROM user_locks ul
		JOIN locks l ON ul.lock_id = l.id
		JOIN users u ON ul.user_id = u.id
		WHERE l.owner_id = $1
		GROUP BY u.email, ul.role
		ORDER BY u.email, ul.role
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shared users: %w", err)
	}
	defer rows.Close()

	var shared []SharedUser
	for rows.Next() {
		var item SharedUser
		if err := rows.Scan(&item.Email, &item.Role, &item.LockCount); err != nil {
			return nil, fmt.Errorf("scan shared user: %w", err)
		}
		shared = append(shared, item)
	}
	return shared, rows.Err()
}

// ApplyPendingAccess converts every pending_access row matching the email into
// a user_locks grant for userID and deletes the pending rows, in one
// transaction. Grants that already exist are ignored. Returns the number of
// pending rows consumed.
func (s *PostgresStore) ApplyPendingAccess(ctx context.Context, email string, userID int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin pending access tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT lock_id, role FROM pending_access WHERE email = $1`, email)
	if err != nil {
		return 0, fmt.Errorf("list pending access: %w", err)
	}
	var pending []PendingAccess
	for rows.Next() {
		item := PendingAccess{Email: email}
		if err := rows.Scan(&item.LockID, &item.Role); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan pending access: %w", err)
		}
		pending = append(pending, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	if len(pending) == 0 {
		return 0, tx.Commit()
	}

	for _, item := range pending {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_locks (user_id, lock_id, role)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, lock_id) DO NOTHING
		`, userID, item.LockID, item.Role); err != nil {
			return 0, fmt.Errorf("apply pending grant: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pending_access WHERE email = $1`, email); err != nil {
		return 0, fmt.Errorf("delete pending access: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit pending access: %w", err)
	}
	return len(pending), nil
}

func (s *PostgresStore) ListGroupsForUser(ctx context.Context, userID int64) ([]GroupSummary, error) {
	const query = `
		SELECT g.id, g.name, agu.role,
			(SELECT COUNT(*) FROM access_group_users WHERE group_id = g.id),
			(SELECT COUNT(*) FROM access_group_locks WHERE group_id = g.id)
		FROM access_groups g
		JOIN access_group_users agu ON agu.group_id = g.id
		WHERE agu.user_id = $1
		ORDER BY g.id
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups for user: %w", err)
	}
	defer rows.Close()

	var groups []GroupSummary
	for rows.Next() {
		var group GroupSummary
		if err := rows.Scan(&group.ID, &group.Name, &group.Role, &group.UserCount, &group.LockCount); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (s *PostgresStore) GetGroup(ctx context.Context, groupID int64) (AccessGroup, error) {
	var group AccessGroup
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM access_groups WHERE id = $1`, groupID).
		Scan(&group.ID, &group.Name)
	if err != nil {
		return AccessGroup{}, err
	}
	return group, nil
}

func (s *PostgresStore) ListGroupUsers(ctx context.Context, groupID int64) ([]GroupUser, error) {
	const query = `
		SELECT u.id, u.email, agu.role
		FROM access_group_users agu
		JOIN users u ON agu.user_id = u.id
		WHERE agu.group_id = $1
		ORDER BY u.id
	`
	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group users: %w", err)
	}
	defer rows.Close()

	var users []GroupUser
	for rows.Next() {
		var user GroupUser
		if err := rows.Scan(&user.ID, &user.Email, &user.Role); err != nil {
			return nil, fmt.Errorf("scan group user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *PostgresStore) ListGroupLocks(ctx context.Context, groupID int64) ([]LockRef, error) {
	const query = `
		SELECT l.id, l.name
		FROM access_group_locks agl
		JOIN locks l ON agl.lock_id = l.id
		WHERE agl.group_id = $1
		ORDER BY l.id
	`
	return s.queryLockRefs(ctx, query, groupID)
}

// IsUniqueViolation reports whether err is the Postgres duplicate-key error.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

func placeholders(count, start int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
