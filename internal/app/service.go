package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"lockshare/api/internal/access"
	"lockshare/api/internal/auth"
	"lockshare/api/internal/authpw"
	"lockshare/api/internal/config"
	"lockshare/api/internal/store"
)

// Session is the result of a successful login.
type Session struct {
	Token     string
	UserID    int64
	Email     string
	Role      string
	ExpiresAt time.Time
}

type dataStore interface {
	Ping(ctx context.Context) error
	GetUserByID(ctx context.Context, userID int64) (store.User, error)
	ListSharedUsers(ctx context.Context, ownerID int64) ([]store.SharedUser, error)
	ListGroupsForUser(ctx context.Context, userID int64) ([]store.GroupSummary, error)
	GetGroup(ctx context.Context, groupID int64) (store.AccessGroup, error)
	ListGroupUsers(ctx context.Context, groupID int64) ([]store.GroupUser, error)
	ListGroupLocks(ctx context.Context, groupID int64) ([]store.LockRef, error)
}

// Store is everything the service and its sub-services read and write.
// *store.PostgresStore satisfies it.
type Store interface {
	dataStore
	authpw.UserStore
	access.Store
}

type Service struct {
	cfg    config.Config
	store  dataStore
	gate   *auth.Gate
	passwd *authpw.Service
	access *access.Service
}

func New(cfg config.Config, st Store, revoked auth.RevocationSet) *Service {
	return &Service{
		cfg:    cfg,
		store:  st,
		gate:   auth.NewGate(cfg.JWTSecret, revoked),
		passwd: authpw.NewService(st, cfg.BcryptCost),
		access: access.New(st),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Login authenticates by email and password and issues a credential.
// Remembered logins get the long-lived TTL.
func (s *Service) Login(ctx context.Context, email, password string, remember bool) (Session, error) {
	user, err := s.passwd.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}

	ttl := s.cfg.AccessTTL
	if remember {
		ttl = s.cfg.RememberTTL
	}
	token, expiresAt, err := s.gate.Issue(user.ID, user.Email, user.Role, ttl)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) Register(ctx context.Context, req authpw.RegisterRequest) (int64, error) {
	return s.passwd.Register(ctx, req)
}

// SignOut revokes the credential for the remainder of its lifetime.
func (s *Service) SignOut(ctx context.Context, credential string) error {
	return s.gate.Revoke(ctx, credential)
}

func (s *Service) PrincipalFromToken(ctx context.Context, credential string) (auth.Principal, error) {
	return s.gate.Validate(ctx, credential)
}

// SharedUsers lists the users the caller has shared owned locks with.
func (s *Service) SharedUsers(ctx context.Context, userID int64) ([]store.SharedUser, error) {
	shared, err := s.store.ListSharedUsers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if shared == nil {
		shared = []store.SharedUser{}
	}
	return shared, nil
}

// UserAccessDetails builds the shared-access report for a target user.
func (s *Service) UserAccessDetails(ctx context.Context, requesterID, targetID int64) (access.Report, error) {
	return s.access.BuildReport(ctx, requesterID, targetID)
}

func (s *Service) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Role == "admin", nil
}

func (s *Service) GroupsForUser(ctx context.Context, userID int64) ([]store.GroupSummary, error) {
	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []store.GroupSummary{}
	}
	return groups, nil
}

// GroupDetails returns a group with its members and attached locks.
func (s *Service) GroupDetails(ctx context.Context, groupID int64) (map[string]any, error) {
	group, err := s.lookupGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	users, err := s.store.ListGroupUsers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	locks, err := s.store.ListGroupLocks(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []store.GroupUser{}
	}
	if locks == nil {
		locks = []store.LockRef{}
	}
	return map[string]any{
		"id":    group.ID,
		"name":  group.Name,
		"users": users,
		"locks": locks,
	}, nil
}

func (s *Service) GroupUsers(ctx context.Context, groupID int64) ([]store.GroupUser, error) {
	if _, err := s.lookupGroup(ctx, groupID); err != nil {
		return nil, err
	}
	users, err := s.store.ListGroupUsers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []store.GroupUser{}
	}
	return users, nil
}

// lookupGroup fetches a group, mapping a missing row to a DomainError so the
// boundary reports the resource by name.
func (s *Service) lookupGroup(ctx context.Context, groupID int64) (store.AccessGroup, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.AccessGroup{}, &DomainError{
			Status:  http.StatusNotFound,
			Code:    "NOT_FOUND",
			Message: "access group not found",
		}
	}
	return group, err
}
