// Package authpw provides email/password registration and sign-in.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"lockshare/api/internal/store"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingFields      = errors.New("missing required fields")
)

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	CreateUser(ctx context.Context, user store.User) (int64, error)
	ApplyPendingAccess(ctx context.Context, email string, userID int64) (int, error)
}

// Service provides email/password authentication
type Service struct {
	store UserStore
	cost  int
}

// NewService creates a new auth service. cost is the bcrypt work factor.
func NewService(store UserStore, cost int) *Service {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{store: store, cost: cost}
}

// RegisterRequest contains registration parameters
type RegisterRequest struct {
	Email       string
	Password    string
	PhoneNumber string
	FirstName   string
	LastName    string
}

// Register creates a user account and applies any pending-access grants
// queued for the email. Emails are matched exactly as stored.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return 0, ErrMissingFields
	}

	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return 0, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.store.CreateUser(ctx, store.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         "user",
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	// The user row must survive a reconciliation failure; surface it as a
	// warning, not a registration error.
	if applied, err := s.store.ApplyPendingAccess(ctx, req.Email, userID); err != nil {
		log.Printf("WARNING: pending access reconciliation failed for user %d: %v", userID, err)
	} else if applied > 0 {
		log.Printf("applied %d pending grant(s) for user %d", applied, userID)
	}

	return userID, nil
}

// SignIn authenticates a user by email and password. Unknown emails and wrong
// passwords return the same error so callers cannot probe for accounts.
func (s *Service) SignIn(ctx context.Context, email, password string) (store.User, error) {
	if email == "" || password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}

	return user, nil
}
