package authpw

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"lockshare/api/internal/store"
)

type fakeUserStore struct {
	getUserByEmailFn     func(context.Context, string) (store.User, error)
	createUserFn         func(context.Context, store.User) (int64, error)
	applyPendingAccessFn func(context.Context, string, int64) (int, error)
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user store.User) (int64, error) {
	if f.createUserFn != nil {
		return f.createUserFn(ctx, user)
	}
	return 1, nil
}

func (f *fakeUserStore) ApplyPendingAccess(ctx context.Context, email string, userID int64) (int, error) {
	if f.applyPendingAccessFn != nil {
		return f.applyPendingAccessFn(ctx, email, userID)
	}
	return 0, nil
}

func validRequest() RegisterRequest {
	return RegisterRequest{
		Email:       "kari@example.com",
		Password:    "hunter2hunter2",
		PhoneNumber: "12345678",
		FirstName:   "Kari",
		LastName:    "Nordmann",
	}
}

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	var created store.User
	fs := &fakeUserStore{
		createUserFn: func(_ context.Context, user store.User) (int64, error) {
			created = user
			return 42, nil
		},
	}
	svc := NewService(fs, bcrypt.MinCost)

	userID, err := svc.Register(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if userID != 42 {
		t.Fatalf("expected userID 42, got %d", userID)
	}
	if created.Role != "user" {
		t.Fatalf("expected default role user, got %q", created.Role)
	}
	if created.PasswordHash == "hunter2hunter2" || created.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("hunter2hunter2")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	svc := NewService(&fakeUserStore{}, bcrypt.MinCost)
	req := validRequest()
	req.Password = ""

	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	fs := &fakeUserStore{
		getUserByEmailFn: func(_ context.Context, email string) (store.User, error) {
			return store.User{ID: 1, Email: email}, nil
		},
	}
	svc := NewService(fs, bcrypt.MinCost)

	if _, err := svc.Register(context.Background(), validRequest()); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterAppliesPendingAccess(t *testing.T) {
	var appliedEmail string
	var appliedUserID int64
	fs := &fakeUserStore{
		createUserFn: func(context.Context, store.User) (int64, error) { return 7, nil },
		applyPendingAccessFn: func(_ context.Context, email string, userID int64) (int, error) {
			appliedEmail = email
			appliedUserID = userID
			return 2, nil
		},
	}
	svc := NewService(fs, bcrypt.MinCost)

	if _, err := svc.Register(context.Background(), validRequest()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if appliedEmail != "kari@example.com" || appliedUserID != 7 {
		t.Fatalf("pending access applied with email=%q userID=%d", appliedEmail, appliedUserID)
	}
}

func TestRegisterSurvivesPendingAccessFailure(t *testing.T) {
	fs := &fakeUserStore{
		createUserFn: func(context.Context, store.User) (int64, error) { return 7, nil },
		applyPendingAccessFn: func(context.Context, string, int64) (int, error) {
			return 0, errors.New("deadlock detected")
		},
	}
	svc := NewService(fs, bcrypt.MinCost)

	userID, err := svc.Register(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("registration must not fail on reconciliation error, got %v", err)
	}
	if userID != 7 {
		t.Fatalf("expected userID 7, got %d", userID)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	fs := &fakeUserStore{
		getUserByEmailFn: func(_ context.Context, email string) (store.User, error) {
			return store.User{ID: 1, Email: email, PasswordHash: string(hash)}, nil
		},
	}
	svc := NewService(fs, bcrypt.MinCost)

	_, err := svc.SignIn(context.Background(), "kari@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignInUnknownEmailSameError(t *testing.T) {
	// Unknown emails must be indistinguishable from wrong passwords.
	svc := NewService(&fakeUserStore{}, bcrypt.MinCost)

	_, err := svc.SignIn(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignInSuccess(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	fs := &fakeUserStore{
		getUserByEmailFn: func(_ context.Context, email string) (store.User, error) {
			return store.User{ID: 1, Email: email, PasswordHash: string(hash), Role: "admin"}, nil
		},
	}
	svc := NewService(fs, bcrypt.MinCost)

	user, err := svc.SignIn(context.Background(), "kari@example.com", "correct-password")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if user.ID != 1 || user.Role != "admin" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
