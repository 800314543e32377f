// Package auth issues and validates signed session credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// Claims extends the registered JWT claims with the user's email and role.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Principal is the authenticated identity resolved from a credential.
type Principal struct {
	ID    int64
	Email string
	Role  string
	JTI   string
}

// RevocationSet tracks credentials invalidated before their expiry. It must
// tolerate concurrent Revoke and IsRevoked calls: once Revoke returns, every
// subsequent IsRevoked for that id reports true.
type RevocationSet interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Gate signs, validates, and revokes session credentials. The revocation set
// is injected so tests can substitute a fake.
type Gate struct {
	secret  []byte
	revoked RevocationSet
}

func NewGate(secret string, revoked RevocationSet) *Gate {
	return &Gate{secret: []byte(secret), revoked: revoked}
}

// Issue signs a credential for the user with the given lifetime.
func (g *Gate) Issue(userID int64, email, role string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Email: email,
		Role:  role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks signature, expiry, and the revocation set.
func (g *Gate) Validate(ctx context.Context, credential string) (Principal, error) {
	claims, err := g.parse(credential)
	if err != nil {
		return Principal{}, err
	}

	revoked, err := g.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Principal{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Principal{}, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	return Principal{ID: userID, Email: claims.Email, Role: claims.Role, JTI: claims.ID}, nil
}

// Revoke adds the credential to the revocation set for the remainder of its
// lifetime. Already-invalid credentials are ignored.
func (g *Gate) Revoke(ctx context.Context, credential string) error {
	claims, err := g.parse(credential)
	if err != nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return g.revoked.Revoke(ctx, claims.ID, ttl)
}

func (g *Gate) parse(credential string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(_ *jwt.Token) (any, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
