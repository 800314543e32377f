package revoke

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisSet, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	set, err := NewRedisSet("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis set: %v", err)
	}
	return set, s
}

func TestNewRedisSet(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	set, err := NewRedisSet("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisSet failed: %v", err)
	}
	defer set.Close()

	if err := set.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRedisSetRevokeAndLookup(t *testing.T) {
	set, s := setupTestRedis(t)
	defer set.Close()
	defer s.Close()

	ctx := context.Background()
	if err := set.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	revoked, err := set.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Error("expected jti-1 revoked")
	}

	revoked, err = set.IsRevoked(ctx, "jti-unknown")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Error("unknown jti must not be revoked")
	}
}

func TestRedisSetEntriesExpireWithCredential(t *testing.T) {
	set, s := setupTestRedis(t)
	defer set.Close()
	defer s.Close()

	ctx := context.Background()
	if err := set.Revoke(ctx, "jti-1", time.Second); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	// Fast-forward time in miniredis past the credential's expiry.
	s.FastForward(2 * time.Second)

	revoked, err := set.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Error("entry should have expired with the credential")
	}
}
