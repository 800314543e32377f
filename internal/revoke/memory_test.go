package revoke

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemorySetRevokeAndLookup(t *testing.T) {
	set := NewMemorySet()
	ctx := context.Background()

	if err := set.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	revoked, err := set.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if !revoked {
		t.Fatal("expected jti-1 revoked")
	}

	revoked, err = set.IsRevoked(ctx, "jti-2")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Fatal("jti-2 must not be revoked")
	}
}

func TestMemorySetExpiredEntriesClear(t *testing.T) {
	set := NewMemorySet()
	ctx := context.Background()

	if err := set.Revoke(ctx, "jti-1", time.Millisecond); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	revoked, err := set.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("IsRevoked: %v", err)
	}
	if revoked {
		t.Fatal("expired entry must read as not revoked")
	}
}

func TestMemorySetIgnoresEmptyAndNonPositive(t *testing.T) {
	set := NewMemorySet()
	ctx := context.Background()

	_ = set.Revoke(ctx, "", time.Hour)
	_ = set.Revoke(ctx, "jti-1", -time.Hour)

	if revoked, _ := set.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatal("non-positive ttl must not revoke")
	}
}

func TestMemorySetConcurrentAccess(t *testing.T) {
	// A revoked credential must never read as not-revoked afterwards,
	// under concurrent inserts and lookups.
	set := NewMemorySet()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jti := fmt.Sprintf("jti-%d", i)
			if err := set.Revoke(ctx, jti, time.Hour); err != nil {
				t.Errorf("Revoke(%s): %v", jti, err)
				return
			}
			revoked, err := set.IsRevoked(ctx, jti)
			if err != nil {
				t.Errorf("IsRevoked(%s): %v", jti, err)
				return
			}
			if !revoked {
				t.Errorf("%s read as not revoked after Revoke returned", jti)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		jti := fmt.Sprintf("jti-%d", i)
		if revoked, _ := set.IsRevoked(ctx, jti); !revoked {
			t.Errorf("%s lost", jti)
		}
	}
}
