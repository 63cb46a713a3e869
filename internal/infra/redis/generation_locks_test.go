package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestGenerationLocksFenceInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	locks := NewGenerationLocks(newClient(mr), time.Minute)

	token, ok, err := locks.TryAcquire(ctx, "ABC123:0")
	if err != nil || !ok {
		t.Fatalf("expected acquire, got ok=%v err=%v", ok, err)
	}
	if !mr.Exists("studysync:quizgen:ABC123:0") {
		t.Fatalf("expected lock key in redis")
	}

	// A second instance sharing Redis sees the lock too.
	other := NewGenerationLocks(newClient(mr), time.Minute)
	if _, ok, _ := other.TryAcquire(ctx, "ABC123:0"); ok {
		t.Fatalf("expected duplicate acquire to fail")
	}

	if err := locks.Release(ctx, "ABC123:0", token); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("studysync:quizgen:ABC123:0") {
		t.Fatalf("expected lock key removed")
	}
}

func TestGenerationLocksReleaseKeepsForeignLock(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	first := NewGenerationLocks(newClient(mr), time.Minute)
	second := NewGenerationLocks(newClient(mr), time.Minute)

	stale, ok, _ := first.TryAcquire(ctx, "k")
	if !ok {
		t.Fatalf("expected first acquire")
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := second.TryAcquire(ctx, "k"); !ok {
		t.Fatalf("expected takeover after expiry")
	}

	if err := first.Release(ctx, "k", stale); err != nil {
		t.Fatalf("release: %v", err)
	}
	if !mr.Exists("studysync:quizgen:k") {
		t.Fatalf("expected takeover lock to survive stale release")
	}
}

func TestGenerationLocksStaleReleaseOnSameInstance(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	locks := NewGenerationLocks(newClient(mr), time.Minute)

	stale, ok, _ := locks.TryAcquire(ctx, "k")
	if !ok {
		t.Fatalf("expected acquire")
	}
	mr.FastForward(2 * time.Minute)
	current, ok, _ := locks.TryAcquire(ctx, "k")
	if !ok {
		t.Fatalf("expected takeover after expiry")
	}

	if err := locks.Release(ctx, "k", stale); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok, _ := locks.TryAcquire(ctx, "k"); ok {
		t.Fatalf("expected takeover lock to survive stale release")
	}

	if err := locks.Release(ctx, "k", current); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("studysync:quizgen:k") {
		t.Fatalf("expected lock removed by its holder")
	}
}
