package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	l, err := NewRedisLocker(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("failed to create locker: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l, mr
}

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("exclusive", func(t *testing.T) {
		l, _ := newTestLocker(t)

		release, err := l.Acquire(ctx, "sweep", time.Minute)
		if err != nil {
			t.Fatalf("expected first acquire to succeed: %v", err)
		}
		if _, err := l.Acquire(ctx, "sweep", time.Minute); !errors.Is(err, ErrNotAcquired) {
			t.Fatalf("expected ErrNotAcquired, got %v", err)
		}
		if _, err := l.Acquire(ctx, "other", time.Minute); err != nil {
			t.Fatalf("expected an unrelated lock to succeed: %v", err)
		}

		release()
		if _, err := l.Acquire(ctx, "sweep", time.Minute); err != nil {
			t.Fatalf("expected acquire after release to succeed: %v", err)
		}
	})

	t.Run("expires", func(t *testing.T) {
		l, mr := newTestLocker(t)

		if _, err := l.Acquire(ctx, "sweep", time.Second); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		mr.FastForward(2 * time.Second)
		if _, err := l.Acquire(ctx, "sweep", time.Second); err != nil {
			t.Fatalf("expected expired lock to be free: %v", err)
		}
	})

	t.Run("stale_release_keeps_new_owner", func(t *testing.T) {
		l, mr := newTestLocker(t)

		stale, err := l.Acquire(ctx, "sweep", time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		mr.FastForward(2 * time.Second)
		if _, err := l.Acquire(ctx, "sweep", time.Minute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stale()
		if !mr.Exists("fintrack:lock:sweep") {
			t.Fatal("expected the new owner's lock to survive a stale release")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		if _, err := NewRedisLocker(ctx, addr, "", 0); err == nil {
			t.Fatal("expected an error for an unreachable redis")
		}
	})
}

func TestNop(t *testing.T) {
	release, err := Nop{}.Acquire(context.Background(), "anything", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
}
