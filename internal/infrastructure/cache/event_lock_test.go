package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
)

func TestEventLocker_LocalExclusion(t *testing.T) {
	l := NewEventLocker(nil, 0, nil)
	ctx := context.Background()
	a := uuid.New()
	b := uuid.New()

	release, err := l.Acquire(ctx, a)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := l.Acquire(ctx, a); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}

	releaseB, err := l.Acquire(ctx, b)
	if err != nil {
		t.Fatalf("other event should not be blocked: %v", err)
	}
	releaseB()

	release()
	release2, err := l.Acquire(ctx, a)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	release2()
}

func TestEventLocker_ConcurrentAcquireSingleWinner(t *testing.T) {
	l := NewEventLocker(nil, 0, nil)
	id := uuid.New()

	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := l.Acquire(context.Background(), id); err == nil {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestRedis_UnavailableIsNoop(t *testing.T) {
	var r *Redis
	ctx := context.Background()

	if r.Available() {
		t.Fatalf("nil redis must report unavailable")
	}
	var out map[string]string
	if found, err := r.GetJSON(ctx, "k", &out); found || err != nil {
		t.Fatalf("expected miss without error, got found=%v err=%v", found, err)
	}
	if err := r.SetJSON(ctx, "k", map[string]string{"a": "b"}, 0); err != nil {
		t.Fatalf("set should be a no-op: %v", err)
	}
	if err := r.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete should be a no-op: %v", err)
	}
	if ok, err := r.SetIfNotExists(ctx, "k", "v", 0); ok || err != nil {
		t.Fatalf("setnx should be a no-op: %v %v", ok, err)
	}
	if err := r.Ping(ctx); err == nil {
		t.Fatalf("ping should fail without redis")
	}
}
