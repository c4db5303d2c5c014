package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrLockHeld = errors.New("event lock held")

// EventLocker serialises schedule writes per event. A process-local set
// guards goroutines of this instance; a redis SET NX key guards other
// instances when redis is available.
type EventLocker struct {
	redis  *Redis
	ttl    time.Duration
	logger *log.Logger

	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

func NewEventLocker(r *Redis, ttl time.Duration, logger *log.Logger) *EventLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &EventLocker{redis: r, ttl: ttl, logger: logger, held: map[uuid.UUID]struct{}{}}
}

func lockKey(eventID uuid.UUID) string {
	return "lock:event:" + eventID.String()
}

// Acquire takes the lock for eventID or fails with ErrLockHeld. The returned
// release func must be called exactly once.
func (l *EventLocker) Acquire(ctx context.Context, eventID uuid.UUID) (func(), error) {
	l.mu.Lock()
	if _, busy := l.held[eventID]; busy {
		l.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, eventID)
	}
	l.held[eventID] = struct{}{}
	l.mu.Unlock()

	unlockLocal := func() {
		l.mu.Lock()
		delete(l.held, eventID)
		l.mu.Unlock()
	}

	if !l.redis.Available() {
		return unlockLocal, nil
	}

	token := uuid.NewString()
	ok, err := l.redis.SetIfNotExists(ctx, lockKey(eventID), token, l.ttl)
	if err != nil {
		// redis went away after start up; the local lock still holds
		if l.logger != nil {
			l.logger.Printf("[EventLock] redis lock failed, using local lock only event_id=%s err=%v", eventID, err)
		}
		return unlockLocal, nil
	}
	if !ok {
		unlockLocal()
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, eventID)
	}

	return func() {
		if _, err := l.redis.DeleteIfValue(context.Background(), lockKey(eventID), token); err != nil && l.logger != nil {
			l.logger.Printf("[EventLock] release failed event_id=%s err=%v", eventID, err)
		}
		unlockLocal()
	}, nil
}
