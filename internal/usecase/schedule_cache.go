package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ScheduleCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type EventLocker interface {
	Acquire(ctx context.Context, eventID uuid.UUID) (func(), error)
}

func ScheduleCacheKey(eventID uuid.UUID) string {
	return "schedule:" + eventID.String()
}
