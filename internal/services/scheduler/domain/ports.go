package domain

import (
	"context"
	"time"

	"datacompliance/internal/platform/bus"
)

// SchedulerPort creates and completes batches
type SchedulerPort interface {
	ScheduleNext(ctx context.Context) (Batch, error)
	ScheduleAdHoc(ctx context.Context, offenderNo, reason string) (Batch, error)
	CompleteBatch(ctx context.Context, batchID int64, referred, totalInWindow int) (Batch, error)
}

// RunnerPort runs scheduling cycles on the configured cadence until ctx ends
type RunnerPort interface {
	Run(ctx context.Context) error
}

// ConsumerPort handles batch completion messages from the referral source
type ConsumerPort interface {
	HandleComplete(ctx context.Context, m bus.Message) error
}

// Locker serializes scheduling cycles across replicas
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}
