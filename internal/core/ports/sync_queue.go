package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

// SyncTask is a pending CRM sync of one shipment group.
type SyncTask struct {
	ID            int64
	GroupID       kernel.UUID
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
}

// SyncQueue is the durable async retry queue for CRM sync.
type SyncQueue interface {
	// Enqueue schedules the group. Enqueuing a group already pending is a no-op.
	Enqueue(ctx context.Context, groupID kernel.UUID, reason string) error
	// Due returns up to limit tasks whose next attempt is at or before now.
	Due(ctx context.Context, now time.Time, limit int) ([]SyncTask, error)
	MarkDone(ctx context.Context, taskID int64) error
	// MarkFailed records the failure and pushes the next attempt to nextAttemptAt.
	MarkFailed(ctx context.Context, taskID int64, reason string, nextAttemptAt time.Time) error
}
