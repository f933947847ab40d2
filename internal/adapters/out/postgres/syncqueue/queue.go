// Package syncqueue is the durable retry queue for CRM synchronization of
// shipment groups, stored in crm_sync_queue.
package syncqueue

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	statusPending = "PENDING"
	statusDone    = "DONE"
)

// TaskDTO is one row of crm_sync_queue. At most one pending row exists per group.
type TaskDTO struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	GroupID       string    `gorm:"type:uuid;index:idx_sync_pending_group,unique,where:status = 'PENDING'"`
	Status        string    `gorm:"type:varchar(16);index:idx_sync_due,priority:1"`
	Attempts      int
	LastError     string    `gorm:"type:text"`
	NextAttemptAt time.Time `gorm:"index:idx_sync_due,priority:2"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (TaskDTO) TableName() string {
	return "crm_sync_queue"
}

// GormSyncQueue implements ports.SyncQueue.
type GormSyncQueue struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormSyncQueue(db *gorm.DB) *GormSyncQueue {
	return &GormSyncQueue{db: db, now: time.Now}
}

// Enqueue makes the group due immediately. A group that is already pending
// keeps its existing schedule.
func (q *GormSyncQueue) Enqueue(ctx context.Context, groupID kernel.UUID, reason string) error {
	if err := groupID.Validate(); err != nil {
		return err
	}
	now := q.now().UTC()
	task := TaskDTO{
		GroupID:       groupID.String(),
		Status:        statusPending,
		LastError:     reason,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return q.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&task).Error
}

// Due lists pending tasks scheduled at or before now, oldest first.
func (q *GormSyncQueue) Due(ctx context.Context, now time.Time, limit int) ([]ports.SyncTask, error) {
	if limit <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}

	var dtos []TaskDTO
	err := q.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", statusPending, now.UTC()).
		Order("next_attempt_at, id").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	tasks := make([]ports.SyncTask, 0, len(dtos))
	for _, dto := range dtos {
		groupID, parseErr := kernel.UUIDFromString(dto.GroupID)
		if parseErr != nil {
			return nil, parseErr
		}
		tasks = append(tasks, ports.SyncTask{
			ID:            dto.ID,
			GroupID:       groupID,
			Attempts:      dto.Attempts,
			LastError:     dto.LastError,
			NextAttemptAt: dto.NextAttemptAt,
		})
	}
	return tasks, nil
}

func (q *GormSyncQueue) MarkDone(ctx context.Context, taskID int64) error {
	return q.update(ctx, taskID, map[string]any{
		"status":     statusDone,
		"updated_at": q.now().UTC(),
	})
}

func (q *GormSyncQueue) MarkFailed(ctx context.Context, taskID int64, reason string, nextAttemptAt time.Time) error {
	return q.update(ctx, taskID, map[string]any{
		"attempts":        gorm.Expr("attempts + 1"),
		"last_error":      reason,
		"next_attempt_at": nextAttemptAt.UTC(),
		"updated_at":      q.now().UTC(),
	})
}

func (q *GormSyncQueue) update(ctx context.Context, taskID int64, values map[string]any) error {
	result := q.db.WithContext(ctx).
		Model(&TaskDTO{}).
		Where("id = ? AND status = ?", taskID, statusPending).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("syncTask", taskID)
	}
	return nil
}
