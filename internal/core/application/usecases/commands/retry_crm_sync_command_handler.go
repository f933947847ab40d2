package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/crmsync"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// RetryCRMSyncResult summarizes one drain of the retry queue.
type RetryCRMSyncResult struct {
	Processed int
	Succeeded int
	Requeued  int
	Abandoned int
}

// RetryCRMSyncCommandHandler re-runs the full group sync for due tasks.
// Re-running is safe because every CRM write is an upsert.
//
// Business rules:
//   - Success stores the deal id and completes the task
//   - Transient failures push the next attempt out with growing backoff
//   - Permanent failures raise an alert and complete the task
//   - Groups that no longer exist complete the task
type RetryCRMSyncCommandHandler struct {
	uowFactory ShipmentUoWFactory
	queue      ports.SyncQueue
	syncer     GroupSyncer
	logger     *slog.Logger
	now        func() time.Time
}

func NewRetryCRMSyncCommandHandler(
	uowFactory ShipmentUoWFactory,
	queue ports.SyncQueue,
	syncer GroupSyncer,
	logger *slog.Logger,
) RetryCRMSyncCommandHandler {
	return RetryCRMSyncCommandHandler{
		uowFactory: uowFactory,
		queue:      queue,
		syncer:     syncer,
		logger:     logger.With("component", "crm_sync_retry"),
		now:        time.Now,
	}
}

func (h *RetryCRMSyncCommandHandler) Handle(ctx context.Context, cmd RetryCRMSyncCommand) (RetryCRMSyncResult, error) {
	if err := cmd.Validate(); err != nil {
		return RetryCRMSyncResult{}, err
	}

	tasks, err := h.queue.Due(ctx, h.now(), cmd.BatchSize())
	if err != nil {
		return RetryCRMSyncResult{}, err
	}

	var res RetryCRMSyncResult
	for _, task := range tasks {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Processed++
		outcome, err := h.retry(ctx, task)
		if err != nil {
			return res, err
		}
		switch outcome {
		case retrySucceeded:
			res.Succeeded++
		case retryRequeued:
			res.Requeued++
		case retryAbandoned:
			res.Abandoned++
		}
	}
	return res, nil
}

type retryOutcome int

const (
	retrySucceeded retryOutcome = iota
	retryRequeued
	retryAbandoned
)

// retry handles one task. Only queue bookkeeping errors are returned.
func (h *RetryCRMSyncCommandHandler) retry(ctx context.Context, task ports.SyncTask) (retryOutcome, error) {
	repo := h.uowFactory.Create().ShipmentRepository()

	group, err := repo.Get(ctx, task.GroupID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		h.logger.WarnContext(ctx, "Dropping CRM sync task for missing group", "task_id", task.ID, "group_id", task.GroupID.String())
		return retryAbandoned, h.queue.MarkDone(ctx, task.ID)
	}
	if err != nil {
		return retryRequeued, h.queue.MarkFailed(ctx, task.ID, err.Error(), h.now().Add(crmsync.QueueBackoff(task.Attempts+1)))
	}

	synced, err := h.syncer.SyncGroup(ctx, group)
	if err != nil {
		if crmsync.IsPermanent(err) {
			h.syncer.HandleFailure(ctx, group.ID(), group.OrderNumber().String(), err)
			return retryAbandoned, h.queue.MarkDone(ctx, task.ID)
		}
		next := h.now().Add(crmsync.QueueBackoff(task.Attempts + 1))
		h.logger.InfoContext(ctx, "CRM sync retry failed, rescheduled",
			"task_id", task.ID, "group_id", group.ID().String(), "attempts", task.Attempts+1, "next_attempt_at", next, "error", err)
		return retryRequeued, h.queue.MarkFailed(ctx, task.ID, err.Error(), next)
	}

	if err = repo.SetDealID(ctx, group.ID(), synced.DealID); err != nil {
		return retryRequeued, h.queue.MarkFailed(ctx, task.ID, err.Error(), h.now().Add(crmsync.QueueBackoff(task.Attempts+1)))
	}
	h.logger.InfoContext(ctx, "CRM sync retry succeeded",
		"task_id", task.ID, "group_id", group.ID().String(), "deal_id", synced.DealID)
	return retrySucceeded, h.queue.MarkDone(ctx, task.ID)
}
