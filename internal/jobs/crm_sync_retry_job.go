package jobs

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// RetryCRMSyncHandler is satisfied by *commands.RetryCRMSyncCommandHandler.
type RetryCRMSyncHandler interface {
	Handle(ctx context.Context, cmd commands.RetryCRMSyncCommand) (commands.RetryCRMSyncResult, error)
}

// DefaultRetryBatchSize bounds how many due tasks one tick drains.
const DefaultRetryBatchSize = 25

// CRMSyncRetryJob drains the CRM retry queue every 30 seconds.
type CRMSyncRetryJob struct {
	handler   RetryCRMSyncHandler
	batchSize int
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewCRMSyncRetryJob creates the retry job. A non-positive batchSize falls
// back to DefaultRetryBatchSize.
func NewCRMSyncRetryJob(handler RetryCRMSyncHandler, batchSize int, logger *slog.Logger) *CRMSyncRetryJob {
	if batchSize <= 0 {
		batchSize = DefaultRetryBatchSize
	}
	return &CRMSyncRetryJob{
		handler:   handler,
		batchSize: batchSize,
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:    logger.With("component", "crm_sync_retry_job"),
	}
}

// Start schedules the job.
func (j *CRMSyncRetryJob) Start() error {
	_, err := j.cron.AddFunc("*/30 * * * * *", func() {
		j.run(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "CRM sync retry job started (running every 30 seconds)")
	return nil
}

// Stop stops the job and waits for a running drain to finish.
func (j *CRMSyncRetryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "CRM sync retry job stopped")
}

func (j *CRMSyncRetryJob) run(ctx context.Context) {
	cmd, err := commands.NewRetryCRMSyncCommand(j.batchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "CRM sync retry command rejected", "error", err)
		return
	}

	res, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "CRM sync retry job failed", "error", err, "processed", res.Processed)
		return
	}
	if res.Processed > 0 {
		j.logger.InfoContext(ctx, "CRM sync retry drained",
			"processed", res.Processed,
			"succeeded", res.Succeeded,
			"requeued", res.Requeued,
			"abandoned", res.Abandoned,
		)
	}
}
