package jobs

import (
	"fmt"
	"log/slog"
	"time"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	crmSyncRetryJob         *CRMSyncRetryJob
	stuckShipmentMonitorJob *StuckShipmentMonitorJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(
	retryHandler RetryCRMSyncHandler,
	monitorHandler MonitorStuckShipmentsHandler,
	retryBatchSize int,
	stuckThreshold time.Duration,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		crmSyncRetryJob:         NewCRMSyncRetryJob(retryHandler, retryBatchSize, logger),
		stuckShipmentMonitorJob: NewStuckShipmentMonitorJob(monitorHandler, stuckThreshold, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.crmSyncRetryJob.Start(); err != nil {
		return fmt.Errorf("failed to start CRM sync retry job: %w", err)
	}

	if err := jm.stuckShipmentMonitorJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.crmSyncRetryJob.Stop()
		return fmt.Errorf("failed to start stuck shipment monitor job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.stuckShipmentMonitorJob.Stop()
	jm.crmSyncRetryJob.Stop()
}
