// Package jobs provides scheduled background tasks for the fulfillment service.
//
// Jobs are cron-based (github.com/robfig/cron/v3, seconds precision) and only
// translate a tick into an application command.
//
// # Available Jobs
//
// 1. CRMSyncRetryJob - every 30 seconds drains due tasks of the CRM retry queue
// 2. StuckShipmentMonitorJob - hourly raises one ops alert for IH groups stuck in RECEIVED_FROM_RSR
//
// # Usage
//
//	jobManager := jobs.NewJobManager(retryHandler, monitorHandler, 25, 72*time.Hour, logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - Handler errors are logged and the next tick tries again
// - The retry job skips a tick while the previous drain is still running
// - Failed job starts will stop any already running jobs
package jobs
