package jobs

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// MonitorStuckShipmentsHandler is satisfied by *commands.MonitorStuckShipmentsCommandHandler.
type MonitorStuckShipmentsHandler interface {
	Handle(ctx context.Context, cmd commands.MonitorStuckShipmentsCommand) (int, error)
}

// StuckShipmentMonitorJob alerts ops about IH groups that have waited too
// long in RECEIVED_FROM_RSR. Runs at the top of every hour.
type StuckShipmentMonitorJob struct {
	handler   MonitorStuckShipmentsHandler
	threshold time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

func NewStuckShipmentMonitorJob(
	handler MonitorStuckShipmentsHandler,
	threshold time.Duration,
	logger *slog.Logger,
) *StuckShipmentMonitorJob {
	if threshold <= 0 {
		threshold = commands.DefaultStuckThreshold
	}
	return &StuckShipmentMonitorJob{
		handler:   handler,
		threshold: threshold,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "stuck_shipment_monitor_job"),
	}
}

func (j *StuckShipmentMonitorJob) Start() error {
	_, err := j.cron.AddFunc("0 0 * * * *", func() {
		j.run(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Stuck shipment monitor job started (running hourly)",
		"threshold", j.threshold.String())
	return nil
}

func (j *StuckShipmentMonitorJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Stuck shipment monitor job stopped")
}

func (j *StuckShipmentMonitorJob) run(ctx context.Context) {
	cmd, err := commands.NewMonitorStuckShipmentsCommand(j.threshold)
	if err != nil {
		j.logger.ErrorContext(ctx, "Stuck shipment monitor command rejected", "error", err)
		return
	}

	n, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Stuck shipment monitor job failed", "error", err)
		return
	}
	if n > 0 {
		j.logger.WarnContext(ctx, "Stuck IH shipments found", "count", n)
	}
}
