package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/ports"
)

// StuckShipmentsLister is satisfied by queries.GetStuckIHShipmentsQueryHandler.
type StuckShipmentsLister interface {
	Handle(ctx context.Context, q queries.GetStuckIHShipmentsQuery) ([]queries.GetStuckIHShipmentsQueryResponse, error)
}

// MonitorStuckShipmentsCommandHandler raises one ops alert listing every
// stuck IH group. Nothing is raised when no group is stuck.
type MonitorStuckShipmentsCommandHandler struct {
	lister  StuckShipmentsLister
	alerter ports.OpsAlerter
	logger  *slog.Logger
	now     func() time.Time
}

func NewMonitorStuckShipmentsCommandHandler(
	lister StuckShipmentsLister,
	alerter ports.OpsAlerter,
	logger *slog.Logger,
) MonitorStuckShipmentsCommandHandler {
	return MonitorStuckShipmentsCommandHandler{
		lister:  lister,
		alerter: alerter,
		logger:  logger.With("component", "ih_monitor"),
		now:     time.Now,
	}
}

// Handle returns the number of stuck groups found.
func (h *MonitorStuckShipmentsCommandHandler) Handle(ctx context.Context, cmd MonitorStuckShipmentsCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	now := h.now()
	q, err := queries.NewGetStuckIHShipmentsQuery(now.Add(-cmd.Threshold()))
	if err != nil {
		return 0, err
	}
	stuck, err := h.lister.Handle(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(stuck) == 0 {
		return 0, nil
	}

	lines := make([]string, 0, len(stuck))
	for _, s := range stuck {
		lines = append(lines, fmt.Sprintf("%s received %s (%s)",
			s.OrderNumber, s.ReceivedAt.UTC().Format(time.RFC3339), now.Sub(s.ReceivedAt).Truncate(time.Hour)))
	}
	alert := ports.Alert{
		Kind:    "ih_stuck",
		Subject: fmt.Sprintf("%d IH shipments waiting to ship for more than %s", len(stuck), cmd.Threshold()),
		Detail:  strings.Join(lines, "\n"),
		At:      now.UTC(),
	}
	if err = h.alerter.Alert(ctx, alert); err != nil {
		return len(stuck), err
	}
	h.logger.WarnContext(ctx, "Stuck IH shipments found", "count", len(stuck))
	return len(stuck), nil
}
