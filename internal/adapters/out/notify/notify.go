package notify

import (
	"context"
	"log/slog"

	"fulfillment/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ihNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_ih_notifications_total",
		Help: "IH status change notifications emitted, by target status",
	}, []string{"status"})

	opsAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillment_ops_alerts_total",
		Help: "Operations alerts raised, by kind",
	}, []string{"kind"})
)

// LogNotifier writes IH status changes to the structured log, where the
// shipping desk's log pipeline picks them up.
type LogNotifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "ih_notifier")}
}

func (n *LogNotifier) IHStatusChanged(ctx context.Context, event ports.IHStatusChanged) error {
	ihNotifications.WithLabelValues(event.Transition.To.String()).Inc()
	n.logger.InfoContext(ctx, "IH status changed",
		"group_id", event.GroupID.String(),
		"order_number", event.OrderNumber,
		"from", event.Transition.From.String(),
		"to", event.Transition.To.String(),
		"actor", event.Transition.Actor,
		"carrier", event.Carrier.String(),
		"tracking", event.Tracking,
	)
	return nil
}

// LogAlerter raises operations alerts as error-level log records.
type LogAlerter struct {
	logger *slog.Logger
}

var _ ports.OpsAlerter = (*LogAlerter)(nil)

func NewLogAlerter(logger *slog.Logger) *LogAlerter {
	return &LogAlerter{logger: logger.With("component", "ops_alerter")}
}

func (a *LogAlerter) Alert(ctx context.Context, alert ports.Alert) error {
	opsAlerts.WithLabelValues(alert.Kind).Inc()
	a.logger.ErrorContext(ctx, alert.Subject,
		"alert_kind", alert.Kind,
		"detail", alert.Detail,
		"at", alert.At,
	)
	return nil
}
