package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
)

// IHStatusChanged describes a transition for downstream notification.
type IHStatusChanged struct {
	GroupID     kernel.UUID
	OrderNumber string
	Transition  ihstatus.Transition
	Carrier     ihstatus.Carrier
	Tracking    string
}

// Notifier delivers IH status notifications. Failures are logged, not propagated.
type Notifier interface {
	IHStatusChanged(ctx context.Context, event IHStatusChanged) error
}

// Alert is a message to the operations channel.
type Alert struct {
	Kind    string
	Subject string
	Detail  string
	At      time.Time
}

type OpsAlerter interface {
	Alert(ctx context.Context, alert Alert) error
}
