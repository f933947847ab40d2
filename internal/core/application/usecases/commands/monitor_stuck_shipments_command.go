package commands

import (
	"errors"
	"time"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrMonitorStuckShipmentsCommandIsNotConstructed = errors.New(
	"MonitorStuckShipmentsCommand must be created via NewMonitorStuckShipmentsCommand constructor",
)

// DefaultStuckThreshold is how long an IH group may sit in RECEIVED_FROM_RSR.
const DefaultStuckThreshold = 72 * time.Hour

// MonitorStuckShipmentsCommand alerts on IH groups received but not shipped
// for longer than threshold.
type MonitorStuckShipmentsCommand struct { //nolint:recvcheck //using for validation
	threshold time.Duration

	guard guard.ConstructorGuard
}

func NewMonitorStuckShipmentsCommand(threshold time.Duration) (MonitorStuckShipmentsCommand, error) {
	if threshold <= 0 {
		return MonitorStuckShipmentsCommand{}, errs.NewValueIsOutOfRangeError("threshold", threshold, "1ns", "unbounded")
	}
	return MonitorStuckShipmentsCommand{threshold: threshold, guard: guard.NewConstructorGuard()}, nil
}

func (c MonitorStuckShipmentsCommand) Validate() error {
	return c.guard.Validate(ErrMonitorStuckShipmentsCommandIsNotConstructed)
}

func (c MonitorStuckShipmentsCommand) Threshold() time.Duration { return c.threshold }
