package commands

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/core/ports"
)

// AdvanceIHStatusResult is the group's IH state after a successful transition.
type AdvanceIHStatusResult struct {
	Status     ihstatus.Status
	Version    int
	Carrier    ihstatus.Carrier
	Tracking   string
	Transition ihstatus.Transition
}

// AdvanceIHStatusCommandHandler applies an IH transition with optimistic
// concurrency, records the audit entry in the same transaction, then notifies
// staff and updates the CRM deal stage.
type AdvanceIHStatusCommandHandler struct {
	uowFactory ShipmentUoWFactory
	notifier   ports.Notifier
	deals      DealStatusUpdater
	logger     *slog.Logger
	now        func() time.Time
}

func NewAdvanceIHStatusCommandHandler(
	uowFactory ShipmentUoWFactory,
	notifier ports.Notifier,
	deals DealStatusUpdater,
	logger *slog.Logger,
) AdvanceIHStatusCommandHandler {
	return AdvanceIHStatusCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		deals:      deals,
		logger:     logger.With("component", "ih_status"),
		now:        time.Now,
	}
}

// Handle returns *ihstatus.InvalidTransitionError when a precondition is
// missing and ihstatus.ErrStaleState when another writer got there first.
func (h *AdvanceIHStatusCommandHandler) Handle(ctx context.Context, cmd AdvanceIHStatusCommand) (AdvanceIHStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return AdvanceIHStatusResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return AdvanceIHStatusResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.ShipmentRepository()
	group, err := repo.Get(ctx, cmd.GroupID())
	if err != nil {
		return AdvanceIHStatusResult{}, err
	}

	prevStatus, prevVersion := group.IH().Status(), group.IH().Version()
	tr, err := group.AdvanceIH(cmd.Target(), cmd.Meta(), cmd.Actor(), h.now())
	if err != nil {
		return AdvanceIHStatusResult{}, err
	}

	if err = repo.UpdateIH(ctx, group, prevStatus, prevVersion); err != nil {
		return AdvanceIHStatusResult{}, err
	}
	if err = repo.AppendTransition(ctx, group.ID(), tr); err != nil {
		return AdvanceIHStatusResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return AdvanceIHStatusResult{}, err
	}

	h.logger.InfoContext(ctx, "IH status advanced",
		"group_id", group.ID().String(), "order_number", group.OrderNumber().String(),
		"from", tr.From.String(), "to", tr.To.String(), "actor", tr.Actor)
	h.afterCommit(ctx, group, tr)

	ih := group.IH()
	return AdvanceIHStatusResult{
		Status:     ih.Status(),
		Version:    ih.Version(),
		Carrier:    ih.Carrier(),
		Tracking:   ih.TrackingNumber(),
		Transition: tr,
	}, nil
}

// afterCommit runs the side effects. Their failures are logged only; the
// transition is already durable.
func (h *AdvanceIHStatusCommandHandler) afterCommit(ctx context.Context, group *shipment.Group, tr ihstatus.Transition) {
	event := ports.IHStatusChanged{
		GroupID:     group.ID(),
		OrderNumber: group.OrderNumber().String(),
		Transition:  tr,
		Carrier:     group.IH().Carrier(),
		Tracking:    group.IH().TrackingNumber(),
	}
	if err := h.notifier.IHStatusChanged(ctx, event); err != nil {
		h.logger.WarnContext(ctx, "IH status notification failed", "group_id", group.ID().String(), "error", err)
	}
	if err := h.deals.UpdateDealStatus(ctx, group, tr.To); err != nil {
		h.logger.WarnContext(ctx, "CRM deal stage update failed", "group_id", group.ID().String(), "error", err)
	}
}
