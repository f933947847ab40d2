package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrAdvanceIHStatusCommandIsNotConstructed = errors.New(
	"AdvanceIHStatusCommand must be created via NewAdvanceIHStatusCommand constructor",
)

// AdvanceIHStatusCommand moves an IH_FFL group to the next custody status.
// Carrier and tracking are only read when the target needs them.
type AdvanceIHStatusCommand struct { //nolint:recvcheck //using for validation
	groupID kernel.UUID
	target  ihstatus.Status
	meta    ihstatus.Meta
	actor   string

	guard guard.ConstructorGuard
}

func NewAdvanceIHStatusCommand(
	groupID kernel.UUID,
	target ihstatus.Status,
	carrier, trackingNumber, actor string,
) (AdvanceIHStatusCommand, error) {
	c := AdvanceIHStatusCommand{
		meta:  ihstatus.Meta{Carrier: carrier, TrackingNumber: trackingNumber},
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setGroupID(groupID),
		c.setTarget(target),
		c.setActor(actor),
	); err != nil {
		return AdvanceIHStatusCommand{}, err
	}

	return c, nil
}

func (c AdvanceIHStatusCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceIHStatusCommandIsNotConstructed)
}

func (c AdvanceIHStatusCommand) GroupID() kernel.UUID { return c.groupID }
func (c AdvanceIHStatusCommand) Target() ihstatus.Status { return c.target }
func (c AdvanceIHStatusCommand) Meta() ihstatus.Meta { return c.meta }
func (c AdvanceIHStatusCommand) Actor() string { return c.actor }

func (c *AdvanceIHStatusCommand) setGroupID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	c.groupID = id
	return nil
}

func (c *AdvanceIHStatusCommand) setTarget(target ihstatus.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}
	if target == ihstatus.Unset {
		return errs.NewValueIsRequiredError("targetStatus")
	}
	c.target = target
	return nil
}

func (c *AdvanceIHStatusCommand) setActor(actor string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	c.actor = actor
	return nil
}
