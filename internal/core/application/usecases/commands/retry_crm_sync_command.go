package commands

import (
	"errors"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrRetryCRMSyncCommandIsNotConstructed = errors.New(
	"RetryCRMSyncCommand must be created via NewRetryCRMSyncCommand constructor",
)

// RetryCRMSyncCommand drains up to batchSize due tasks of the CRM retry queue.
type RetryCRMSyncCommand struct { //nolint:recvcheck //using for validation
	batchSize int

	guard guard.ConstructorGuard
}

func NewRetryCRMSyncCommand(batchSize int) (RetryCRMSyncCommand, error) {
	if batchSize <= 0 {
		return RetryCRMSyncCommand{}, errs.NewValueIsOutOfRangeError("batchSize", batchSize, 1, "unbounded")
	}
	return RetryCRMSyncCommand{batchSize: batchSize, guard: guard.NewConstructorGuard()}, nil
}

func (c RetryCRMSyncCommand) Validate() error {
	return c.guard.Validate(ErrRetryCRMSyncCommandIsNotConstructed)
}

func (c RetryCRMSyncCommand) BatchSize() int { return c.batchSize }
