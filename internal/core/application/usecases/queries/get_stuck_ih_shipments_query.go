package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrGetStuckIHShipmentsQueryIsNotConstructed = errors.New(
	"GetStuckIHShipmentsQuery must be created via NewGetStuckIHShipmentsQuery constructor",
)

// GetStuckIHShipmentsQuery lists IH_FFL groups that entered RECEIVED_FROM_RSR
// before receivedBefore and have not moved since.
type GetStuckIHShipmentsQuery struct {
	receivedBefore time.Time

	guard guard.ConstructorGuard
}

func NewGetStuckIHShipmentsQuery(receivedBefore time.Time) (GetStuckIHShipmentsQuery, error) {
	if receivedBefore.IsZero() {
		return GetStuckIHShipmentsQuery{}, errs.NewValueIsRequiredError("receivedBefore")
	}
	return GetStuckIHShipmentsQuery{receivedBefore: receivedBefore.UTC(), guard: guard.NewConstructorGuard()}, nil
}

func (q GetStuckIHShipmentsQuery) Validate() error {
	return q.guard.Validate(ErrGetStuckIHShipmentsQueryIsNotConstructed)
}

func (q GetStuckIHShipmentsQuery) ReceivedBefore() time.Time { return q.receivedBefore }

type GetStuckIHShipmentsQueryResponse struct {
	GroupID     kernel.UUID
	OrderNumber string
	FFLName     string
	FFLLicense  string
	ReceivedAt  time.Time
}
