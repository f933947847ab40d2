// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models for specific use cases.
package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrGetShipmentGroupQueryIsNotConstructed = errors.New(
	"GetShipmentGroupQuery must be created via NewGetShipmentGroupQuery constructor",
)

// GetShipmentGroupQuery reads one shipment group with its IH state and notes.
type GetShipmentGroupQuery struct {
	groupID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetShipmentGroupQuery(groupID kernel.UUID) (GetShipmentGroupQuery, error) {
	if err := groupID.Validate(); err != nil {
		return GetShipmentGroupQuery{}, err
	}
	return GetShipmentGroupQuery{groupID: groupID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetShipmentGroupQuery) Validate() error {
	return q.guard.Validate(ErrGetShipmentGroupQueryIsNotConstructed)
}

func (q GetShipmentGroupQuery) GroupID() kernel.UUID { return q.groupID }

// GetShipmentGroupQueryResponse is the staff-facing view of a group.
type GetShipmentGroupQueryResponse struct {
	ID              kernel.UUID
	OrderID         kernel.UUID
	Index           int
	Outcome         string
	OrderNumber     string
	OrderingAccount string
	Total           decimal.Decimal
	DealID          string
	IHStatus        string
	IHCarrier       string
	IHTracking      string
	IHVersion       int
	Notes           []NoteResponse
}

type NoteResponse struct {
	ID        kernel.UUID
	Text      string
	Author    string
	Kind      string
	CreatedAt time.Time
}
