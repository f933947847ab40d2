package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/shipment"
)

// ShipmentRepository defines persistence for individual shipment groups after
// checkout: IH custody status, notes and the CRM deal link.
type ShipmentRepository interface {
	// Get retrieves a group with its IH tracker and notes.
	Get(ctx context.Context, id kernel.UUID) (*shipment.Group, error)

	// UpdateIH writes the group's IH status, carrier, tracking and version,
	// conditioned on the stored row still holding expectedStatus and
	// expectedVersion. A mismatch returns ihstatus.ErrStaleState.
	UpdateIH(ctx context.Context, group *shipment.Group, expectedStatus ihstatus.Status, expectedVersion int) error

	// AppendNote inserts one note. Notes are never updated or deleted.
	AppendNote(ctx context.Context, groupID kernel.UUID, note ihstatus.Note) error

	// AppendTransition records the audit entry of an IH status change.
	AppendTransition(ctx context.Context, groupID kernel.UUID, transition ihstatus.Transition) error

	// SetDealID stores the CRM deal id of a group.
	SetDealID(ctx context.Context, groupID kernel.UUID, dealID string) error
}
