package queries

import (
	"context"
	"database/sql"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetShipmentGroupQueryHandler reads a group straight from the tables,
// bypassing the aggregate.
type GetShipmentGroupQueryHandler struct {
	db *gorm.DB
}

func NewGetShipmentGroupQueryHandler(db *gorm.DB) GetShipmentGroupQueryHandler {
	return GetShipmentGroupQueryHandler{db: db}
}

func (h GetShipmentGroupQueryHandler) Handle(
	ctx context.Context,
	query GetShipmentGroupQuery,
) (GetShipmentGroupQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetShipmentGroupQueryResponse{}, err
	}

	var (
		resp             GetShipmentGroupQueryResponse
		id, orderID      uuid.UUID
		total            decimal.Decimal
		dealID, carrier  *string
		tracking, status *string
	)
	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_id,
			group_index,
			outcome,
			order_number,
			ordering_account,
			total,
			deal_id,
			ih_status,
			ih_carrier,
			ih_tracking,
			ih_version
		FROM shipment_groups
		WHERE id = ?
	`, query.GroupID().Raw()).Row()
	err := row.Scan(
		&id,
		&orderID,
		&resp.Index,
		&resp.Outcome,
		&resp.OrderNumber,
		&resp.OrderingAccount,
		&total,
		&dealID,
		&status,
		&carrier,
		&tracking,
		&resp.IHVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return GetShipmentGroupQueryResponse{}, errs.NewObjectNotFoundError("groupId", query.GroupID().String())
	}
	if err != nil {
		return GetShipmentGroupQueryResponse{}, err
	}

	if resp.ID, err = kernel.UUIDFromString(id.String()); err != nil {
		return GetShipmentGroupQueryResponse{}, err
	}
	if resp.OrderID, err = kernel.UUIDFromString(orderID.String()); err != nil {
		return GetShipmentGroupQueryResponse{}, err
	}
	resp.Total = total
	resp.DealID = deref(dealID)
	resp.IHStatus = deref(status)
	resp.IHCarrier = deref(carrier)
	resp.IHTracking = deref(tracking)

	notes, err := h.notes(ctx, query.GroupID())
	if err != nil {
		return GetShipmentGroupQueryResponse{}, err
	}
	resp.Notes = notes
	return resp, nil
}

func (h GetShipmentGroupQueryHandler) notes(ctx context.Context, groupID kernel.UUID) ([]NoteResponse, error) {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT id, text, author, kind, created_at
		FROM ih_notes
		WHERE group_id = ?
		ORDER BY created_at, id
	`, groupID.Raw()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]NoteResponse, 0)
	for rows.Next() {
		var (
			n  NoteResponse
			id uuid.UUID
		)
		if err = rows.Scan(&id, &n.Text, &n.Author, &n.Kind, &n.CreatedAt); err != nil {
			return nil, err
		}
		if n.ID, err = kernel.UUIDFromString(id.String()); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
