package queries

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/fulfillment"
	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetStuckIHShipmentsQueryHandler finds IH shipments waiting too long in
// RECEIVED_FROM_RSR. Results are ordered oldest first.
type GetStuckIHShipmentsQueryHandler struct {
	db *gorm.DB
}

func NewGetStuckIHShipmentsQueryHandler(db *gorm.DB) GetStuckIHShipmentsQueryHandler {
	return GetStuckIHShipmentsQueryHandler{db: db}
}

func (h GetStuckIHShipmentsQueryHandler) Handle(
	ctx context.Context,
	query GetStuckIHShipmentsQuery,
) ([]GetStuckIHShipmentsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			order_number,
			consignee_business_name,
			consignee_license,
			ih_updated_at
		FROM shipment_groups
		WHERE outcome = ?
			AND ih_status = ?
			AND ih_updated_at < ?
		ORDER BY ih_updated_at, id
	`, fulfillment.IHFFL.String(), ihstatus.ReceivedFromRSR.String(), query.ReceivedBefore()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stuck := make([]GetStuckIHShipmentsQueryResponse, 0)
	for rows.Next() {
		var (
			resp       GetStuckIHShipmentsQueryResponse
			id         uuid.UUID
			receivedAt time.Time
		)
		if err = rows.Scan(&id, &resp.OrderNumber, &resp.FFLName, &resp.FFLLicense, &receivedAt); err != nil {
			return nil, err
		}
		if resp.GroupID, err = kernel.UUIDFromString(id.String()); err != nil {
			return nil, err
		}
		resp.ReceivedAt = receivedAt.UTC()
		stuck = append(stuck, resp)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	return stuck, nil
}
