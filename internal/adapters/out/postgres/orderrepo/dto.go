// Package orderrepo persists order headers. The shipment groups of an order
// live in shipment_groups and are written and loaded through shipmentrepo's
// mapping.
package orderrepo

import (
	"time"

	"fulfillment/internal/adapters/out/postgres/shipmentrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/shipment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO is one row of orders. TransactionID is unique so a replayed
// checkout cannot create a second order for the same payment.
type OrderDTO struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TransactionID string          `gorm:"type:varchar(64);uniqueIndex"`
	MainSequence  int64           `gorm:"index"`
	IsTest        bool
	ShipState     string          `gorm:"type:char(2)"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2)"`
	CreatedAt     time.Time
	Groups        []shipmentrepo.GroupDTO `gorm:"foreignKey:OrderID"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	groups := make([]shipmentrepo.GroupDTO, 0, len(o.Groups()))
	for _, g := range o.Groups() {
		groups = append(groups, shipmentrepo.FromDomain(g))
	}

	return OrderDTO{
		ID:            o.ID().Raw(),
		TransactionID: o.TransactionID(),
		MainSequence:  o.MainSequence(),
		IsTest:        o.IsTest(),
		ShipState:     o.ShipState().String(),
		Total:         o.Total(),
		CreatedAt:     o.CreatedAt(),
		Groups:        groups,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromString(dto.ID.String())
	if err != nil {
		return nil, err
	}

	groups := make([]*shipment.Group, 0, len(dto.Groups))
	for _, g := range dto.Groups {
		group, groupErr := shipmentrepo.ToDomain(g)
		if groupErr != nil {
			return nil, groupErr
		}
		groups = append(groups, group)
	}

	return order.RestoreOrder(
		id,
		dto.TransactionID,
		dto.MainSequence,
		dto.IsTest,
		kernel.StateCode(dto.ShipState),
		dto.Total,
		groups,
		dto.CreatedAt,
	)
}
