package sequencerepo

import (
	"context"

	"gorm.io/gorm"
)

// GormOrderNumberRegistry implements ports.OrderNumberRegistry over
// shipment_groups joined to their order.
type GormOrderNumberRegistry struct {
	db *gorm.DB
}

func NewGormOrderNumberRegistry(db *gorm.DB) *GormOrderNumberRegistry {
	return &GormOrderNumberRegistry{db: db}
}

func (r *GormOrderNumberRegistry) TakenByOther(ctx context.Context, numbers []string, transactionID string) (bool, error) {
	if len(numbers) == 0 {
		return false, nil
	}

	var taken bool
	err := r.db.WithContext(ctx).Raw(`
		SELECT EXISTS (
			SELECT 1
			FROM shipment_groups g
			JOIN orders o ON o.id = g.order_id
			WHERE g.order_number IN ?
				AND o.transaction_id <> ?
		)
	`, numbers, transactionID).Scan(&taken).Error
	return taken, err
}
