package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts the order header and all of its groups. Only numbered orders
// are stored.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	if aggregate.MainSequence() == 0 {
		return errs.NewValueIsRequiredError("mainSequence")
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if r.isDuplicateKey(err) {
			return fmt.Errorf("%w: transaction %s: %w", ports.ErrDuplicateOrder, aggregate.TransactionID(), err)
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order with its groups by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := r.withGroups(ctx).First(&dto, "id = ?", id.Raw()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetByTransactionID finds the order a payment transaction already produced.
func (r *GormOrderRepository) GetByTransactionID(ctx context.Context, transactionID string) (*order.Order, error) {
	if transactionID == "" {
		return nil, errs.NewValueIsRequiredError("transactionId")
	}

	var dto OrderDTO
	if err := r.withGroups(ctx).First(&dto, "transaction_id = ?", transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("transactionId", transactionID)
		}
		return nil, err
	}

	return toDomain(dto)
}

// isDuplicateKey reports a unique violation, translating driver errors when
// the dialector supports it.
func (r *GormOrderRepository) isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if t, ok := r.db.Dialector.(gorm.ErrorTranslator); ok {
		return errors.Is(t.Translate(err), gorm.ErrDuplicatedKey)
	}
	return false
}

func (r *GormOrderRepository) withGroups(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("group_index")
		}).
		Preload("Groups.Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at, id")
		})
}
