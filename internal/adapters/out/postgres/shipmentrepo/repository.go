package shipmentrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormShipmentRepository implements ports.ShipmentRepository using GORM.
type GormShipmentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
	now     func() time.Time
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormShipmentRepository(db *gorm.DB, tracker aggregateTracker) *GormShipmentRepository {
	return &GormShipmentRepository{
		db:      db,
		tracker: tracker,
		now:     time.Now,
	}
}

// Get loads a group with its notes in creation order.
func (r *GormShipmentRepository) Get(ctx context.Context, id kernel.UUID) (*shipment.Group, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto GroupDTO
	err := r.db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at, id")
		}).
		First(&dto, "id = ?", id.Raw()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("groupId", id.String())
		}
		return nil, err
	}

	return ToDomain(dto)
}

// UpdateIH is a compare-and-set on (ih_status, ih_version). Zero affected rows
// means either the group is gone or somebody else moved it first.
func (r *GormShipmentRepository) UpdateIH(
	ctx context.Context,
	group *shipment.Group,
	expectedStatus ihstatus.Status,
	expectedVersion int,
) error {
	if err := group.Validate(); err != nil {
		return err
	}

	ih := group.IH()
	result := r.db.WithContext(ctx).
		Model(&GroupDTO{}).
		Where("id = ? AND ih_status = ? AND ih_version = ?", group.ID().Raw(), expectedStatus.String(), expectedVersion).
		Updates(map[string]any{
			"ih_status":     ih.Status().String(),
			"ih_carrier":    ih.Carrier().String(),
			"ih_tracking":   ih.TrackingNumber(),
			"ih_version":    ih.Version(),
			"ih_updated_at": r.now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&GroupDTO{}).Where("id = ?", group.ID().Raw()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("groupId", group.ID().String())
		}
		return fmt.Errorf("%w: group %s is no longer %s at version %d",
			ihstatus.ErrStaleState, group.ID(), expectedStatus, expectedVersion)
	}

	r.tracker.TrackAggregate(group.ID(), group)
	return nil
}

func (r *GormShipmentRepository) AppendNote(ctx context.Context, groupID kernel.UUID, note ihstatus.Note) error {
	dto := noteFromDomain(groupID, note)
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormShipmentRepository) AppendTransition(ctx context.Context, groupID kernel.UUID, transition ihstatus.Transition) error {
	dto := transitionFromDomain(groupID, transition)
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormShipmentRepository) SetDealID(ctx context.Context, groupID kernel.UUID, dealID string) error {
	if dealID == "" {
		return errs.NewValueIsRequiredError("dealId")
	}

	result := r.db.WithContext(ctx).
		Model(&GroupDTO{}).
		Where("id = ?", groupID.Raw()).
		Update("deal_id", dealID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("groupId", groupID.String())
	}
	return nil
}
