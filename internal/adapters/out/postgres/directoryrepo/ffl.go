package directoryrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// DealerDTO is one row of ffl_directory.
type DealerDTO struct {
	ID               string     `gorm:"type:varchar(64);primaryKey"`
	LicenseNumber    string     `gorm:"type:varchar(32);uniqueIndex"`
	BusinessName     string     `gorm:"type:varchar(255)"`
	Line1            string     `gorm:"column:line1;type:varchar(255)"`
	Line2            string     `gorm:"column:line2;type:varchar(255)"`
	City             string     `gorm:"type:varchar(128)"`
	State            string     `gorm:"type:char(2)"`
	Zip              string     `gorm:"type:varchar(16)"`
	LicenseExpiresAt *time.Time
}

func (DealerDTO) TableName() string {
	return "ffl_directory"
}

// GormFFLDirectory implements ports.FFLDirectory.
type GormFFLDirectory struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormFFLDirectory(db *gorm.DB) *GormFFLDirectory {
	return &GormFFLDirectory{db: db, now: time.Now}
}

// Lookup resolves a dealer. A dealer whose license has expired cannot
// receive shipments and is reported as invalid.
func (d *GormFFLDirectory) Lookup(ctx context.Context, fflID string) (shipment.FFLConsignee, error) {
	fflID = strings.TrimSpace(fflID)
	if fflID == "" {
		return shipment.FFLConsignee{}, errs.NewValueIsRequiredError("fflId")
	}

	var dto DealerDTO
	if err := d.db.WithContext(ctx).First(&dto, "id = ?", fflID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shipment.FFLConsignee{}, errs.NewObjectNotFoundError("fflId", fflID)
		}
		return shipment.FFLConsignee{}, err
	}

	if dto.LicenseExpiresAt != nil && !dto.LicenseExpiresAt.After(d.now()) {
		return shipment.FFLConsignee{}, errs.NewValueIsInvalidErrorWithCause("fflId",
			fmt.Errorf("license %s expired on %s", dto.LicenseNumber, dto.LicenseExpiresAt.Format(time.DateOnly)))
	}

	addr, err := kernel.NewAddress(dto.Line1, dto.Line2, dto.City, dto.State, dto.Zip)
	if err != nil {
		return shipment.FFLConsignee{}, err
	}
	return shipment.NewFFLConsignee(dto.LicenseNumber, dto.BusinessName, addr)
}
