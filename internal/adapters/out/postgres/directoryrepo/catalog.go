// Package directoryrepo reads the reference data checkout depends on: product
// master data and the FFL dealer directory.
package directoryrepo

import (
	"context"
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/pkg/errs"

	"gorm.io/gorm"
)

// ProductDTO is one row of product_catalog.
type ProductDTO struct {
	SKU              string          `gorm:"type:varchar(64);primaryKey"`
	RequiresFFL      bool            `gorm:"column:requires_ffl"`
	DropShipEligible bool
	Manufacturer     string          `gorm:"type:varchar(128)"`
	Category         string          `gorm:"type:varchar(64)"`
	UPC              string          `gorm:"column:upc;type:varchar(32)"`
	MPN              string          `gorm:"column:mpn;type:varchar(64);index"`
	Attributes       cart.Attributes `gorm:"type:jsonb;serializer:json"`
}

func (ProductDTO) TableName() string {
	return "product_catalog"
}

// GormProductCatalog implements ports.ProductCatalog.
type GormProductCatalog struct {
	db *gorm.DB
}

func NewGormProductCatalog(db *gorm.DB) *GormProductCatalog {
	return &GormProductCatalog{db: db}
}

func (c *GormProductCatalog) Get(ctx context.Context, sku string) (cart.MasterData, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return cart.MasterData{}, errs.NewValueIsRequiredError("sku")
	}

	var dto ProductDTO
	if err := c.db.WithContext(ctx).First(&dto, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart.MasterData{}, errs.NewObjectNotFoundError("sku", sku)
		}
		return cart.MasterData{}, err
	}

	return cart.MasterData{
		RequiresFFL:      dto.RequiresFFL,
		DropShipEligible: dto.DropShipEligible,
		Manufacturer:     dto.Manufacturer,
		Category:         dto.Category,
		UPC:              dto.UPC,
		MPN:              dto.MPN,
		Attributes:       dto.Attributes,
	}, nil
}
