package cart

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrItemIsNotConstructed = errors.New("cart item must be created via NewItem")

// Attributes are the product facts compliance rules are evaluated against.
type Attributes struct {
	IsFirearm          bool
	IsHandgun          bool
	IsMagazine         bool
	IsAmmo             bool
	HasAssaultFeatures bool
	Capacity           int
	ActionType         string
	RosterID           string
}

// ItemParams is the raw input for NewItem.
type ItemParams struct {
	ProductRef       string
	SKU              string
	Quantity         int
	UnitPrice        decimal.Decimal
	RequiresFFL      bool
	DropShipEligible bool
	Manufacturer     string
	Category         string
	UPC              string
	MPN              string
	Attributes       Attributes
}

// MasterData is the server-side truth for a product, used to override
// whatever flags a client put on the cart line.
type MasterData struct {
	RequiresFFL      bool
	DropShipEligible bool
	Manufacturer     string
	Category         string
	UPC              string
	MPN              string
	Attributes       Attributes
}

// Item is one immutable cart line.
type Item struct {
	productRef       string
	sku              string
	quantity         int
	unitPrice        decimal.Decimal
	requiresFFL      bool
	dropShipEligible bool
	manufacturer     string
	category         string
	upc              string
	mpn              string
	attributes       Attributes
	guard            guard.ConstructorGuard
}

// NewItem validates p and returns the cart line. MPN falls back to the SKU when empty.
func NewItem(p ItemParams) (Item, error) {
	item := Item{
		productRef:       strings.TrimSpace(p.ProductRef),
		sku:              strings.TrimSpace(p.SKU),
		quantity:         p.Quantity,
		unitPrice:        p.UnitPrice,
		requiresFFL:      p.RequiresFFL,
		dropShipEligible: p.DropShipEligible,
		manufacturer:     strings.TrimSpace(p.Manufacturer),
		category:         strings.TrimSpace(p.Category),
		upc:              strings.TrimSpace(p.UPC),
		mpn:              strings.TrimSpace(p.MPN),
		attributes:       p.Attributes,
	}
	if item.mpn == "" {
		item.mpn = item.sku
	}
	if err := errors.Join(
		item.validateSKU(),
		item.validateQuantity(),
		item.validatePrice(),
		item.validateCapacity(),
	); err != nil {
		return Item{}, err
	}
	item.guard = guard.NewConstructorGuard()
	return item, nil
}

func (i Item) validateSKU() error {
	if i.sku == "" {
		return errs.NewValueIsRequiredError("sku")
	}
	return nil
}

func (i Item) validateQuantity() error {
	if i.quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", i.quantity))
	}
	return nil
}

func (i Item) validatePrice() error {
	if i.unitPrice.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("unitPrice", fmt.Errorf("%s is negative", i.unitPrice))
	}
	return nil
}

func (i Item) validateCapacity() error {
	if i.attributes.Capacity < 0 {
		return errs.NewValueIsInvalidErrorWithCause("capacity", fmt.Errorf("%d is negative", i.attributes.Capacity))
	}
	return nil
}

func (i Item) Validate() error {
	return i.guard.Validate(ErrItemIsNotConstructed)
}

func (i Item) ProductRef() string { return i.productRef }
func (i Item) SKU() string { return i.sku }
func (i Item) Quantity() int { return i.quantity }
func (i Item) UnitPrice() decimal.Decimal { return i.unitPrice }
func (i Item) RequiresFFL() bool { return i.requiresFFL }
func (i Item) DropShipEligible() bool { return i.dropShipEligible }
func (i Item) Manufacturer() string { return i.manufacturer }
func (i Item) Category() string { return i.category }
func (i Item) UPC() string { return i.upc }
func (i Item) MPN() string { return i.mpn }
func (i Item) Attributes() Attributes { return i.attributes }

// LineTotal is unit price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.unitPrice.Mul(decimal.NewFromInt(int64(i.quantity)))
}

// WithMasterData returns a copy whose classification and compliance facts come
// from the catalog. Identity, quantity and price are kept.
func (i Item) WithMasterData(m MasterData) Item {
	out := i
	out.requiresFFL = m.RequiresFFL
	out.dropShipEligible = m.DropShipEligible
	out.attributes = m.Attributes
	if m.Manufacturer != "" {
		out.manufacturer = m.Manufacturer
	}
	if m.Category != "" {
		out.category = m.Category
	}
	if m.UPC != "" {
		out.upc = m.UPC
	}
	if m.MPN != "" {
		out.mpn = m.MPN
	}
	return out
}

// Params is the inverse of NewItem, used by persistence mapping.
func (i Item) Params() ItemParams {
	return ItemParams{
		ProductRef:       i.productRef,
		SKU:              i.sku,
		Quantity:         i.quantity,
		UnitPrice:        i.unitPrice,
		RequiresFFL:      i.requiresFFL,
		DropShipEligible: i.dropShipEligible,
		Manufacturer:     i.manufacturer,
		Category:         i.category,
		UPC:              i.upc,
		MPN:              i.mpn,
		Attributes:       i.attributes,
	}
}

// Total sums the line totals of items.
func Total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
