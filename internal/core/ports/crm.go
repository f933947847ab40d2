package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CRMErrorKind classifies a CRM failure for retry decisions.
type CRMErrorKind int

const (
	CRMUnavailable CRMErrorKind = iota
	CRMAuth
	CRMRateLimited
	CRMDuplicate
	CRMValidation
)

func (k CRMErrorKind) String() string {
	switch k {
	case CRMAuth:
		return "auth"
	case CRMRateLimited:
		return "rate_limited"
	case CRMDuplicate:
		return "duplicate"
	case CRMValidation:
		return "validation"
	default:
		return "unavailable"
	}
}

// CRMError is returned by CRMClient implementations.
type CRMError struct {
	Kind       CRMErrorKind
	StatusCode int
	Code       string
	Message    string
	// DuplicateID is the existing record id when the CRM reports it.
	DuplicateID string
}

func (e *CRMError) Error() string {
	return fmt.Sprintf("crm %s error (status %d, code %s): %s", e.Kind, e.StatusCode, e.Code, e.Message)
}

// CRMErrorKindOf extracts the kind of a CRM failure. Errors that are not
// CRMErrors (timeouts, dial failures) count as unavailable.
func CRMErrorKindOf(err error) CRMErrorKind {
	var ce *CRMError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return CRMUnavailable
}

// CRMProduct is the product record keyed by manufacturer part number.
type CRMProduct struct {
	MPN          string
	SKU          string
	Name         string
	Manufacturer string
	Category     string
	UPC          string
	UnitPrice    decimal.Decimal
	RequiresFFL  bool
}

// CRMDealLine references an upserted product; no product data is copied.
type CRMDealLine struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CRMDeal is one shipment group's record, keyed by its order number.
type CRMDeal struct {
	OrderNumber     string
	OrderStatus     string
	Outcome         string
	OrderingAccount string
	Amount          decimal.Decimal
	ConsigneeName   string
	FFLLicense      string
	ShipState       string
	IsTest          bool
	Lines           []CRMDealLine
}

// CRMClient is the raw CRM API. Implementations do not retry.
type CRMClient interface {
	// SearchProductByMPN returns the product id, or "" when none matches.
	SearchProductByMPN(ctx context.Context, mpn string) (string, error)
	CreateProduct(ctx context.Context, product CRMProduct) (string, error)
	// UpsertDeal creates or updates the deal whose order number matches.
	UpsertDeal(ctx context.Context, deal CRMDeal) (string, error)
	// UpdateDealStatus partially updates an existing deal.
	UpdateDealStatus(ctx context.Context, dealID, status string) error
	// RefreshAuth obtains a new access token.
	RefreshAuth(ctx context.Context) error
}

// ProductIDCache remembers mpn -> product id to absorb bursts of upserts.
type ProductIDCache interface {
	Get(ctx context.Context, mpn string) (string, bool, error)
	Set(ctx context.Context, mpn, productID string) error
}
