package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/shipment"
)

// ProductCatalog is the server-side source of product master data.
// A missing SKU is reported as *errs.ObjectNotFoundError.
type ProductCatalog interface {
	Get(ctx context.Context, sku string) (cart.MasterData, error)
}

// FFLDirectory resolves a dealer id to its license details.
// A missing dealer is reported as *errs.ObjectNotFoundError.
type FFLDirectory interface {
	Lookup(ctx context.Context, fflID string) (shipment.FFLConsignee, error)
}

// PaymentOutcome is the opaque result of payment capture, produced before
// any group is processed.
type PaymentOutcome struct {
	Approved      bool
	TransactionID string
	AuthCode      string
}
