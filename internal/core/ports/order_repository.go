// Package ports defines the contracts between the fulfillment core and its
// adapters: persistence, external directories, the CRM, the rules engine and
// notification channels.
package ports

import (
	"context"
	"errors"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
)

// ErrDuplicateOrder is returned by Add when an order already exists for the
// same payment transaction or order number.
var ErrDuplicateOrder = errors.New("order already exists")

// OrderRepository defines the persistence contract for order aggregates.
// Add stores the header and all of its shipment groups.
type OrderRepository interface {
	// Add persists a new order together with its groups.
	// The order must be valid, numbered and not already exist. A unique
	// violation is reported as ErrDuplicateOrder.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order with its groups by identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByTransactionID returns the order already created for a payment
	// transaction, or an ObjectNotFoundError. Used to make checkout retries safe.
	GetByTransactionID(ctx context.Context, transactionID string) (*order.Order, error)
}
