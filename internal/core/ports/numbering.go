package ports

import "context"

// SequenceCounter hands out main sequence numbers from a durable counter.
type SequenceCounter interface {
	// Claim returns the sequence bound to transactionID, drawing a new value
	// only on the first call for that transaction.
	Claim(ctx context.Context, transactionID string) (int64, error)

	// Reclaim rebinds transactionID to a fresh sequence value. Used once when
	// the claimed value produced numbers that already exist.
	Reclaim(ctx context.Context, transactionID string) (int64, error)
}

// OrderNumberRegistry checks minted numbers against persisted ones.
type OrderNumberRegistry interface {
	// TakenByOther reports whether any of numbers is stored for an order
	// with a different payment transaction.
	TakenByOther(ctx context.Context, numbers []string, transactionID string) (bool, error)
}
