package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fulfillment/internal/core/domain/model/ordernumber"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

// ErrNumberMintCollision means the minted numbers already belong to another
// order even after one retry. A duplicate number is never emitted.
var ErrNumberMintCollision = errors.New("order number mint collision")

// Minted is the result of numbering one physical order.
type Minted struct {
	MainSequence int64
	PerGroup     []ordernumber.OrderNumber
}

// OrderNumberMinter turns the durable counter into per-group order numbers.
//
// Minting is idempotent per payment transaction: the counter binds the
// transaction to its sequence, so retries get the same numbers back.
type OrderNumberMinter struct {
	counter  ports.SequenceCounter
	registry ports.OrderNumberRegistry
	logger   *slog.Logger
}

func NewOrderNumberMinter(counter ports.SequenceCounter, registry ports.OrderNumberRegistry, logger *slog.Logger) *OrderNumberMinter {
	return &OrderNumberMinter{
		counter:  counter,
		registry: registry,
		logger:   logger.With("component", "order_number_minter"),
	}
}

// Mint numbers groupCount groups for transactionID.
func (m *OrderNumberMinter) Mint(ctx context.Context, transactionID string, groupCount int, isTest bool) (Minted, error) {
	if transactionID == "" {
		return Minted{}, errs.NewValueIsRequiredError("transactionId")
	}

	seq, err := m.counter.Claim(ctx, transactionID)
	if err != nil {
		return Minted{}, fmt.Errorf("claim main sequence: %w", err)
	}
	minted, collided, err := m.numbersFor(ctx, transactionID, seq, groupCount, isTest)
	if err != nil || !collided {
		return minted, err
	}

	m.logger.WarnContext(ctx, "Order number collision, reclaiming sequence",
		"transaction_id", transactionID, "main_sequence", seq)
	seq, err = m.counter.Reclaim(ctx, transactionID)
	if err != nil {
		return Minted{}, fmt.Errorf("reclaim main sequence: %w", err)
	}
	minted, collided, err = m.numbersFor(ctx, transactionID, seq, groupCount, isTest)
	if err != nil {
		return Minted{}, err
	}
	if collided {
		return Minted{}, fmt.Errorf("%w: sequence %d for transaction %s", ErrNumberMintCollision, seq, transactionID)
	}
	return minted, nil
}

func (m *OrderNumberMinter) numbersFor(
	ctx context.Context,
	transactionID string,
	seq int64,
	groupCount int,
	isTest bool,
) (Minted, bool, error) {
	numbers, err := ordernumber.ForGroups(seq, groupCount, isTest)
	if err != nil {
		return Minted{}, false, err
	}
	keys := make([]string, 0, len(numbers))
	for _, n := range numbers {
		keys = append(keys, n.String())
	}
	taken, err := m.registry.TakenByOther(ctx, keys, transactionID)
	if err != nil {
		return Minted{}, false, fmt.Errorf("check order numbers: %w", err)
	}
	if taken {
		return Minted{}, true, nil
	}
	return Minted{MainSequence: seq, PerGroup: numbers}, false, nil
}
