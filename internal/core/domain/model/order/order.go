package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/ordernumber"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrTotalMismatch is returned when the groups do not add up to the cart total.
	ErrTotalMismatch = errors.New("sum of group totals does not equal order total")
)

// Order is the header of one physical checkout. It is the aggregate root over
// the shipment groups the cart was split into.
//
// Order follows these invariants:
//   - Must have a valid identifier and a non-empty payment transaction id
//   - Holds at least one group, indexed 0..n-1 in first-appearance order
//   - Every group belongs to this order
//   - The sum of group totals equals the cart total
//   - Once numbered, every group carries the order's main sequence
type Order struct {
	// id is the unique identifier for the order
	id kernel.UUID
	// transactionID is the payment transaction this checkout belongs to; it keys minting idempotency
	transactionID string
	// mainSequence is the durable counter value shared by all groups (0 until minted)
	mainSequence int64
	// isTest marks sandbox orders; they are numbered and routed separately
	isTest bool
	// shipState is the destination state the cart was gated against
	shipState kernel.StateCode
	// total is the cart total
	total decimal.Decimal
	// groups are the shipment groups in index order
	groups []*shipment.Group
	// createdAt is the checkout time
	createdAt time.Time
	// isConstructed ensures the order was created via NewOrder
	isConstructed bool
}

// NewOrder creates the header for a grouped cart.
//
// Parameters:
//   - id: order identifier; groups must have been created with the same id
//   - transactionID: payment transaction id
//   - isTest: sandbox flag
//   - shipState: destination state
//   - cartTotal: the sum of all cart line totals
//   - groups: the output of the shipment grouper
//
// Returns an error joining every violated invariant.
func NewOrder(
	id kernel.UUID,
	transactionID string,
	isTest bool,
	shipState kernel.StateCode,
	cartTotal decimal.Decimal,
	groups []*shipment.Group,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		isTest:        isTest,
		createdAt:     createdAt.UTC(),
		isConstructed: true,
	}
	if err := errors.Join(
		o.setID(id),
		o.setTransactionID(transactionID),
		o.setShipState(shipState),
		o.setGroups(id, groups),
	); err != nil {
		return nil, err
	}
	if err := o.setTotal(cartTotal); err != nil {
		return nil, err
	}
	return o, nil
}

// RestoreOrder rebuilds an order from persistence.
func RestoreOrder(
	id kernel.UUID,
	transactionID string,
	mainSequence int64,
	isTest bool,
	shipState kernel.StateCode,
	total decimal.Decimal,
	groups []*shipment.Group,
	createdAt time.Time,
) (*Order, error) {
	o, err := NewOrder(id, transactionID, isTest, shipState, total, groups, createdAt)
	if err != nil {
		return nil, err
	}
	o.mainSequence = mainSequence
	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by their unique identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) TransactionID() string {
	return o.transactionID
}

// MainSequence returns 0 until the order has been numbered.
func (o *Order) MainSequence() int64 {
	return o.mainSequence
}

func (o *Order) IsTest() bool {
	return o.isTest
}

func (o *Order) ShipState() kernel.StateCode {
	return o.shipState
}

func (o *Order) Total() decimal.Decimal {
	return o.total
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// Groups returns the shipment groups in index order.
func (o *Order) Groups() []*shipment.Group {
	return append([]*shipment.Group(nil), o.groups...)
}

// AssignNumbers applies minted numbers to the groups, in index order.
//
// Business rules:
//   - One number per group
//   - All numbers share one main sequence and the order's test flag
//   - An order is numbered once
func (o *Order) AssignNumbers(numbers []ordernumber.OrderNumber) error {
	if len(numbers) != len(o.groups) {
		return errs.NewValueIsInvalidErrorWithCause("orderNumbers",
			fmt.Errorf("%d numbers for %d groups", len(numbers), len(o.groups)))
	}
	main := numbers[0].MainSequence()
	for _, n := range numbers {
		if n.MainSequence() != main || n.IsTest() != o.isTest {
			return errs.NewValueIsInvalidErrorWithCause("orderNumbers",
				fmt.Errorf("%s does not belong to sequence %d (test=%t)", n, main, o.isTest))
		}
	}
	if o.mainSequence != 0 && o.mainSequence != main {
		return fmt.Errorf("%w: order already numbered with %d", shipment.ErrOrderNumberAlreadyAssigned, o.mainSequence)
	}
	for i, g := range o.groups {
		if err := g.AssignOrderNumber(numbers[i]); err != nil {
			return err
		}
	}
	o.mainSequence = main
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setTransactionID(transactionID string) error {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return errs.NewValueIsRequiredError("transactionId")
	}
	o.transactionID = transactionID
	return nil
}

func (o *Order) setShipState(state kernel.StateCode) error {
	if err := state.Validate(); err != nil {
		return err
	}
	o.shipState = state
	return nil
}

// setGroups checks ownership and contiguous indexes.
func (o *Order) setGroups(id kernel.UUID, groups []*shipment.Group) error {
	if len(groups) == 0 {
		return errs.NewValueIsRequiredError("groups")
	}
	var errList []error
	for i, g := range groups {
		if err := g.Validate(); err != nil {
			errList = append(errList, err)
			continue
		}
		if !g.OrderID().IsEqual(id) {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("groups",
				fmt.Errorf("group %s belongs to order %s", g.ID(), g.OrderID())))
		}
		if g.Index() != i {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("groups",
				fmt.Errorf("group at position %d has index %d", i, g.Index())))
		}
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}
	o.groups = append([]*shipment.Group(nil), groups...)
	return nil
}

// setTotal enforces that no value was lost or duplicated while grouping.
func (o *Order) setTotal(cartTotal decimal.Decimal) error {
	sum := decimal.Zero
	for _, g := range o.groups {
		sum = sum.Add(g.Total())
	}
	if !sum.Equal(cartTotal) {
		return fmt.Errorf("%w: groups sum to %s, cart total is %s", ErrTotalMismatch, sum, cartTotal)
	}
	o.total = cartTotal
	return nil
}
