package shipment

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/fulfillment"
	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/ordernumber"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrGroupIsNotConstructed = errors.New("shipment group must be created via NewGroup")

	// ErrNotIHFulfilled is returned when IH operations target a group that is not IH_FFL.
	ErrNotIHFulfilled = errors.New("IH status applies only to IH_FFL groups")

	ErrOrderNumberAlreadyAssigned = errors.New("order number is already assigned")
)

// Group is the set of cart lines that share one fulfillment path. It becomes
// one distributor order and one CRM deal.
type Group struct {
	id              kernel.UUID
	orderID         kernel.UUID
	index           int
	outcome         fulfillment.Outcome
	items           []cart.Item
	consignee       Consignee
	orderingAccount OrderingAccount
	orderNumber     ordernumber.OrderNumber
	dealID          string
	ih              *ihstatus.Tracker
	createdAt       time.Time
	isConstructed   bool
}

func NewGroup(
	orderID kernel.UUID,
	index int,
	outcome fulfillment.Outcome,
	items []cart.Item,
	consignee Consignee,
	account OrderingAccount,
	createdAt time.Time,
) (*Group, error) {
	g := &Group{
		id:              kernel.NewUUID(),
		orderID:         orderID,
		index:           index,
		outcome:         outcome,
		items:           append([]cart.Item(nil), items...),
		consignee:       consignee,
		orderingAccount: account,
		ih:              ihstatus.NewTracker(),
		createdAt:       createdAt.UTC(),
		isConstructed:   true,
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// RestoreGroup rebuilds a persisted group. orderNumber may be the zero value
// for groups that were never numbered.
func RestoreGroup(
	id, orderID kernel.UUID,
	index int,
	outcome fulfillment.Outcome,
	items []cart.Item,
	consignee Consignee,
	account OrderingAccount,
	orderNumber ordernumber.OrderNumber,
	dealID string,
	ih *ihstatus.Tracker,
	createdAt time.Time,
) (*Group, error) {
	g := &Group{
		id:              id,
		orderID:         orderID,
		index:           index,
		outcome:         outcome,
		items:           items,
		consignee:       consignee,
		orderingAccount: account,
		orderNumber:     orderNumber,
		dealID:          dealID,
		ih:              ih,
		createdAt:       createdAt,
		isConstructed:   true,
	}
	if ih == nil {
		g.ih = ihstatus.NewTracker()
	}
	if err := errors.Join(id.Validate(), g.validate()); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Group) validate() error {
	var errList []error
	errList = append(errList, g.orderID.Validate(), g.outcome.Validate())
	if g.index < 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("groupIndex", fmt.Errorf("%d is negative", g.index)))
	}
	if len(g.items) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("items"))
	}
	for _, it := range g.items {
		if err := it.Validate(); err != nil {
			errList = append(errList, err)
			continue
		}
		if got := fulfillment.Classify(it.RequiresFFL(), it.DropShipEligible()); got != g.outcome {
			errList = append(errList, fmt.Errorf("%w: item %s is %s, group is %s",
				fulfillment.ErrClassificationMismatch, it.SKU(), got, g.outcome))
		}
	}
	errList = append(errList, g.validateConsignee())
	if g.orderingAccount == "" {
		errList = append(errList, errs.NewValueIsRequiredError("orderingAccount"))
	}
	return errors.Join(errList...)
}

// validateConsignee enforces the consignee variant that matches the outcome.
func (g *Group) validateConsignee() error {
	if g.consignee == nil {
		return errs.NewValueIsRequiredError("consignee")
	}
	switch c := g.consignee.(type) {
	case FFLConsignee:
		if !g.outcome.RequiresFFL() {
			return errs.NewValueIsInvalidErrorWithCause("consignee", fmt.Errorf("%s group cannot ship to an FFL", g.outcome))
		}
		return c.Validate()
	case CustomerConsignee:
		if g.outcome.RequiresFFL() {
			return errs.NewValueIsInvalidErrorWithCause("consignee", fmt.Errorf("%s group must ship to an FFL", g.outcome))
		}
		return c.Validate()
	default:
		return errs.NewValueIsInvalidErrorWithCause("consignee", fmt.Errorf("unsupported consignee %T", c))
	}
}

func (g *Group) Validate() error {
	if g == nil || !g.isConstructed {
		return ErrGroupIsNotConstructed
	}
	return nil
}

func (g *Group) ID() kernel.UUID { return g.id }
func (g *Group) OrderID() kernel.UUID { return g.orderID }
func (g *Group) Index() int { return g.index }
func (g *Group) Outcome() fulfillment.Outcome { return g.outcome }
func (g *Group) Items() []cart.Item { return append([]cart.Item(nil), g.items...) }
func (g *Group) Consignee() Consignee { return g.consignee }
func (g *Group) OrderingAccount() OrderingAccount { return g.orderingAccount }
func (g *Group) OrderNumber() ordernumber.OrderNumber { return g.orderNumber }
func (g *Group) DealID() string { return g.dealID }
func (g *Group) IH() *ihstatus.Tracker { return g.ih }
func (g *Group) CreatedAt() time.Time { return g.createdAt }

// Total is the sum of the group's line totals.
func (g *Group) Total() decimal.Decimal {
	return cart.Total(g.items)
}

func (g *Group) IsNumbered() bool {
	return g.orderNumber.Validate() == nil
}

// AssignOrderNumber sets the number once. Numbers are immutable after minting.
func (g *Group) AssignOrderNumber(n ordernumber.OrderNumber) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if g.IsNumbered() {
		if g.orderNumber.IsEqual(n) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrOrderNumberAlreadyAssigned, g.orderNumber)
	}
	g.orderNumber = n
	return nil
}

// AttachDeal records the CRM deal id for this group.
func (g *Group) AttachDeal(dealID string) error {
	if dealID == "" {
		return errs.NewValueIsRequiredError("dealId")
	}
	g.dealID = dealID
	return nil
}

// AdvanceIH moves the IH custody status. Only IH_FFL groups have one, and an
// FFL group must still hold a valid consignee before it can complete.
func (g *Group) AdvanceIH(target ihstatus.Status, meta ihstatus.Meta, actor string, at time.Time) (ihstatus.Transition, error) {
	if g.outcome != fulfillment.IHFFL {
		return ihstatus.Transition{}, fmt.Errorf("%w: group %s is %s", ErrNotIHFulfilled, g.id, g.outcome)
	}
	if target == ihstatus.OrderComplete {
		if err := g.validateConsignee(); err != nil {
			return ihstatus.Transition{}, ihstatus.NewInvalidTransitionError(g.ih.Status(), target, "valid FFL consignee required")
		}
	}
	return g.ih.Advance(target, meta, actor, at)
}

// AddIHNote appends a staff note to an IH_FFL group.
func (g *Group) AddIHNote(text, author string, kind ihstatus.NoteKind, at time.Time) (ihstatus.Note, error) {
	if g.outcome != fulfillment.IHFFL {
		return ihstatus.Note{}, fmt.Errorf("%w: group %s is %s", ErrNotIHFulfilled, g.id, g.outcome)
	}
	n, err := ihstatus.NewNote(text, author, kind, at)
	if err != nil {
		return ihstatus.Note{}, err
	}
	g.ih.AddNote(n)
	return n, nil
}
