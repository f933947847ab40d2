package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrCheckoutCommandIsNotConstructed = errors.New(
	"CheckoutCommand must be created via NewCheckoutCommand constructor",
)

// ShippingAddress is the customer's address as submitted. The state is kept
// raw so the compliance gate can fail closed on codes it does not know.
type ShippingAddress struct {
	Line1 string
	Line2 string
	City  string
	State string
	Zip   string
}

// CheckoutCommand turns a paid cart into a numbered, grouped order.
//
// Example:
//
//	cmd, err := NewCheckoutCommand(payment, "customer-17", items, shipTo, "ffl-42", false)
//	if err != nil {
//	    return fmt.Errorf("invalid checkout: %w", err)
//	}
//	result, err := handler.Handle(ctx, cmd)
type CheckoutCommand struct { //nolint:recvcheck //using for validation
	payment ports.PaymentOutcome
	actor   string
	items   []cart.Item
	shipTo  ShippingAddress
	fflID   string
	isTest  bool

	guard guard.ConstructorGuard
}

// NewCheckoutCommand validates the request shape. Product flags on items are
// not trusted; the handler re-derives them from the catalog.
func NewCheckoutCommand(
	payment ports.PaymentOutcome,
	actor string,
	items []cart.Item,
	shipTo ShippingAddress,
	fflID string,
	isTest bool,
) (CheckoutCommand, error) {
	c := CheckoutCommand{
		fflID:  strings.TrimSpace(fflID),
		isTest: isTest,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		c.setPayment(payment),
		c.setActor(actor),
		c.setItems(items),
		c.setShipTo(shipTo),
	); err != nil {
		return CheckoutCommand{}, err
	}

	return c, nil
}

func (c CheckoutCommand) Validate() error {
	return c.guard.Validate(ErrCheckoutCommandIsNotConstructed)
}

func (c CheckoutCommand) Payment() ports.PaymentOutcome { return c.payment }
func (c CheckoutCommand) TransactionID() string { return c.payment.TransactionID }
func (c CheckoutCommand) Actor() string { return c.actor }
func (c CheckoutCommand) Items() []cart.Item { return append([]cart.Item(nil), c.items...) }
func (c CheckoutCommand) ShipTo() ShippingAddress { return c.shipTo }
func (c CheckoutCommand) FFLID() string { return c.fflID }
func (c CheckoutCommand) IsTest() bool { return c.isTest }

func (c *CheckoutCommand) setPayment(p ports.PaymentOutcome) error {
	p.TransactionID = strings.TrimSpace(p.TransactionID)
	if p.TransactionID == "" {
		return errs.NewValueIsRequiredError("transactionId")
	}
	c.payment = p
	return nil
}

func (c *CheckoutCommand) setActor(actor string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return errs.NewValueIsRequiredError("actor")
	}
	c.actor = actor
	return nil
}

func (c *CheckoutCommand) setItems(items []cart.Item) error {
	if len(items) == 0 {
		return errs.NewValueIsRequiredError("items")
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	c.items = append([]cart.Item(nil), items...)
	return nil
}

func (c *CheckoutCommand) setShipTo(a ShippingAddress) error {
	var errList []error
	if strings.TrimSpace(a.Line1) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("shipTo.line1"))
	}
	if strings.TrimSpace(a.City) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("shipTo.city"))
	}
	if strings.TrimSpace(a.Zip) == "" {
		errList = append(errList, errs.NewValueIsRequiredError("shipTo.zip"))
	}
	if err := errors.Join(errList...); err != nil {
		return err
	}
	c.shipTo = a
	return nil
}
