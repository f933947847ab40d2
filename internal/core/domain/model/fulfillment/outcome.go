package fulfillment

import (
	"errors"
	"fmt"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/pkg/errs"
)

// ErrClassificationMismatch signals an item that cannot be placed on a
// fulfillment path. It is an invariant violation and must never be defaulted.
var ErrClassificationMismatch = errors.New("classification mismatch")

// Outcome is the fulfillment path of a cart line.
//
//	requiresFFL dropShip  outcome
//	true        true      DS_FFL
//	true        false     IH_FFL
//	false       true      DS_CUSTOMER
//	false       false     IH_CUSTOMER
type Outcome int

const (
	Unknown Outcome = iota
	DSFFL
	IHFFL
	DSCustomer
	IHCustomer
)

var outcomeStrings = map[Outcome]string{
	DSFFL:      "DS_FFL",
	IHFFL:      "IH_FFL",
	DSCustomer: "DS_CUSTOMER",
	IHCustomer: "IH_CUSTOMER",
}

// Outcomes lists every valid outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{DSFFL, IHFFL, DSCustomer, IHCustomer}
}

// Classify is total over its inputs.
func Classify(requiresFFL, dropShipEligible bool) Outcome {
	switch {
	case requiresFFL && dropShipEligible:
		return DSFFL
	case requiresFFL:
		return IHFFL
	case dropShipEligible:
		return DSCustomer
	default:
		return IHCustomer
	}
}

// ClassifyItem classifies a constructed cart line.
func ClassifyItem(item cart.Item) (Outcome, error) {
	if err := item.Validate(); err != nil {
		return Unknown, fmt.Errorf("%w: %w", ErrClassificationMismatch, err)
	}
	return Classify(item.RequiresFFL(), item.DropShipEligible()), nil
}

// Parse is the inverse of String.
func Parse(s string) (Outcome, error) {
	for o, str := range outcomeStrings {
		if str == s {
			return o, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("outcome", fmt.Errorf("%q is not a fulfillment outcome", s))
}

func (o Outcome) String() string {
	if s, ok := outcomeStrings[o]; ok {
		return s
	}
	return "UNKNOWN"
}

func (o Outcome) Validate() error {
	if _, ok := outcomeStrings[o]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("outcome", fmt.Errorf("%d is not a valid outcome", o))
	}
	return nil
}

// RequiresFFL reports whether groups with this outcome ship to a licensed dealer.
func (o Outcome) RequiresFFL() bool {
	return o == DSFFL || o == IHFFL
}

// IsDropShip reports whether the distributor ships directly.
func (o Outcome) IsDropShip() bool {
	return o == DSFFL || o == DSCustomer
}
