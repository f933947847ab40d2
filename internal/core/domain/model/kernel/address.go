package kernel

import (
	"errors"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrAddressIsNotConstructed = errors.New("address must be created via NewAddress")

// Address is a postal destination. Line2 is optional.
type Address struct {
	line1 string
	line2 string
	city  string
	state StateCode
	zip   string
	guard guard.ConstructorGuard
}

func NewAddress(line1, line2, city, state, zip string) (Address, error) {
	a := Address{
		line1: strings.TrimSpace(line1),
		line2: strings.TrimSpace(line2),
		city:  strings.TrimSpace(city),
		zip:   strings.TrimSpace(zip),
	}
	code, stateErr := ParseStateCode(state)
	a.state = code

	var errList []error
	if a.line1 == "" {
		errList = append(errList, errs.NewValueIsRequiredError("address.line1"))
	}
	if a.city == "" {
		errList = append(errList, errs.NewValueIsRequiredError("address.city"))
	}
	if a.zip == "" {
		errList = append(errList, errs.NewValueIsRequiredError("address.zip"))
	}
	errList = append(errList, stateErr)
	if err := errors.Join(errList...); err != nil {
		return Address{}, err
	}
	a.guard = guard.NewConstructorGuard()
	return a, nil
}

func (a Address) Line1() string { return a.line1 }
func (a Address) Line2() string { return a.line2 }
func (a Address) City() string { return a.city }
func (a Address) State() StateCode { return a.state }
func (a Address) Zip() string { return a.zip }

func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

func (a Address) IsEqual(other Address) bool {
	return a.line1 == other.line1 && a.line2 == other.line2 &&
		a.city == other.city && a.state == other.state && a.zip == other.zip
}
