package shipment

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

// Consignee is who a shipment group is addressed to. It is a closed set:
// FFLConsignee or CustomerConsignee.
type Consignee interface {
	Address() kernel.Address
	Validate() error
	isConsignee()
}

// FFLConsignee is a licensed dealer receiving regulated items for transfer.
type FFLConsignee struct {
	LicenseNumber string
	BusinessName  string
	ShipAddress   kernel.Address
}

func NewFFLConsignee(licenseNumber, businessName string, address kernel.Address) (FFLConsignee, error) {
	c := FFLConsignee{
		LicenseNumber: strings.TrimSpace(licenseNumber),
		BusinessName:  strings.TrimSpace(businessName),
		ShipAddress:   address,
	}
	if err := c.Validate(); err != nil {
		return FFLConsignee{}, err
	}
	return c, nil
}

func (c FFLConsignee) Address() kernel.Address { return c.ShipAddress }

func (c FFLConsignee) Validate() error {
	var errList []error
	if c.LicenseNumber == "" {
		errList = append(errList, errs.NewValueIsRequiredError("ffl.licenseNumber"))
	}
	if c.BusinessName == "" {
		errList = append(errList, errs.NewValueIsRequiredError("ffl.businessName"))
	}
	errList = append(errList, c.ShipAddress.Validate())
	return errors.Join(errList...)
}

func (FFLConsignee) isConsignee() {}

// CustomerConsignee ships to the buyer's own address.
type CustomerConsignee struct {
	ShipAddress kernel.Address
}

func NewCustomerConsignee(address kernel.Address) (CustomerConsignee, error) {
	c := CustomerConsignee{ShipAddress: address}
	if err := c.Validate(); err != nil {
		return CustomerConsignee{}, err
	}
	return c, nil
}

func (c CustomerConsignee) Address() kernel.Address { return c.ShipAddress }

func (c CustomerConsignee) Validate() error {
	return c.ShipAddress.Validate()
}

func (CustomerConsignee) isConsignee() {}
