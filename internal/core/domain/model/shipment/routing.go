package shipment

import (
	"fmt"

	"fulfillment/internal/core/domain/model/fulfillment"
	"fulfillment/internal/pkg/errs"
)

// OrderingAccount is the distributor account an order is placed under.
type OrderingAccount string

// RoutingTable maps (drop-ship?, test?) to an ordering account.
// Drop-ship and in-house flows use different distributor accounts.
type RoutingTable struct {
	InHouseTest  OrderingAccount
	DropShipTest OrderingAccount
	InHouseProd  OrderingAccount
	DropShipProd OrderingAccount
}

func DefaultRoutingTable() RoutingTable {
	return RoutingTable{
		InHouseTest:  "99901",
		DropShipTest: "99902",
		InHouseProd:  "60742",
		DropShipProd: "63824",
	}
}

// Account resolves the ordering account for an outcome.
func (r RoutingTable) Account(outcome fulfillment.Outcome, isTest bool) (OrderingAccount, error) {
	if err := outcome.Validate(); err != nil {
		return "", err
	}
	var acct OrderingAccount
	switch {
	case outcome.IsDropShip() && isTest:
		acct = r.DropShipTest
	case outcome.IsDropShip():
		acct = r.DropShipProd
	case isTest:
		acct = r.InHouseTest
	default:
		acct = r.InHouseProd
	}
	if acct == "" {
		return "", errs.NewValueIsRequiredErrorWithCause("orderingAccount",
			fmt.Errorf("no account configured for %s (test=%t)", outcome, isTest))
	}
	return acct, nil
}
