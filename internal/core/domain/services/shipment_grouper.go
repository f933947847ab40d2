package services

import (
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/pkg/errs"
)

// Consignees are the destinations chosen at checkout. FFL is only required
// when the cart contains an FFL outcome.
type Consignees struct {
	FFL      *shipment.FFLConsignee
	Customer shipment.CustomerConsignee
}

// ShipmentGrouper partitions classified cart lines into shipment groups.
//
// Business rules:
//   - Every item lands in exactly one group
//   - Items sharing an outcome collapse into one group, keeping cart order
//   - Groups are indexed by first appearance of their outcome
//   - FFL outcomes ship to the single FFL chosen at checkout
//   - The ordering account comes from the routing table
type ShipmentGrouper struct {
	routing shipment.RoutingTable
}

func NewShipmentGrouper(routing shipment.RoutingTable) ShipmentGrouper {
	return ShipmentGrouper{routing: routing}
}

// Group builds the groups for one order. items and outcomes are parallel slices.
func (s ShipmentGrouper) Group(
	orderID kernel.UUID,
	items []cart.Item,
	outcomes []fulfillment.Outcome,
	consignees Consignees,
	isTest bool,
	at time.Time,
) ([]*shipment.Group, error) {
	if len(items) == 0 {
		return nil, errs.NewValueIsRequiredError("items")
	}
	if len(items) != len(outcomes) {
		return nil, fmt.Errorf("%w: %d items but %d outcomes",
			fulfillment.ErrClassificationMismatch, len(items), len(outcomes))
	}

	var (
		order   []fulfillment.Outcome
		buckets = make(map[fulfillment.Outcome][]cart.Item)
	)
	for i, o := range outcomes {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("%w: item %s: %w", fulfillment.ErrClassificationMismatch, items[i].SKU(), err)
		}
		if _, seen := buckets[o]; !seen {
			order = append(order, o)
		}
		buckets[o] = append(buckets[o], items[i])
	}

	groups := make([]*shipment.Group, 0, len(order))
	for idx, o := range order {
		consignee, err := s.consigneeFor(o, consignees)
		if err != nil {
			return nil, err
		}
		account, err := s.routing.Account(o, isTest)
		if err != nil {
			return nil, err
		}
		g, err := shipment.NewGroup(orderID, idx, o, buckets[o], consignee, account, at)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s ShipmentGrouper) consigneeFor(o fulfillment.Outcome, c Consignees) (shipment.Consignee, error) {
	switch o {
	case fulfillment.DSFFL, fulfillment.IHFFL:
		if c.FFL == nil {
			return nil, errs.NewValueIsRequiredErrorWithCause("ffl", fmt.Errorf("cart contains %s items", o))
		}
		return *c.FFL, nil
	case fulfillment.DSCustomer, fulfillment.IHCustomer:
		return c.Customer, nil
	default:
		return nil, fmt.Errorf("%w: outcome %s", fulfillment.ErrClassificationMismatch, o)
	}
}
