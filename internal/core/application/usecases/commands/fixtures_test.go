package commands_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/ordernumber"
	"fulfillment/internal/core/domain/model/shipment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func testAddress(t *testing.T, state string) kernel.Address {
	t.Helper()
	addr, err := kernel.NewAddress("400 Main St", "", "Springfield", state, "78702")
	require.NoError(t, err)
	return addr
}

func testFFL(t *testing.T, state string) shipment.FFLConsignee {
	t.Helper()
	ffl, err := shipment.NewFFLConsignee("5-74-000-01-2B-00001", "Hill Country Guns", testAddress(t, state))
	require.NoError(t, err)
	return ffl
}

// ihGroup builds a numbered IH_FFL group in the unset IH state.
func ihGroup(t *testing.T, number string) *shipment.Group {
	t.Helper()
	rifle, err := cart.NewItem(cart.ItemParams{
		SKU:         "RIFLE-AR15",
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString("899.00"),
		RequiresFFL: true,
	})
	require.NoError(t, err)

	g, err := shipment.NewGroup(kernel.NewUUID(), 0, fulfillment.IHFFL, []cart.Item{rifle}, testFFL(t, "TX"), "60742", time.Now())
	require.NoError(t, err)
	n, err := ordernumber.Parse(number)
	require.NoError(t, err)
	require.NoError(t, g.AssignOrderNumber(n))
	return g
}

// customerGroup builds a numbered DS_CUSTOMER group.
func customerGroup(t *testing.T, number string) *shipment.Group {
	t.Helper()
	scope, err := cart.NewItem(cart.ItemParams{
		SKU:              "OPTIC-RDS",
		Quantity:         1,
		UnitPrice:        decimal.RequireFromString("249.00"),
		DropShipEligible: true,
	})
	require.NoError(t, err)

	customer, err := shipment.NewCustomerConsignee(testAddress(t, "TX"))
	require.NoError(t, err)
	g, err := shipment.NewGroup(kernel.NewUUID(), 0, fulfillment.DSCustomer, []cart.Item{scope}, customer, "63824", time.Now())
	require.NoError(t, err)
	n, err := ordernumber.Parse(number)
	require.NoError(t, err)
	require.NoError(t, g.AssignOrderNumber(n))
	return g
}
