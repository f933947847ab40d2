package services_test

import (
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/pkg/errs"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

func consignees(t *testing.T) services.Consignees {
	t.Helper()
	addr, err := kernel.NewAddress("1 Main St", "", "Reno", "NV", "89501")
	require.NoError(t, err)
	ffl, err := shipment.NewFFLConsignee("9-88-000-00-0A-00000", "Silver State Arms", addr)
	require.NoError(t, err)
	cust, err := shipment.NewCustomerConsignee(addr)
	require.NoError(t, err)
	return services.Consignees{FFL: &ffl, Customer: cust}
}

func classified(t *testing.T, specs ...[2]bool) ([]cart.Item, []fulfillment.Outcome) {
	t.Helper()
	items := make([]cart.Item, 0, len(specs))
	outcomes := make([]fulfillment.Outcome, 0, len(specs))
	for i, s := range specs {
		it, err := cart.NewItem(cart.ItemParams{
			SKU: string(rune('A' + i%26)), Quantity: 1 + i, UnitPrice: decimal.NewFromInt(int64(10 * (i + 1))),
			RequiresFFL: s[0], DropShipEligible: s[1],
		})
		require.NoError(t, err)
		items = append(items, it)
		outcomes = append(outcomes, fulfillment.Classify(s[0], s[1]))
	}
	return items, outcomes
}

func TestShipmentGrouper_Group(t *testing.T) {
	grouper := services.NewShipmentGrouper(shipment.DefaultRoutingTable())

	t.Run("single outcome yields exactly one group", func(t *testing.T) {
		items, outcomes := classified(t, [2]bool{false, true}, [2]bool{false, true}, [2]bool{false, true})

		groups, err := grouper.Group(kernel.NewUUID(), items, outcomes, consignees(t), false, now)

		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Len(t, groups[0].Items(), 3)
		assert.Equal(t, shipment.OrderingAccount("63824"), groups[0].OrderingAccount())
	})

	t.Run("groups follow first appearance and keep item order", func(t *testing.T) {
		items, outcomes := classified(t,
			[2]bool{true, true},   // A DS_FFL
			[2]bool{false, false}, // B IH_CUSTOMER
			[2]bool{true, true},   // C DS_FFL
			[2]bool{false, false}, // D IH_CUSTOMER
		)

		groups, err := grouper.Group(kernel.NewUUID(), items, outcomes, consignees(t), true, now)

		require.NoError(t, err)
		require.Len(t, groups, 2)
		assert.Equal(t, fulfillment.DSFFL, groups[0].Outcome())
		assert.Equal(t, fulfillment.IHCustomer, groups[1].Outcome())
		assert.Equal(t, "A", groups[0].Items()[0].SKU())
		assert.Equal(t, "C", groups[0].Items()[1].SKU())
		assert.Equal(t, 1, groups[1].Index())
		assert.IsType(t, shipment.FFLConsignee{}, groups[0].Consignee())
		assert.IsType(t, shipment.CustomerConsignee{}, groups[1].Consignee())
		assert.Equal(t, shipment.OrderingAccount("99902"), groups[0].OrderingAccount())
		assert.Equal(t, shipment.OrderingAccount("99901"), groups[1].OrderingAccount())
	})

	t.Run("FFL outcome without a chosen FFL fails", func(t *testing.T) {
		items, outcomes := classified(t, [2]bool{true, false})
		c := consignees(t)
		c.FFL = nil

		_, err := grouper.Group(kernel.NewUUID(), items, outcomes, c, false, now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("length mismatch is a classification mismatch", func(t *testing.T) {
		items, outcomes := classified(t, [2]bool{true, false}, [2]bool{false, false})

		_, err := grouper.Group(kernel.NewUUID(), items, outcomes[:1], consignees(t), false, now)

		require.ErrorIs(t, err, fulfillment.ErrClassificationMismatch)
	})

	t.Run("outcome disagreeing with item flags is rejected", func(t *testing.T) {
		items, _ := classified(t, [2]bool{true, false})

		_, err := grouper.Group(kernel.NewUUID(), items, []fulfillment.Outcome{fulfillment.DSCustomer}, consignees(t), false, now)

		require.ErrorIs(t, err, fulfillment.ErrClassificationMismatch)
	})

	t.Run("unknown outcome never defaults", func(t *testing.T) {
		items, _ := classified(t, [2]bool{true, false})

		_, err := grouper.Group(kernel.NewUUID(), items, []fulfillment.Outcome{fulfillment.Unknown}, consignees(t), false, now)

		require.ErrorIs(t, err, fulfillment.ErrClassificationMismatch)
	})

	t.Run("empty cart is rejected", func(t *testing.T) {
		_, err := grouper.Group(kernel.NewUUID(), nil, nil, consignees(t), false, now)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestShipmentGrouper_Properties(t *testing.T) {
	grouper := services.NewShipmentGrouper(shipment.DefaultRoutingTable())
	cons := consignees(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	flags := gen.SliceOfN(2, gen.Bool()).Map(func(v []bool) [2]bool { return [2]bool{v[0], v[1]} })

	properties.Property("every item lands in exactly one group and totals are preserved", prop.ForAll(
		func(specs [][2]bool) bool {
			items, outcomes := classified(t, specs...)
			groups, err := grouper.Group(kernel.NewUUID(), items, outcomes, cons, false, now)
			if err != nil {
				return false
			}

			seen := make(map[string]int)
			total := decimal.Zero
			for i, g := range groups {
				if g.Index() != i {
					return false
				}
				for _, it := range g.Items() {
					seen[it.SKU()]++
					if fulfillment.Classify(it.RequiresFFL(), it.DropShipEligible()) != g.Outcome() {
						return false
					}
				}
				total = total.Add(g.Total())
			}
			if len(seen) != len(items) {
				return false
			}
			for _, n := range seen {
				if n != 1 {
					return false
				}
			}
			return total.Equal(cart.Total(items))
		},
		gen.SliceOfN(20, flags).SuchThat(func(v [][2]bool) bool { return len(v) > 0 }),
	))

	properties.Property("group count equals distinct outcomes", prop.ForAll(
		func(specs [][2]bool) bool {
			items, outcomes := classified(t, specs...)
			groups, err := grouper.Group(kernel.NewUUID(), items, outcomes, cons, false, now)
			if err != nil {
				return false
			}
			distinct := make(map[fulfillment.Outcome]struct{})
			for _, o := range outcomes {
				distinct[o] = struct{}{}
			}
			return len(groups) == len(distinct)
		},
		gen.SliceOfN(8, flags),
	))

	properties.TestingRun(t)
}
