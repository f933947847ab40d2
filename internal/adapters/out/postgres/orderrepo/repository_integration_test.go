package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/shipmentrepo"
	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/ordernumber"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockAggregateTracker is a mock implementation of aggregateTracker interface.
type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate interface{}) {
	m.Called(id, aggregate)
}

// OrderRepositoryIntegrationTestSuite exercises OrderRepository against a
// PostgreSQL container.
type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *orderrepo.GormOrderRepository
	tracker    *MockAggregateTracker
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&shipmentrepo.GroupDTO{},
		&shipmentrepo.NoteDTO{},
	))
}

func (suite *OrderRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders, shipment_groups, ih_notes").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.repository = orderrepo.NewGormOrderRepository(suite.db, suite.tracker)
}

func (suite *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_SplitOrder_PersistsHeaderAndGroups() {
	ctx := context.Background()
	o := suite.createNumberedOrder("txn-1042", 1042)

	suite.tracker.On("TrackAggregate", o.ID(), o).Once()

	suite.Require().NoError(suite.repository.Add(ctx, o))

	suite.assertCount("orders", 1)
	suite.assertCount("shipment_groups", 2)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_UnnumberedOrder_Rejected() {
	ctx := context.Background()
	o := suite.createOrder("txn-unnumbered")

	err := suite.repository.Add(ctx, o)

	suite.Require().ErrorIs(err, errs.ErrValueIsRequired)
	suite.assertCount("orders", 0)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestAdd_SameTransactionTwice_Fails() {
	ctx := context.Background()
	first := suite.createNumberedOrder("txn-dup", 7)
	second := suite.createNumberedOrder("txn-dup", 8)
	suite.tracker.On("TrackAggregate", first.ID(), first).Once()

	suite.Require().NoError(suite.repository.Add(ctx, first))
	err := suite.repository.Add(ctx, second)
	suite.Require().ErrorIs(err, ports.ErrDuplicateOrder)

	suite.assertCount("orders", 1)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_RestoresGroupsInIndexOrder() {
	ctx := context.Background()
	o := suite.createNumberedOrder("txn-get", 1042)
	suite.tracker.On("TrackAggregate", o.ID(), o).Once()
	suite.Require().NoError(suite.repository.Add(ctx, o))

	got, err := suite.repository.Get(ctx, o.ID())
	suite.Require().NoError(err)

	suite.Equal(o.ID(), got.ID())
	suite.Equal("txn-get", got.TransactionID())
	suite.Equal(int64(1042), got.MainSequence())
	suite.Equal(kernel.StateCode("TX"), got.ShipState())
	suite.True(o.Total().Equal(got.Total()))

	groups := got.Groups()
	suite.Require().Len(groups, 2)
	suite.Equal("1042-A", groups[0].OrderNumber().String())
	suite.Equal(fulfillment.IHFFL, groups[0].Outcome())
	suite.Equal(shipment.OrderingAccount("60742"), groups[0].OrderingAccount())
	ffl, ok := groups[0].Consignee().(shipment.FFLConsignee)
	suite.Require().True(ok)
	suite.Equal("5-74-000-01-2B-00001", ffl.LicenseNumber)

	suite.Equal("1042-B", groups[1].OrderNumber().String())
	suite.Equal(fulfillment.DSCustomer, groups[1].Outcome())
	suite.IsType(shipment.CustomerConsignee{}, groups[1].Consignee())
	suite.Require().Len(groups[1].Items(), 1)
	suite.Equal("HOL-1911", groups[1].Items()[0].SKU())
	suite.Equal(2, groups[1].Items()[0].Quantity())
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGetByTransactionID() {
	ctx := context.Background()
	o := suite.createNumberedOrder("txn-lookup", 55)
	suite.tracker.On("TrackAggregate", o.ID(), o).Once()
	suite.Require().NoError(suite.repository.Add(ctx, o))

	suite.Run("existing transaction", func() {
		got, err := suite.repository.GetByTransactionID(ctx, "txn-lookup")
		suite.Require().NoError(err)
		suite.Equal(o.ID(), got.ID())
		suite.Len(got.Groups(), 2)
	})

	suite.Run("unknown transaction", func() {
		got, err := suite.repository.GetByTransactionID(ctx, "txn-missing")
		suite.Nil(got)
		var notFoundErr *errs.ObjectNotFoundError
		suite.Require().ErrorAs(err, &notFoundErr)
	})

	suite.Run("empty transaction", func() {
		_, err := suite.repository.GetByTransactionID(ctx, "")
		suite.Require().ErrorIs(err, errs.ErrValueIsRequired)
	})
}

func (suite *OrderRepositoryIntegrationTestSuite) TestGet_NonExistentOrder_ReturnsNotFoundError() {
	ctx := context.Background()

	got, err := suite.repository.Get(ctx, kernel.NewUUID())

	suite.Nil(got)
	var notFoundErr *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFoundErr)
	suite.tracker.AssertExpectations(suite.T())
}

// createOrder builds a two-group order: an in-house FFL rifle lower and a
// drop-shipped accessory.
func (suite *OrderRepositoryIntegrationTestSuite) createOrder(transactionID string) *order.Order {
	lower, err := cart.NewItem(cart.ItemParams{
		SKU:         "AR-15-LWR",
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString("149.99"),
		RequiresFFL: true,
		MPN:         "AR15-LWR-01",
		Attributes:  cart.Attributes{IsFirearm: true},
	})
	suite.Require().NoError(err)
	holster, err := cart.NewItem(cart.ItemParams{
		SKU:              "HOL-1911",
		Quantity:         2,
		UnitPrice:        decimal.RequireFromString("39.50"),
		DropShipEligible: true,
	})
	suite.Require().NoError(err)

	items := []cart.Item{lower, holster}
	outcomes := []fulfillment.Outcome{fulfillment.IHFFL, fulfillment.DSCustomer}

	home, err := kernel.NewAddress("12 Elm St", "", "Austin", "TX", "78701")
	suite.Require().NoError(err)
	shop, err := kernel.NewAddress("400 Main St", "Suite 2", "Austin", "TX", "78702")
	suite.Require().NoError(err)
	ffl, err := shipment.NewFFLConsignee("5-74-000-01-2B-00001", "Hill Country Guns", shop)
	suite.Require().NoError(err)
	customer, err := shipment.NewCustomerConsignee(home)
	suite.Require().NoError(err)

	orderID := kernel.NewUUID()
	now := time.Now().UTC().Truncate(time.Microsecond)
	groups, err := services.NewShipmentGrouper(shipment.DefaultRoutingTable()).
		Group(orderID, items, outcomes, services.Consignees{FFL: &ffl, Customer: customer}, false, now)
	suite.Require().NoError(err)

	o, err := order.NewOrder(orderID, transactionID, false, "TX", cart.Total(items), groups, now)
	suite.Require().NoError(err)
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) createNumberedOrder(transactionID string, seq int64) *order.Order {
	o := suite.createOrder(transactionID)
	numbers, err := ordernumber.ForGroups(seq, len(o.Groups()), false)
	suite.Require().NoError(err)
	suite.Require().NoError(o.AssignNumbers(numbers))
	return o
}

func (suite *OrderRepositoryIntegrationTestSuite) assertCount(table string, expected int64) {
	var count int64
	suite.Require().NoError(suite.db.Table(table).Count(&count).Error)
	suite.Equal(expected, count)
}

func TestOrderRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}
