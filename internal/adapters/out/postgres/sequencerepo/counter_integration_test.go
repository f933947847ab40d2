package sequencerepo_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/adapters/out/postgres/sequencerepo"
	"fulfillment/internal/adapters/out/postgres/shipmentrepo"
	"fulfillment/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type SequenceCounterIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	counter   *sequencerepo.GormSequenceCounter
	registry  *sequencerepo.GormOrderNumberRegistry
}

func (suite *SequenceCounterIntegrationTestSuite) SetupSuite() {
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

	suite.Require().NoError(sequencerepo.Migrate(ctx, db, 1000))
	suite.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}, &shipmentrepo.GroupDTO{}))

	suite.counter = sequencerepo.NewGormSequenceCounter(db)
	suite.registry = sequencerepo.NewGormOrderNumberRegistry(db)
}

func (suite *SequenceCounterIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE order_sequence_claims, orders, shipment_groups").Error)
}

func (suite *SequenceCounterIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *SequenceCounterIntegrationTestSuite) TestMigrate_RejectsNonPositiveStart() {
	err := sequencerepo.Migrate(context.Background(), suite.db, 0)
	suite.Require().ErrorIs(err, errs.ErrValueIsOutOfRange)
}

func (suite *SequenceCounterIntegrationTestSuite) TestClaim_IsStablePerTransaction() {
	ctx := context.Background()

	first, err := suite.counter.Claim(ctx, "txn-a")
	suite.Require().NoError(err)
	again, err := suite.counter.Claim(ctx, "txn-a")
	suite.Require().NoError(err)
	other, err := suite.counter.Claim(ctx, "txn-b")
	suite.Require().NoError(err)

	suite.GreaterOrEqual(first, int64(1000))
	suite.Equal(first, again)
	suite.Greater(other, first)
}

func (suite *SequenceCounterIntegrationTestSuite) TestClaim_EmptyTransaction() {
	_, err := suite.counter.Claim(context.Background(), "")
	suite.Require().ErrorIs(err, errs.ErrValueIsRequired)
}

func (suite *SequenceCounterIntegrationTestSuite) TestReclaim_RebindsToFreshValue() {
	ctx := context.Background()

	first, err := suite.counter.Claim(ctx, "txn-r")
	suite.Require().NoError(err)
	fresh, err := suite.counter.Reclaim(ctx, "txn-r")
	suite.Require().NoError(err)
	after, err := suite.counter.Claim(ctx, "txn-r")
	suite.Require().NoError(err)

	suite.Greater(fresh, first)
	suite.Equal(fresh, after)
}

func (suite *SequenceCounterIntegrationTestSuite) TestClaim_ConcurrentTransactionsAreUnique() {
	ctx := context.Background()
	const n = 1000

	var (
		mu   sync.Mutex
		seen = make(map[int64]string, n)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(32)
	for i := range n {
		g.Go(func() error {
			txn := fmt.Sprintf("txn-%04d", i)
			seq, err := suite.counter.Claim(gctx, txn)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if prev, dup := seen[seq]; dup {
				return fmt.Errorf("sequence %d handed to %s and %s", seq, prev, txn)
			}
			seen[seq] = txn
			return nil
		})
	}
	suite.Require().NoError(g.Wait())
	suite.Len(seen, n)
}

func (suite *SequenceCounterIntegrationTestSuite) TestClaim_ConcurrentRetriesShareValue() {
	ctx := context.Background()
	const n = 50

	results := make([]int64, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			seq, err := suite.counter.Claim(gctx, "txn-retry-storm")
			results[i] = seq
			return err
		})
	}
	suite.Require().NoError(g.Wait())
	for _, seq := range results {
		suite.Equal(results[0], seq)
	}
}

func (suite *SequenceCounterIntegrationTestSuite) TestTakenByOther() {
	ctx := context.Background()
	suite.insertOrder("txn-owner", "1500-A", "1500-B")

	suite.Run("numbers of another transaction", func() {
		taken, err := suite.registry.TakenByOther(ctx, []string{"1500-B"}, "txn-new")
		suite.Require().NoError(err)
		suite.True(taken)
	})

	suite.Run("own numbers on retry", func() {
		taken, err := suite.registry.TakenByOther(ctx, []string{"1500-A", "1500-B"}, "txn-owner")
		suite.Require().NoError(err)
		suite.False(taken)
	})

	suite.Run("unused numbers", func() {
		taken, err := suite.registry.TakenByOther(ctx, []string{"1501-0"}, "txn-new")
		suite.Require().NoError(err)
		suite.False(taken)
	})

	suite.Run("no numbers", func() {
		taken, err := suite.registry.TakenByOther(ctx, nil, "txn-new")
		suite.Require().NoError(err)
		suite.False(taken)
	})
}

// insertOrder writes bare rows; only the columns the registry reads matter.
func (suite *SequenceCounterIntegrationTestSuite) insertOrder(transactionID string, numbers ...string) {
	orderID := uuid.New()
	suite.Require().NoError(suite.db.Create(&orderrepo.OrderDTO{
		ID:            orderID,
		TransactionID: transactionID,
		MainSequence:  1500,
		ShipState:     "TX",
		Total:         decimal.Zero,
		CreatedAt:     time.Now(),
	}).Error)
	for i, number := range numbers {
		suite.Require().NoError(suite.db.Create(&shipmentrepo.GroupDTO{
			ID:          uuid.New(),
			OrderID:     orderID,
			GroupIndex:  i,
			Outcome:     "IH_CUSTOMER",
			OrderNumber: number,
			Total:       decimal.Zero,
			CreatedAt:   time.Now(),
		}).Error)
	}
}

func TestSequenceCounterIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(SequenceCounterIntegrationTestSuite))
}
