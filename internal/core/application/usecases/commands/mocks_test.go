package commands_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"fulfillment/internal/core/application/crmsync"
	"fulfillment/internal/core/application/services"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/compliance"
	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetByTransactionID(ctx context.Context, transactionID string) (*order.Order, error) {
	args := m.Called(ctx, transactionID)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

type MockShipmentRepository struct{ mock.Mock }

func (m *MockShipmentRepository) Get(ctx context.Context, id kernel.UUID) (*shipment.Group, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(*shipment.Group)
	return g, args.Error(1)
}

func (m *MockShipmentRepository) UpdateIH(ctx context.Context, g *shipment.Group, expectedStatus ihstatus.Status, expectedVersion int) error {
	args := m.Called(ctx, g, expectedStatus, expectedVersion)
	return args.Error(0)
}

func (m *MockShipmentRepository) AppendNote(ctx context.Context, groupID kernel.UUID, note ihstatus.Note) error {
	args := m.Called(ctx, groupID, note)
	return args.Error(0)
}

func (m *MockShipmentRepository) AppendTransition(ctx context.Context, groupID kernel.UUID, tr ihstatus.Transition) error {
	args := m.Called(ctx, groupID, tr)
	return args.Error(0)
}

func (m *MockShipmentRepository) SetDealID(ctx context.Context, groupID kernel.UUID, dealID string) error {
	args := m.Called(ctx, groupID, dealID)
	return args.Error(0)
}

// MockUoW satisfies both commands.UoW and commands.ShipmentUoW.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) ShipmentRepository() ports.ShipmentRepository {
	args := m.Called()
	return args.Get(0).(ports.ShipmentRepository)
}

type MockShipmentUoWFactory struct{ mock.Mock }

func (m *MockShipmentUoWFactory) Create() commands.ShipmentUoW {
	args := m.Called()
	return args.Get(0).(commands.ShipmentUoW)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) IHStatusChanged(ctx context.Context, event ports.IHStatusChanged) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockOpsAlerter struct{ mock.Mock }

func (m *MockOpsAlerter) Alert(ctx context.Context, alert ports.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

type MockDealStatusUpdater struct{ mock.Mock }

func (m *MockDealStatusUpdater) UpdateDealStatus(ctx context.Context, g *shipment.Group, status ihstatus.Status) error {
	args := m.Called(ctx, g, status)
	return args.Error(0)
}

type MockGroupSyncer struct{ mock.Mock }

func (m *MockGroupSyncer) SyncGroup(ctx context.Context, g *shipment.Group) (crmsync.GroupSync, error) {
	args := m.Called(ctx, g)
	return args.Get(0).(crmsync.GroupSync), args.Error(1)
}

func (m *MockGroupSyncer) HandleFailure(ctx context.Context, groupID kernel.UUID, orderNumber string, err error) {
	m.Called(ctx, groupID, orderNumber, err)
}

type MockSyncQueue struct{ mock.Mock }

func (m *MockSyncQueue) Enqueue(ctx context.Context, groupID kernel.UUID, reason string) error {
	args := m.Called(ctx, groupID, reason)
	return args.Error(0)
}

func (m *MockSyncQueue) Due(ctx context.Context, now time.Time, limit int) ([]ports.SyncTask, error) {
	args := m.Called(ctx, now, limit)
	tasks, _ := args.Get(0).([]ports.SyncTask)
	return tasks, args.Error(1)
}

func (m *MockSyncQueue) MarkDone(ctx context.Context, taskID int64) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockSyncQueue) MarkFailed(ctx context.Context, taskID int64, reason string, next time.Time) error {
	args := m.Called(ctx, taskID, reason, next)
	return args.Error(0)
}

type MockStuckShipmentsLister struct{ mock.Mock }

func (m *MockStuckShipmentsLister) Handle(
	ctx context.Context,
	q queries.GetStuckIHShipmentsQuery,
) ([]queries.GetStuckIHShipmentsQueryResponse, error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).([]queries.GetStuckIHShipmentsQueryResponse)
	return res, args.Error(1)
}

type MockComplianceChecker struct{ mock.Mock }

func (m *MockComplianceChecker) CheckCartCompliance(
	ctx context.Context,
	actor string,
	items []cart.Item,
	destination string,
) (compliance.Result, error) {
	args := m.Called(ctx, actor, items, destination)
	return args.Get(0).(compliance.Result), args.Error(1)
}

type MockNumberMinter struct{ mock.Mock }

func (m *MockNumberMinter) Mint(ctx context.Context, transactionID string, groupCount int, isTest bool) (services.Minted, error) {
	args := m.Called(ctx, transactionID, groupCount, isTest)
	return args.Get(0).(services.Minted), args.Error(1)
}

type MockOrderSyncer struct{ mock.Mock }

func (m *MockOrderSyncer) SyncOrder(ctx context.Context, groups []*shipment.Group) []crmsync.GroupResult {
	args := m.Called(ctx, groups)
	res, _ := args.Get(0).([]crmsync.GroupResult)
	return res
}

func (m *MockOrderSyncer) Requeue(ctx context.Context, groupID kernel.UUID, reason string) error {
	args := m.Called(ctx, groupID, reason)
	return args.Error(0)
}
