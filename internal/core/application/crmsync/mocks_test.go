package crmsync_test

import (
	"context"
	"sync"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockCRMClient struct{ mock.Mock }

func (m *MockCRMClient) SearchProductByMPN(ctx context.Context, mpn string) (string, error) {
	args := m.Called(ctx, mpn)
	return args.String(0), args.Error(1)
}

func (m *MockCRMClient) CreateProduct(ctx context.Context, p ports.CRMProduct) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockCRMClient) UpsertDeal(ctx context.Context, d ports.CRMDeal) (string, error) {
	args := m.Called(ctx, d)
	return args.String(0), args.Error(1)
}

func (m *MockCRMClient) UpdateDealStatus(ctx context.Context, dealID, status string) error {
	args := m.Called(ctx, dealID, status)
	return args.Error(0)
}

func (m *MockCRMClient) RefreshAuth(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// memCache is a ProductIDCache backed by a map.
type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemCache() *memCache { return &memCache{m: make(map[string]string)} }

func (c *memCache) Get(_ context.Context, mpn string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.m[mpn]
	return id, ok, nil
}

func (c *memCache) Set(_ context.Context, mpn, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[mpn] = id
	return nil
}

type recordingQueue struct {
	mu      sync.Mutex
	groups  []kernel.UUID
	reasons []string
}

func (q *recordingQueue) Enqueue(ctx context.Context, groupID kernel.UUID, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.groups = append(q.groups, groupID)
	q.reasons = append(q.reasons, reason)
	return nil
}

func (q *recordingQueue) Due(context.Context, time.Time, int) ([]ports.SyncTask, error) {
	return nil, nil
}
func (q *recordingQueue) MarkDone(context.Context, int64) error { return nil }
func (q *recordingQueue) MarkFailed(context.Context, int64, string, time.Time) error {
	return nil
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []ports.Alert
}

func (a *recordingAlerter) Alert(_ context.Context, alert ports.Alert) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
	return nil
}
