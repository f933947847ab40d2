package services_test

import (
	"context"
	"sync"
	"sync/atomic"

	"fulfillment/internal/core/domain/model/cart"
	"fulfillment/internal/core/domain/model/compliance"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/mock"
)

type MockComplianceRules struct {
	mock.Mock
}

func (m *MockComplianceRules) Evaluate(ctx context.Context, state kernel.StateCode, item cart.Item) (compliance.Verdict, error) {
	args := m.Called(ctx, state, item)
	return args.Get(0).(compliance.Verdict), args.Error(1)
}

type MockComplianceAuditLog struct {
	mock.Mock
}

func (m *MockComplianceAuditLog) Append(ctx context.Context, entry compliance.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockSequenceCounter struct {
	mock.Mock
}

func (m *MockSequenceCounter) Claim(ctx context.Context, transactionID string) (int64, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSequenceCounter) Reclaim(ctx context.Context, transactionID string) (int64, error) {
	args := m.Called(ctx, transactionID)
	return args.Get(0).(int64), args.Error(1)
}

type MockOrderNumberRegistry struct {
	mock.Mock
}

func (m *MockOrderNumberRegistry) TakenByOther(ctx context.Context, numbers []string, transactionID string) (bool, error) {
	args := m.Called(ctx, numbers, transactionID)
	return args.Bool(0), args.Error(1)
}

// atomicCounter is an in-memory SequenceCounter with per-transaction idempotency.
type atomicCounter struct {
	next   atomic.Int64
	mu     sync.Mutex
	claims map[string]int64
}

func newAtomicCounter(start int64) *atomicCounter {
	c := &atomicCounter{claims: make(map[string]int64)}
	c.next.Store(start - 1)
	return c
}

func (c *atomicCounter) Claim(_ context.Context, transactionID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq, ok := c.claims[transactionID]; ok {
		return seq, nil
	}
	seq := c.next.Add(1)
	c.claims[transactionID] = seq
	return seq, nil
}

func (c *atomicCounter) Reclaim(_ context.Context, transactionID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.next.Add(1)
	c.claims[transactionID] = seq
	return seq, nil
}

type freeRegistry struct{}

func (freeRegistry) TakenByOther(context.Context, []string, string) (bool, error) { return false, nil }
