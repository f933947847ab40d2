package jobs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type retryHandlerMock struct{ mock.Mock }

func (m *retryHandlerMock) Handle(ctx context.Context, cmd commands.RetryCRMSyncCommand) (commands.RetryCRMSyncResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.RetryCRMSyncResult), args.Error(1)
}

type monitorHandlerMock struct{ mock.Mock }

func (m *monitorHandlerMock) Handle(ctx context.Context, cmd commands.MonitorStuckShipmentsCommand) (int, error) {
	args := m.Called(ctx, cmd)
	return args.Int(0), args.Error(1)
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestCRMSyncRetryJob_RunUsesBatchSize(t *testing.T) {
	handler := &retryHandlerMock{}
	handler.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.RetryCRMSyncCommand) bool {
		return cmd.BatchSize() == 10 && cmd.Validate() == nil
	})).Return(commands.RetryCRMSyncResult{Processed: 2, Succeeded: 1, Requeued: 1}, nil).Once()

	logger, buf := bufferLogger()
	job := NewCRMSyncRetryJob(handler, 10, logger)
	job.run(t.Context())

	handler.AssertExpectations(t)
	assert.Contains(t, buf.String(), "CRM sync retry drained")
	assert.Contains(t, buf.String(), "requeued=1")
}

func TestCRMSyncRetryJob_DefaultBatchSize(t *testing.T) {
	logger, _ := bufferLogger()
	job := NewCRMSyncRetryJob(&retryHandlerMock{}, 0, logger)
	assert.Equal(t, DefaultRetryBatchSize, job.batchSize)
}

func TestCRMSyncRetryJob_EmptyQueueIsQuiet(t *testing.T) {
	handler := &retryHandlerMock{}
	handler.On("Handle", mock.Anything, mock.Anything).Return(commands.RetryCRMSyncResult{}, nil).Once()

	logger, buf := bufferLogger()
	NewCRMSyncRetryJob(handler, 5, logger).run(t.Context())

	assert.Empty(t, buf.String())
}

func TestCRMSyncRetryJob_LogsFailure(t *testing.T) {
	handler := &retryHandlerMock{}
	handler.On("Handle", mock.Anything, mock.Anything).
		Return(commands.RetryCRMSyncResult{Processed: 1}, errors.New("db down")).Once()

	logger, buf := bufferLogger()
	NewCRMSyncRetryJob(handler, 5, logger).run(t.Context())

	assert.Contains(t, buf.String(), "CRM sync retry job failed")
	assert.Contains(t, buf.String(), "db down")
}

func TestStuckShipmentMonitorJob_Run(t *testing.T) {
	handler := &monitorHandlerMock{}
	handler.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.MonitorStuckShipmentsCommand) bool {
		return cmd.Threshold() == commands.DefaultStuckThreshold
	})).Return(3, nil).Once()

	logger, buf := bufferLogger()
	job := NewStuckShipmentMonitorJob(handler, 0, logger)
	job.run(t.Context())

	handler.AssertExpectations(t)
	assert.Contains(t, buf.String(), "count=3")
}

func TestStuckShipmentMonitorJob_LogsFailure(t *testing.T) {
	handler := &monitorHandlerMock{}
	handler.On("Handle", mock.Anything, mock.Anything).Return(0, errors.New("boom")).Once()

	logger, buf := bufferLogger()
	NewStuckShipmentMonitorJob(handler, 0, logger).run(t.Context())

	assert.Contains(t, buf.String(), "Stuck shipment monitor job failed")
}

func TestJobManager_StartStop(t *testing.T) {
	logger, buf := bufferLogger()
	jm := NewJobManager(&retryHandlerMock{}, &monitorHandlerMock{}, 0, 0, logger)

	require.NoError(t, jm.StartAll())
	jm.StopAll()

	out := buf.String()
	assert.Contains(t, out, "CRM sync retry job started")
	assert.Contains(t, out, "Stuck shipment monitor job started")
	assert.Contains(t, out, "CRM sync retry job stopped")
}
