package commands_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMonitorStuckShipmentsCommandHandler_Handle_RaisesOneAlert(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewMonitorStuckShipmentsCommand(commands.DefaultStuckThreshold)
	require.NoError(t, err)

	received := time.Now().Add(-100 * time.Hour)
	lister := new(MockStuckShipmentsLister)
	lister.On("Handle", ctx, mock.MatchedBy(func(q queries.GetStuckIHShipmentsQuery) bool {
		cutoff := time.Now().Add(-commands.DefaultStuckThreshold)
		return q.ReceivedBefore().Sub(cutoff).Abs() < time.Minute
	})).Return([]queries.GetStuckIHShipmentsQueryResponse{
		{GroupID: kernel.NewUUID(), OrderNumber: "1070-0", FFLName: "Hill Country Guns", ReceivedAt: received},
		{GroupID: kernel.NewUUID(), OrderNumber: "1071-B", FFLName: "Hill Country Guns", ReceivedAt: received.Add(time.Hour)},
	}, nil).Once()

	alerter := new(MockOpsAlerter)
	alerter.On("Alert", ctx, mock.MatchedBy(func(a ports.Alert) bool {
		return a.Kind == "ih_stuck" &&
			a.Subject == "2 IH shipments waiting to ship for more than 72h0m0s" &&
			strings.Contains(a.Detail, "1070-0") && strings.Contains(a.Detail, "1071-B")
	})).Return(nil).Once()

	h := commands.NewMonitorStuckShipmentsCommandHandler(lister, alerter, discardLogger())
	count, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	lister.AssertExpectations(t)
	alerter.AssertExpectations(t)
}

func TestMonitorStuckShipmentsCommandHandler_Handle_NothingStuck(t *testing.T) {
	ctx := t.Context()
	cmd, err := commands.NewMonitorStuckShipmentsCommand(time.Hour)
	require.NoError(t, err)

	lister := new(MockStuckShipmentsLister)
	lister.On("Handle", ctx, mock.Anything).Return([]queries.GetStuckIHShipmentsQueryResponse{}, nil).Once()
	alerter := new(MockOpsAlerter)

	h := commands.NewMonitorStuckShipmentsCommandHandler(lister, alerter, discardLogger())
	count, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Zero(t, count)
	alerter.AssertNotCalled(t, "Alert", mock.Anything, mock.Anything)
}

func TestMonitorStuckShipmentsCommandHandler_Handle_Errors(t *testing.T) {
	t.Run("lister fails", func(t *testing.T) {
		cmd, err := commands.NewMonitorStuckShipmentsCommand(time.Hour)
		require.NoError(t, err)
		lister := new(MockStuckShipmentsLister)
		lister.On("Handle", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()

		h := commands.NewMonitorStuckShipmentsCommandHandler(lister, new(MockOpsAlerter), discardLogger())
		_, err = h.Handle(t.Context(), cmd)

		require.EqualError(t, err, "timeout")
	})

	t.Run("alert fails", func(t *testing.T) {
		cmd, err := commands.NewMonitorStuckShipmentsCommand(time.Hour)
		require.NoError(t, err)
		lister := new(MockStuckShipmentsLister)
		lister.On("Handle", mock.Anything, mock.Anything).Return([]queries.GetStuckIHShipmentsQueryResponse{
			{GroupID: kernel.NewUUID(), OrderNumber: "1072-0", ReceivedAt: time.Now().Add(-2 * time.Hour)},
		}, nil).Once()
		alerter := new(MockOpsAlerter)
		alerter.On("Alert", mock.Anything, mock.Anything).Return(errors.New("webhook 500")).Once()

		h := commands.NewMonitorStuckShipmentsCommandHandler(lister, alerter, discardLogger())
		count, err := h.Handle(t.Context(), cmd)

		require.EqualError(t, err, "webhook 500")
		assert.Equal(t, 1, count)
	})

	t.Run("unconstructed command", func(t *testing.T) {
		h := commands.NewMonitorStuckShipmentsCommandHandler(new(MockStuckShipmentsLister), new(MockOpsAlerter), discardLogger())
		_, err := h.Handle(t.Context(), commands.MonitorStuckShipmentsCommand{})
		require.ErrorIs(t, err, commands.ErrMonitorStuckShipmentsCommandIsNotConstructed)
	})
}

func TestNewMonitorStuckShipmentsCommand(t *testing.T) {
	cmd, err := commands.NewMonitorStuckShipmentsCommand(48 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, cmd.Threshold())

	_, err = commands.NewMonitorStuckShipmentsCommand(0)
	require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}
