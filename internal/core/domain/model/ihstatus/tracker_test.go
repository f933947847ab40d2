package ihstatus_test

import (
	"errors"
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/ihstatus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

func received(t *testing.T) *ihstatus.Tracker {
	t.Helper()
	tr := ihstatus.NewTracker()
	_, err := tr.Advance(ihstatus.ReceivedFromRSR, ihstatus.Meta{}, "warehouse", now)
	require.NoError(t, err)
	return tr
}

func requireMissing(t *testing.T, err error, missing string) {
	t.Helper()
	var ite *ihstatus.InvalidTransitionError
	require.True(t, errors.As(err, &ite), "expected InvalidTransitionError, got %v", err)
	assert.Contains(t, ite.Missing, missing)
}

func TestTracker_Receive(t *testing.T) {
	tr := ihstatus.NewTracker()

	transition, err := tr.Advance(ihstatus.ReceivedFromRSR, ihstatus.Meta{}, "warehouse", now)

	require.NoError(t, err)
	assert.Equal(t, ihstatus.Unset, transition.From)
	assert.Equal(t, ihstatus.ReceivedFromRSR, transition.To)
	assert.Equal(t, "warehouse", transition.Actor)
	assert.Equal(t, 1, tr.Version())
}

func TestTracker_SendOutbound(t *testing.T) {
	t.Run("UPS with valid tracking succeeds", func(t *testing.T) {
		tr := received(t)

		_, err := tr.Advance(ihstatus.SentOutbound,
			ihstatus.Meta{Carrier: "UPS", TrackingNumber: "1Z999AA10123456784"}, "staff", now)

		require.NoError(t, err)
		assert.Equal(t, ihstatus.SentOutbound, tr.Status())
		assert.Equal(t, ihstatus.CarrierUPS, tr.Carrier())
		assert.Equal(t, "1Z999AA10123456784", tr.TrackingNumber())
		assert.Equal(t, 2, tr.Version())
	})

	t.Run("unknown carrier is rejected without state change", func(t *testing.T) {
		tr := received(t)

		_, err := tr.Advance(ihstatus.SentOutbound,
			ihstatus.Meta{Carrier: "DHL", TrackingNumber: "1Z999AA10123456784"}, "staff", now)

		requireMissing(t, err, "carrier")
		assert.Equal(t, ihstatus.ReceivedFromRSR, tr.Status())
		assert.Equal(t, 1, tr.Version())
	})

	t.Run("tracking shorter than 8 after trimming is rejected", func(t *testing.T) {
		tr := received(t)

		_, err := tr.Advance(ihstatus.SentOutbound,
			ihstatus.Meta{Carrier: "USPS", TrackingNumber: "  1234567  "}, "staff", now)

		requireMissing(t, err, "tracking number")
		assert.Empty(t, tr.TrackingNumber())
	})

	t.Run("cannot skip receiving", func(t *testing.T) {
		tr := ihstatus.NewTracker()

		_, err := tr.Advance(ihstatus.SentOutbound,
			ihstatus.Meta{Carrier: "UPS", TrackingNumber: "1Z999AA10123456784"}, "staff", now)

		require.ErrorIs(t, err, ihstatus.ErrInvalidTransition)
		assert.Equal(t, ihstatus.Unset, tr.Status())
	})
}

func TestTracker_Complete(t *testing.T) {
	t.Run("without tracking or delivery note fails", func(t *testing.T) {
		tr := received(t)

		_, err := tr.Advance(ihstatus.OrderComplete, ihstatus.Meta{}, "staff", now)

		requireMissing(t, err, "delivery confirmation note or tracking number")
		assert.Equal(t, ihstatus.ReceivedFromRSR, tr.Status())
	})

	t.Run("delivery confirmation note satisfies the precondition", func(t *testing.T) {
		tr := received(t)
		note, err := ihstatus.NewNote("signed by dealer", "staff", ihstatus.NoteDeliveryConfirmation, now)
		require.NoError(t, err)
		tr.AddNote(note)

		_, err = tr.Advance(ihstatus.OrderComplete, ihstatus.Meta{}, "staff", now)

		require.NoError(t, err)
		assert.True(t, tr.Status().IsTerminal())
	})

	t.Run("general note does not satisfy the precondition", func(t *testing.T) {
		tr := received(t)
		note, _ := ihstatus.NewNote("called dealer", "staff", ihstatus.NoteGeneral, now)
		tr.AddNote(note)

		_, err := tr.Advance(ihstatus.OrderComplete, ihstatus.Meta{}, "staff", now)

		require.ErrorIs(t, err, ihstatus.ErrInvalidTransition)
	})

	t.Run("tracking supplied now is stored", func(t *testing.T) {
		tr := received(t)

		_, err := tr.Advance(ihstatus.OrderComplete, ihstatus.Meta{TrackingNumber: "9400111899223197428490"}, "staff", now)

		require.NoError(t, err)
		assert.Equal(t, "9400111899223197428490", tr.TrackingNumber())
	})

	t.Run("tracking from outbound is reused", func(t *testing.T) {
		tr := received(t)
		_, err := tr.Advance(ihstatus.SentOutbound, ihstatus.Meta{Carrier: "FEDEX", TrackingNumber: "771234567890"}, "staff", now)
		require.NoError(t, err)

		_, err = tr.Advance(ihstatus.OrderComplete, ihstatus.Meta{}, "staff", now)

		require.NoError(t, err)
		assert.Equal(t, 3, tr.Version())
	})

	t.Run("terminal state rejects everything", func(t *testing.T) {
		tr := received(t)
		_, err := tr.Advance(ihstatus.OrderComplete, ihstatus.Meta{TrackingNumber: "771234567890"}, "staff", now)
		require.NoError(t, err)

		for _, target := range []ihstatus.Status{ihstatus.ReceivedFromRSR, ihstatus.SentOutbound, ihstatus.OrderComplete} {
			_, err := tr.Advance(target, ihstatus.Meta{Carrier: "UPS", TrackingNumber: "1Z999AA10123456784"}, "staff", now)
			requireMissing(t, err, "terminal")
		}
	})
}

func TestTracker_RejectsBackwardAndAnonymous(t *testing.T) {
	tr := received(t)

	_, err := tr.Advance(ihstatus.Unset, ihstatus.Meta{}, "staff", now)
	requireMissing(t, err, "cannot be cleared")

	_, err = tr.Advance(ihstatus.SentOutbound, ihstatus.Meta{Carrier: "UPS", TrackingNumber: "1Z999AA10123456784"}, "", now)
	requireMissing(t, err, "actor")

	_, err = tr.Advance(ihstatus.Status(9), ihstatus.Meta{}, "staff", now)
	require.ErrorIs(t, err, ihstatus.ErrInvalidTransition)
}

func TestRestoreTracker(t *testing.T) {
	note, _ := ihstatus.NewNote("left at dock", "staff", ihstatus.NoteGeneral, now)

	tr, err := ihstatus.RestoreTracker(ihstatus.SentOutbound, ihstatus.CarrierUSPS, "9400111899223197428490", 2, []ihstatus.Note{note})
	require.NoError(t, err)
	assert.Len(t, tr.Notes(), 1)
	assert.Equal(t, 2, tr.Version())

	_, err = ihstatus.RestoreTracker(ihstatus.Status(7), "", "", 0, nil)
	require.Error(t, err)

	_, err = ihstatus.RestoreTracker(ihstatus.SentOutbound, "PIGEON", "", 0, nil)
	require.Error(t, err)
}
