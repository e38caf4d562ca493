package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/table-reservation/models"
)

func pendingBooking(t *testing.T, env *testEnv, owner uint, table *int, amount int64) *models.Booking {
	t.Helper()
	draft := draftFor(owner, table, 2)
	draft.Amount = amount
	booking, err := env.core.Reservations.CreateManual(context.Background(), admin, draft)
	require.NoError(t, err)
	return booking
}

func TestLifecycle_OwnerCancelThenAdminConfirm(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, 1, 4)
	booking := pendingBooking(t, env, customer.UserID, intPtr(1), 0)

	cancelled, err := env.core.Lifecycle.Cancel(ctx, booking.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	claim := env.paidClaim(1000)
	_, err = env.core.Lifecycle.Transition(ctx, booking.ID, models.BookingStatusConfirmed, admin, TransitionOptions{Payment: &claim})
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, KindInvalidTransition, KindOf(err))
	assert.Equal(t, 0, env.processor.callCount())

	stored, err := env.core.Ledger.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, stored.Status)
}

func TestLifecycle_ConfirmOntoHeldTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, 9, 4)

	_, err := env.core.Reservations.CreateBooking(ctx, stranger, BookingRequest{Draft: draftFor(0, intPtr(9), 2), Payment: env.paidClaim(1000)})
	require.NoError(t, err)
	calls := env.processor.callCount()

	booking := pendingBooking(t, env, customer.UserID, nil, 0)
	claim := env.paidClaim(1000)
	_, err = env.core.Lifecycle.Transition(ctx, booking.ID, models.BookingStatusConfirmed, admin, TransitionOptions{
		TableNumber: intPtr(9),
		Payment:     &claim,
	})
	require.ErrorIs(t, err, ErrTableUnavailable)
	var pbu *PaidButUnbookedError
	assert.False(t, errors.As(err, &pbu))
	assert.Equal(t, calls, env.processor.callCount())

	stored, err := env.core.Ledger.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)
	assert.Nil(t, stored.TableNumber)
}

func TestLifecycle_TableTakenDuringVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, 9, 4)
	booking := pendingBooking(t, env, customer.UserID, nil, 0)

	env.processor.onFetch = func() {
		_, err := env.core.Ledger.CreatePending(ctx, draftFor(stranger.UserID, intPtr(9), 2))
		require.NoError(t, err)
	}

	claim := env.paidClaim(1000)
	_, err := env.core.Lifecycle.Transition(ctx, booking.ID, models.BookingStatusConfirmed, admin, TransitionOptions{
		TableNumber: intPtr(9),
		Payment:     &claim,
	})
	var pbu *PaidButUnbookedError
	require.True(t, errors.As(err, &pbu))
	assert.ErrorIs(t, err, ErrTableUnavailable)

	stored, err := env.core.Ledger.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)
	assert.False(t, stored.Payment.Verified)

	incidents, err := env.core.Unbooked.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, customer.UserID, incidents[0].UserID)
}

func TestLifecycle_FullLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, 1, 4)
	env.table(t, 2, 4)
	booking := pendingBooking(t, env, customer.UserID, nil, 2500)

	_, err := env.core.Lifecycle.Transition(ctx, booking.ID, models.BookingStatusConfirmed, admin, TransitionOptions{})
	require.ErrorIs(t, err, ErrPaymentRequired)

	short := env.paidClaim(2000)
	_, err = env.core.Lifecycle.Transition(ctx, booking.ID, models.BookingStatusConfirmed, admin, TransitionOptions{Payment: &short})
	require.ErrorIs(t, err, ErrAmountMismatch)
	var pbu *PaidButUnbookedError
	assert.False(t, errors.As(err, &pbu))

	claim := env.paidClaim(2500)
	confirmed, err := env.core.Lifecycle.Transition(ctx, booking.ID, models.BookingStatusConfirmed, admin, TransitionOptions{
		TableNumber: intPtr(2),
		Payment:     &claim,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.TableNumber)
	assert.Equal(t, 2, *confirmed.TableNumber)
	assert.True(t, confirmed.Payment.Verified)

	moved, err := env.core.Lifecycle.AssignTable(ctx, booking.ID, 1, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, *moved.TableNumber)

	completed, err := env.core.Lifecycle.Transition(ctx, booking.ID, models.BookingStatusCompleted, admin, TransitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, completed.Status)

	free, err := env.core.Availability.IsFree(ctx, 1, testDate, testTime)
	require.NoError(t, err)
	assert.True(t, free)

	assert.Equal(t, []string{
		models.EventBookingCreated,
		models.EventBookingConfirmed,
		models.EventTableAssigned,
		models.EventBookingCompleted,
	}, env.notifier.types())
}

func TestLifecycle_Permissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, 1, 4)
	env.table(t, 2, 4)
	booking := pendingBooking(t, env, customer.UserID, intPtr(1), 0)

	claim := env.paidClaim(1000)
	_, err := env.core.Lifecycle.Transition(ctx, booking.ID, models.BookingStatusConfirmed, customer, TransitionOptions{Payment: &claim})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.core.Lifecycle.Cancel(ctx, booking.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.core.Lifecycle.AssignTable(ctx, booking.ID, 2, customer)
	assert.ErrorIs(t, err, ErrForbidden)

	confirmed, err := env.core.Reservations.CreateBooking(ctx, customer, BookingRequest{Draft: draftFor(0, intPtr(2), 2), Payment: env.paidClaim(1000)})
	require.NoError(t, err)

	// Owners may only cancel while the booking is pending.
	_, err = env.core.Lifecycle.Cancel(ctx, confirmed.ID, customer)
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := env.core.Lifecycle.Cancel(ctx, confirmed.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
}

func TestLifecycle_RejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.table(t, 1, 4)
	booking := pendingBooking(t, env, customer.UserID, intPtr(1), 0)
	claim := env.paidClaim(1000)

	tests := []struct {
		name    string
		id      string
		target  string
		opts    TransitionOptions
		wantErr error
	}{
		{name: "unknown status", id: booking.ID, target: "archived", wantErr: ErrValidation},
		{name: "unknown booking", id: "missing", target: models.BookingStatusCancelled, wantErr: ErrBookingNotFound},
		{name: "skip to completed", id: booking.ID, target: models.BookingStatusCompleted, wantErr: ErrInvalidTransition},
		{name: "payment on cancel", id: booking.ID, target: models.BookingStatusCancelled, opts: TransitionOptions{Payment: &claim}, wantErr: ErrValidation},
		{name: "table on cancel", id: booking.ID, target: models.BookingStatusCancelled, opts: TransitionOptions{TableNumber: intPtr(2)}, wantErr: ErrValidation},
		{name: "zero table", id: booking.ID, target: models.BookingStatusConfirmed, opts: TransitionOptions{TableNumber: intPtr(0), Payment: &claim}, wantErr: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.core.Lifecycle.Transition(ctx, tt.id, tt.target, admin, tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := env.core.Ledger.FindByID(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, stored.Status)
}
