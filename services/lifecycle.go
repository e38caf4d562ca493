package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/yeremiapane/table-reservation/metrics"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
)

// TransitionOptions are the optional changes an admin may apply while
// moving a booking to a new status.
type TransitionOptions struct {
	TableNumber *int
	Payment     *PaymentClaim
}

// LifecycleController guards every status change and table assignment with
// the caller's permissions before handing the write to the ledger.
type LifecycleController struct {
	ledger   *BookingLedger
	gate     *PaymentGate
	claims   *PaymentClaims
	unbooked *UnbookedLedger
	notifier Notifier
}

func NewLifecycleController(ledger *BookingLedger, gate *PaymentGate, claims *PaymentClaims, unbooked *UnbookedLedger, notifier Notifier) *LifecycleController {
	return &LifecycleController{
		ledger:   ledger,
		gate:     gate,
		claims:   claims,
		unbooked: unbooked,
		notifier: notifier,
	}
}

func authorizeTransition(p models.Principal, b *models.Booking, target string) error {
	if p.IsAdmin() {
		return nil
	}
	if target == models.BookingStatusCancelled && b.Status == models.BookingStatusPending && p.Owns(b) {
		return nil
	}
	return ErrForbidden
}

// Transition moves booking id to target. Checks run in order: existence,
// lifecycle validity, permission, table precheck, payment verification,
// then the write.
func (lc *LifecycleController) Transition(ctx context.Context, id, target string, p models.Principal, opts TransitionOptions) (*models.Booking, error) {
	if !lo.Contains(models.BookingStatuses, target) {
		return nil, Invalid("status", "must be one of %s", strings.Join(models.BookingStatuses, ", "))
	}
	current, err := lc.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, target)
	}
	if err := authorizeTransition(p, current, target); err != nil {
		return nil, err
	}
	if opts.TableNumber != nil {
		if !p.IsAdmin() {
			return nil, ErrForbidden
		}
		if *opts.TableNumber <= 0 {
			return nil, Invalid("table_number", "must be a positive integer")
		}
		if target != models.BookingStatusConfirmed {
			return nil, Invalid("table_number", "is only accepted when confirming a booking")
		}
	}
	if opts.Payment != nil && target != models.BookingStatusConfirmed {
		return nil, Invalid("payment", "is only accepted when confirming a booking")
	}
	if target == models.BookingStatusConfirmed && opts.Payment == nil && !current.Payment.Verified {
		return nil, ErrPaymentRequired
	}

	// Refuse a table that cannot take the booking before any payment is
	// examined. The ledger repeats the check under lock.
	if opts.TableNumber != nil {
		if err := lc.ledger.PrecheckTable(ctx, current, *opts.TableNumber); err != nil {
			return nil, err
		}
	}

	extra := TransitionExtra{From: current.Status, TableNumber: opts.TableNumber}

	if opts.Payment != nil {
		receipt, err := lc.gate.Verify(ctx, *opts.Payment)
		if err != nil {
			return nil, err
		}
		if current.Payment.Amount > 0 && receipt.Amount != current.Payment.Amount {
			return nil, fmt.Errorf("%w: paid %d, expected %d", ErrAmountMismatch, receipt.Amount, current.Payment.Amount)
		}
		if err := lc.claims.Acquire(ctx, receipt.PaymentID, id); err != nil {
			return nil, err
		}
		extra.Payment = receipt

		updated, err := lc.ledger.Transition(ctx, id, target, extra)
		if err != nil {
			lc.claims.Release(ctx, receipt.PaymentID, id)
			return nil, lc.paidButUnbooked(ctx, current, receipt, err)
		}
		lc.after(ctx, current.Status, updated)
		return updated, nil
	}

	updated, err := lc.ledger.Transition(ctx, id, target, extra)
	if err != nil {
		return nil, err
	}
	lc.after(ctx, current.Status, updated)
	return updated, nil
}

// Cancel cancels a booking. Owners may cancel their own pending bookings;
// confirmed bookings can only be cancelled by an admin.
func (lc *LifecycleController) Cancel(ctx context.Context, id string, p models.Principal) (*models.Booking, error) {
	return lc.Transition(ctx, id, models.BookingStatusCancelled, p, TransitionOptions{})
}

// AssignTable sets or replaces the table of a pending or confirmed booking.
func (lc *LifecycleController) AssignTable(ctx context.Context, id string, tableNumber int, p models.Principal) (*models.Booking, error) {
	current, err := lc.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Holds() {
		return nil, fmt.Errorf("%w: cannot assign a table to a %s booking", ErrInvalidTransition, current.Status)
	}
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}

	updated, err := lc.ledger.AssignTable(ctx, id, tableNumber)
	if err != nil {
		return nil, err
	}
	notify(ctx, lc.notifier, models.NewBookingEvent(models.EventTableAssigned, updated))
	return updated, nil
}

func (lc *LifecycleController) after(ctx context.Context, from string, b *models.Booking) {
	metrics.BookingTransitions.WithLabelValues(from, b.Status).Inc()

	var eventType string
	switch b.Status {
	case models.BookingStatusConfirmed:
		eventType = models.EventBookingConfirmed
	case models.BookingStatusCompleted:
		eventType = models.EventBookingCompleted
	case models.BookingStatusCancelled:
		eventType = models.EventBookingCancelled
	default:
		return
	}
	notify(ctx, lc.notifier, models.NewBookingEvent(eventType, b))
}

// paidButUnbooked reports a verified admin-supplied payment that could not be
// applied. A payment already spent on another booking is not an incident.
func (lc *LifecycleController) paidButUnbooked(ctx context.Context, b *models.Booking, receipt *VerifiedReceipt, cause error) error {
	if errors.Is(cause, ErrPaymentAlreadyUsed) {
		utils.ErrorLogger.WithField("booking_id", b.ID).Warnf("Confirmation rejected: %v", cause)
		return cause
	}
	return lc.unbooked.Record(ctx, b.UserID, receipt, BookingDraft{
		TableNumber: b.TableNumber,
		Date:        b.Date,
		Time:        b.Time,
	}, cause)
}
