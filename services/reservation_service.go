package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/yeremiapane/table-reservation/metrics"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
)

// BookingRequest is a customer's paid booking request.
type BookingRequest struct {
	Draft   BookingDraft
	Payment PaymentClaim
}

// ReservationService admits bookings: validate, verify the payment, write.
type ReservationService struct {
	ledger   *BookingLedger
	gate     *PaymentGate
	claims   *PaymentClaims
	unbooked *UnbookedLedger
	notifier Notifier
}

func NewReservationService(ledger *BookingLedger, gate *PaymentGate, claims *PaymentClaims, unbooked *UnbookedLedger, notifier Notifier) *ReservationService {
	return &ReservationService{
		ledger:   ledger,
		gate:     gate,
		claims:   claims,
		unbooked: unbooked,
		notifier: notifier,
	}
}

// CreateBooking admits a payment-gated booking for p. The expected price is
// the configured deposit, or the amount the client declares when none is
// set. Nothing is written unless the payment verifies; a failure after
// verification comes back as a *PaidButUnbookedError.
func (s *ReservationService) CreateBooking(ctx context.Context, p models.Principal, req BookingRequest) (*models.Booking, error) {
	draft := req.Draft
	draft.UserID = p.UserID
	switch {
	case s.ledger.limits.Deposit > 0:
		draft.Amount = s.ledger.limits.Deposit
	case draft.Amount == 0:
		draft.Amount = req.Payment.Amount
	}

	if err := s.ledger.validateDraft(draft); err != nil {
		s.reject(err)
		return nil, err
	}
	if err := s.ledger.Precheck(ctx, draft); err != nil {
		s.reject(err)
		return nil, err
	}

	start := time.Now()
	receipt, err := s.gate.Verify(ctx, req.Payment)
	outcome := "verified"
	if err != nil {
		outcome = CodeOf(err)
	}
	metrics.PaymentVerifyDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		s.reject(err)
		return nil, err
	}

	if receipt.Amount != draft.Amount {
		err := fmt.Errorf("%w: paid %d, expected %d", ErrAmountMismatch, receipt.Amount, draft.Amount)
		s.reject(err)
		return nil, err
	}

	claimOwner := uuid.NewString()
	if err := s.claims.Acquire(ctx, receipt.PaymentID, claimOwner); err != nil {
		s.reject(err)
		return nil, err
	}

	booking, err := s.ledger.Create(ctx, draft, receipt)
	if err != nil {
		s.claims.Release(ctx, receipt.PaymentID, claimOwner)
		s.reject(err)
		if errors.Is(err, ErrPaymentAlreadyUsed) {
			return nil, err
		}
		return nil, s.unbooked.Record(ctx, p.UserID, receipt, draft, err)
	}

	metrics.BookingsCreated.WithLabelValues("paid").Inc()
	notify(ctx, s.notifier, models.NewBookingEvent(models.EventBookingCreated, booking))
	return booking, nil
}

// CreateManual stores an unpaid pending booking on behalf of a guest.
func (s *ReservationService) CreateManual(ctx context.Context, p models.Principal, draft BookingDraft) (*models.Booking, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	if draft.UserID == 0 {
		draft.UserID = p.UserID
	}
	if draft.Amount == 0 {
		draft.Amount = s.ledger.limits.Deposit
	}

	booking, err := s.ledger.CreatePending(ctx, draft)
	if err != nil {
		return nil, err
	}

	metrics.BookingsCreated.WithLabelValues("manual").Inc()
	notify(ctx, s.notifier, models.NewBookingEvent(models.EventBookingCreated, booking))
	return booking, nil
}

// Get returns a booking visible to p.
func (s *ReservationService) Get(ctx context.Context, id string, p models.Principal) (*models.Booking, error) {
	booking, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !p.Owns(booking) {
		return nil, ErrForbidden
	}
	return booking, nil
}

// List returns every booking for admins and the caller's own otherwise.
func (s *ReservationService) List(ctx context.Context, p models.Principal, filter BookingFilter) ([]models.Booking, error) {
	if filter.Status != "" && !lo.Contains(models.BookingStatuses, filter.Status) {
		return nil, Invalid("status", "is not a booking status")
	}
	if !p.IsAdmin() {
		filter.UserID = p.UserID
	}
	return s.ledger.ListAll(ctx, filter)
}

func (s *ReservationService) reject(err error) {
	metrics.AdmissionsRejected.WithLabelValues(CodeOf(err)).Inc()
	utils.InfoLogger.Infof("Booking rejected: %v", err)
}
