package services

import (
	"errors"
	"fmt"
)

// Kind groups errors by how callers should react to them.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindPayment           Kind = "payment"
	KindConflict          Kind = "conflict"
	KindAuthorization     Kind = "authorization"
	KindNotFound          Kind = "not_found"
	KindInvalidTransition Kind = "invalid_transition"
	KindUpstream          Kind = "upstream"
	KindPaidButUnbooked   Kind = "paid_but_unbooked"
	KindInternal          Kind = "internal"
)

// Error is a typed failure of the reservation core. Sentinels below are
// compared with errors.Is and usually wrapped with extra context.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrValidation       = newError(KindValidation, "validation_failed", "invalid input")
	ErrCapacityExceeded = newError(KindValidation, "capacity_exceeded", "party size exceeds table capacity")

	ErrInvalidSignature     = newError(KindPayment, "invalid_signature", "payment signature is invalid")
	ErrPaymentNotCompleted  = newError(KindPayment, "payment_not_completed", "payment has not been captured")
	ErrAmountMismatch       = newError(KindPayment, "amount_mismatch", "paid amount does not match the booking price")
	ErrPaymentOrderMismatch = newError(KindPayment, "payment_order_mismatch", "payment does not belong to the given order")
	ErrPaymentAlreadyUsed   = newError(KindPayment, "payment_already_used", "payment has already been used for a booking")
	ErrPaymentRequired      = newError(KindPayment, "payment_required", "a verified payment is required to confirm the booking")

	ErrTableUnavailable     = newError(KindConflict, "table_unavailable", "table is not available for the requested slot")
	ErrDuplicateTableNumber = newError(KindConflict, "duplicate_table_number", "table number already exists")
	ErrTableInUse           = newError(KindConflict, "table_in_use", "table is referenced by an active booking")

	ErrForbidden = newError(KindAuthorization, "forbidden", "you do not have permission")

	ErrBookingNotFound  = newError(KindNotFound, "booking_not_found", "booking not found")
	ErrTableNotFound    = newError(KindNotFound, "table_not_found", "table not found")
	ErrIncidentNotFound = newError(KindNotFound, "incident_not_found", "unbooked payment not found")

	ErrInvalidTransition = newError(KindInvalidTransition, "invalid_transition", "booking status transition is not allowed")

	ErrProcessorUnavailable = newError(KindUpstream, "processor_unavailable", "payment processor is unavailable")
)

// Invalid builds a validation error for a single input field.
func Invalid(field, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s %s", ErrValidation, field, fmt.Sprintf(format, args...))
}

// PaidButUnbookedError is returned when a payment was verified as captured
// but the booking could not be written afterwards. The refund workflow that
// reacts to it lives outside this service.
type PaidButUnbookedError struct {
	OrderID   string
	PaymentID string
	Amount    int64
	Currency  string
	Cause     error
}

func (e *PaidButUnbookedError) Error() string {
	return fmt.Sprintf("payment %s captured but booking not created: %v", e.PaymentID, e.Cause)
}

func (e *PaidButUnbookedError) Unwrap() error {
	return e.Cause
}

// KindOf classifies err. PaidButUnbooked wins over the kind of its cause.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pbu *PaidButUnbookedError
	if errors.As(err, &pbu) {
		return KindPaidButUnbooked
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the machine readable code of the innermost typed error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal_error"
}
