package models

import "time"

// Booking event types published to the admin feed and the broker.
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCompleted = "booking.completed"
	EventBookingCancelled = "booking.cancelled"
	EventTableAssigned    = "booking.table_assigned"
	EventPaymentUnbooked  = "payment.unbooked"
)

// BookingEvent is a best-effort notification about a booking change.
type BookingEvent struct {
	Type        string    `json:"type"`
	BookingID   string    `json:"booking_id,omitempty"`
	UserID      uint      `json:"user_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	TableNumber *int      `json:"table_number,omitempty"`
	Date        string    `json:"date,omitempty"`
	Time        string    `json:"time,omitempty"`
	PartySize   int       `json:"party_size,omitempty"`
	GuestEmail  string    `json:"guest_email,omitempty"`
	PaymentID   string    `json:"payment_id,omitempty"`
	Amount      int64     `json:"amount,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewBookingEvent builds an event of type eventType describing b.
func NewBookingEvent(eventType string, b *Booking) BookingEvent {
	ev := BookingEvent{
		Type:        eventType,
		BookingID:   b.ID,
		UserID:      b.UserID,
		Status:      b.Status,
		TableNumber: b.TableNumber,
		Date:        b.Date,
		Time:        b.Time,
		PartySize:   b.PartySize,
		GuestEmail:  b.GuestEmail,
		Amount:      b.Payment.Amount,
		Currency:    b.Payment.Currency,
		OccurredAt:  time.Now().UTC(),
	}
	if b.Payment.PaymentID != nil {
		ev.PaymentID = *b.Payment.PaymentID
	}
	return ev
}
