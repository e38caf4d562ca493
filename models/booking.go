package models

import (
	"fmt"
	"time"
)

// Booking lifecycle states.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Layouts for the zone-naive booking slot.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// PaymentRecord is the processor-verified payment embedded in a booking.
type PaymentRecord struct {
	OrderID    string     `gorm:"type:varchar(100)" json:"order_id,omitempty"`
	PaymentID  *string    `gorm:"type:varchar(100);uniqueIndex" json:"payment_id,omitempty"`
	Amount     int64      `gorm:"not null;default:0" json:"amount"`
	Currency   string     `gorm:"type:varchar(10)" json:"currency,omitempty"`
	Verified   bool       `gorm:"not null;default:false" json:"verified"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

type Booking struct {
	ID              string        `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	GuestName       string        `gorm:"type:varchar(255);not null" json:"guest_name"`
	GuestEmail      string        `gorm:"type:varchar(255);not null" json:"guest_email"`
	GuestPhone      string        `gorm:"type:varchar(50);not null" json:"guest_phone"`
	PartySize       int           `gorm:"not null" json:"party_size"`
	Date            string        `gorm:"type:varchar(10);not null;index:idx_booking_slot" json:"date"`
	Time            string        `gorm:"type:varchar(5);not null;index:idx_booking_slot" json:"time"`
	TableNumber     *int          `gorm:"index" json:"table_number,omitempty"`
	Area            string        `gorm:"type:varchar(20)" json:"area,omitempty"`
	SpecialRequests string        `gorm:"type:text" json:"special_requests,omitempty"`
	Status          string        `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Payment         PaymentRecord `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	// SlotKey is set only while the booking holds its table; the unique
	// index on it is what rules out double booking.
	SlotKey   *string   `gorm:"type:varchar(40);uniqueIndex" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// Holds reports whether the booking currently counts against its slot.
func (b *Booking) Holds() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// SyncSlotKey recomputes SlotKey from the table, slot and status.
func (b *Booking) SyncSlotKey() {
	if b.TableNumber == nil || !b.Holds() {
		b.SlotKey = nil
		return
	}
	key := SlotKey(*b.TableNumber, b.Date, b.Time)
	b.SlotKey = &key
}

func SlotKey(tableNumber int, date, slot string) string {
	return fmt.Sprintf("%d|%s|%s", tableNumber, date, slot)
}

// HoldingStatuses are the statuses that occupy a table for a slot.
var HoldingStatuses = []string{BookingStatusPending, BookingStatusConfirmed}

var BookingStatuses = []string{BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted}
