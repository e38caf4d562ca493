package services

import "gorm.io/gorm"

// Core bundles the reservation components sharing one database.
type Core struct {
	Tables       *TableRegistry
	Availability *AvailabilityResolver
	Gate         *PaymentGate
	Ledger       *BookingLedger
	Unbooked     *UnbookedLedger
	Lifecycle    *LifecycleController
	Reservations *ReservationService
}

// NewCore wires the components. claims and notifier may be nil.
func NewCore(db *gorm.DB, limits Limits, gate *PaymentGate, claims *PaymentClaims, notifier Notifier) *Core {
	tables := NewTableRegistry(db, limits)
	ledger := NewBookingLedger(db, limits)
	unbooked := NewUnbookedLedger(db, notifier)
	return &Core{
		Tables:       tables,
		Availability: NewAvailabilityResolver(db, tables, limits),
		Gate:         gate,
		Ledger:       ledger,
		Unbooked:     unbooked,
		Lifecycle:    NewLifecycleController(ledger, gate, claims, unbooked, notifier),
		Reservations: NewReservationService(ledger, gate, claims, unbooked, notifier),
	}
}
