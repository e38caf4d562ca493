package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingDraft is a booking request before anything is stored.
type BookingDraft struct {
	UserID          uint
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	PartySize       int
	Date            string
	Time            string
	TableNumber     *int
	Area            string
	SpecialRequests string
	// Amount is the price the client was charged, in minor units.
	Amount   int64
	Currency string
}

// TransitionExtra carries the optional changes applied with a transition.
type TransitionExtra struct {
	// From, when set, must match the stored status at write time.
	From        string
	TableNumber *int
	Payment     *VerifiedReceipt
}

// BookingFilter narrows ListAll. Empty fields match everything.
type BookingFilter struct {
	Date   string
	Status string
	UserID uint
}

var transitions = map[string][]string{
	models.BookingStatusPending:   {models.BookingStatusConfirmed, models.BookingStatusCancelled},
	models.BookingStatusConfirmed: {models.BookingStatusCompleted, models.BookingStatusCancelled},
}

// CanTransition reports whether the lifecycle allows from -> to.
func CanTransition(from, to string) bool {
	return lo.Contains(transitions[from], to)
}

// BookingLedger is the only writer of bookings.
type BookingLedger struct {
	db     *gorm.DB
	limits Limits
	newID  func() string
}

func NewBookingLedger(db *gorm.DB, limits Limits) *BookingLedger {
	return &BookingLedger{
		db:     db,
		limits: limits,
		newID:  func() string { return uuid.New().String() },
	}
}

func (l *BookingLedger) validateDraft(d BookingDraft) error {
	if err := validateGuest(d.GuestName, d.GuestEmail, d.GuestPhone); err != nil {
		return err
	}
	if err := l.limits.validateSlot(d.Date, d.Time); err != nil {
		return err
	}
	if err := l.limits.validatePartySize(d.PartySize); err != nil {
		return err
	}
	if d.Area != "" {
		if err := validateArea("area", d.Area); err != nil {
			return err
		}
	}
	if d.TableNumber != nil && *d.TableNumber <= 0 {
		return Invalid("table_number", "must be a positive integer")
	}
	if d.Amount < 0 {
		return Invalid("amount", "must not be negative")
	}
	return nil
}

func (l *BookingLedger) newBooking(d BookingDraft, status string) models.Booking {
	return models.Booking{
		ID:              l.newID(),
		UserID:          d.UserID,
		GuestName:       strings.TrimSpace(d.GuestName),
		GuestEmail:      strings.TrimSpace(d.GuestEmail),
		GuestPhone:      strings.TrimSpace(d.GuestPhone),
		PartySize:       d.PartySize,
		Date:            d.Date,
		Time:            d.Time,
		TableNumber:     d.TableNumber,
		Area:            d.Area,
		SpecialRequests: d.SpecialRequests,
		Status:          status,
	}
}

// Create stores a confirmed booking paid by receipt. The conflict check and
// the insert share one transaction; the unique slot and payment indexes
// catch whatever a concurrent request slips past the check.
func (l *BookingLedger) Create(ctx context.Context, draft BookingDraft, receipt *VerifiedReceipt) (*models.Booking, error) {
	if err := l.validateDraft(draft); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, ErrPaymentRequired
	}
	if receipt.Amount != draft.Amount {
		return nil, fmt.Errorf("%w: paid %d, expected %d", ErrAmountMismatch, receipt.Amount, draft.Amount)
	}

	booking := l.newBooking(draft, models.BookingStatusConfirmed)
	applyReceipt(&booking, receipt)

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePaymentUnused(tx, receipt.PaymentID, ""); err != nil {
			return err
		}
		if booking.TableNumber != nil {
			if err := claimTable(tx, &booking, *booking.TableNumber); err != nil {
				return err
			}
		}
		booking.SyncSlotKey()
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		return settleIncidents(tx, receipt.PaymentID, booking.ID)
	})
	if err != nil {
		return nil, l.classify(ctx, err, receipt.PaymentID)
	}

	utils.InfoLogger.WithFields(bookingFields(&booking)).Info("Booking created")
	return &booking, nil
}

// CreatePending stores an unpaid pending booking, used for manual bookings
// taken by staff. Draft.Amount is kept as the expected price.
func (l *BookingLedger) CreatePending(ctx context.Context, draft BookingDraft) (*models.Booking, error) {
	if err := l.validateDraft(draft); err != nil {
		return nil, err
	}

	booking := l.newBooking(draft, models.BookingStatusPending)
	booking.Payment.Amount = draft.Amount
	booking.Payment.Currency = strings.ToUpper(draft.Currency)

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if booking.TableNumber != nil {
			if err := claimTable(tx, &booking, *booking.TableNumber); err != nil {
				return err
			}
		}
		booking.SyncSlotKey()
		return tx.Create(&booking).Error
	})
	if err != nil {
		return nil, l.classify(ctx, err, "")
	}

	utils.InfoLogger.WithFields(bookingFields(&booking)).Info("Pending booking created")
	return &booking, nil
}

// Precheck runs the table checks of Create without writing anything, so a
// request that cannot succeed is refused before its payment is examined.
func (l *BookingLedger) Precheck(ctx context.Context, draft BookingDraft) error {
	if draft.TableNumber == nil {
		return nil
	}
	candidate := models.Booking{Date: draft.Date, Time: draft.Time, PartySize: draft.PartySize}
	return claimTable(l.db.WithContext(ctx), &candidate, *draft.TableNumber)
}

// PrecheckTable is Precheck for an existing booking about to move to
// tableNumber. The booking's own hold does not count as a conflict.
func (l *BookingLedger) PrecheckTable(ctx context.Context, b *models.Booking, tableNumber int) error {
	candidate := *b
	return claimTable(l.db.WithContext(ctx), &candidate, tableNumber)
}

// FindByID returns the booking or ErrBookingNotFound.
func (l *BookingLedger) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := l.db.WithContext(ctx).Take(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

// ListForUser returns the bookings owned by userID, newest slot first.
func (l *BookingLedger) ListForUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	return l.ListAll(ctx, BookingFilter{UserID: userID})
}

func (l *BookingLedger) ListAll(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	query := l.db.WithContext(ctx).Model(&models.Booking{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Date != "" {
		query = query.Where("date = ?", filter.Date)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var bookings []models.Booking
	if err := query.Order("date DESC, time DESC, created_at DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// Cancel moves a pending or confirmed booking to cancelled and frees its
// table for the slot.
func (l *BookingLedger) Cancel(ctx context.Context, id string, from string) (*models.Booking, error) {
	return l.Transition(ctx, id, models.BookingStatusCancelled, TransitionExtra{From: from})
}

// Transition re-reads the booking under lock and applies target together
// with the extra changes, or leaves the row untouched.
func (l *BookingLedger) Transition(ctx context.Context, id, target string, extra TransitionExtra) (*models.Booking, error) {
	var booking models.Booking
	paymentID := ""
	if extra.Payment != nil {
		paymentID = extra.Payment.PaymentID
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBooking(tx, id, &booking); err != nil {
			return err
		}
		if extra.From != "" && booking.Status != extra.From {
			return fmt.Errorf("%w: booking is now %s", ErrInvalidTransition, booking.Status)
		}
		if !CanTransition(booking.Status, target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
		}

		if extra.Payment != nil {
			if booking.Payment.Verified {
				return Invalid("payment", "booking already carries a verified payment")
			}
			if booking.Payment.Amount > 0 && extra.Payment.Amount != booking.Payment.Amount {
				return fmt.Errorf("%w: paid %d, expected %d", ErrAmountMismatch, extra.Payment.Amount, booking.Payment.Amount)
			}
			if err := ensurePaymentUnused(tx, extra.Payment.PaymentID, booking.ID); err != nil {
				return err
			}
			applyReceipt(&booking, extra.Payment)
		}
		if target == models.BookingStatusConfirmed && !booking.Payment.Verified {
			return ErrPaymentRequired
		}

		booking.Status = target
		if extra.TableNumber != nil {
			if target != models.BookingStatusConfirmed {
				return Invalid("table_number", "is only accepted when confirming a booking")
			}
			if err := claimTable(tx, &booking, *extra.TableNumber); err != nil {
				return err
			}
		}
		booking.SyncSlotKey()
		if err := tx.Save(&booking).Error; err != nil {
			return err
		}
		return settleIncidents(tx, paymentID, booking.ID)
	})
	if err != nil {
		return nil, l.classify(ctx, err, paymentID)
	}

	utils.InfoLogger.WithFields(bookingFields(&booking)).Infof("Booking moved to %s", target)
	return &booking, nil
}

// AssignTable sets or replaces the table of a pending or confirmed booking.
func (l *BookingLedger) AssignTable(ctx context.Context, id string, tableNumber int) (*models.Booking, error) {
	if tableNumber <= 0 {
		return nil, Invalid("table_number", "must be a positive integer")
	}

	var booking models.Booking
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBooking(tx, id, &booking); err != nil {
			return err
		}
		if !booking.Holds() {
			return fmt.Errorf("%w: cannot assign a table to a %s booking", ErrInvalidTransition, booking.Status)
		}
		if err := claimTable(tx, &booking, tableNumber); err != nil {
			return err
		}
		booking.SyncSlotKey()
		return tx.Save(&booking).Error
	})
	if err != nil {
		return nil, l.classify(ctx, err, "")
	}

	utils.InfoLogger.WithFields(bookingFields(&booking)).Info("Table assigned")
	return &booking, nil
}

func lockBooking(tx *gorm.DB, id string, booking *models.Booking) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(booking, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrBookingNotFound
	}
	return err
}

// claimTable checks that tableNumber can seat booking at its slot and
// points the booking at it.
func claimTable(tx *gorm.DB, booking *models.Booking, tableNumber int) error {
	var table models.Table
	if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Take(&table, "number = ?", tableNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrTableNotFound, tableNumber)
		}
		return err
	}
	if !table.Active {
		return fmt.Errorf("%w: table %d is not in service", ErrTableUnavailable, tableNumber)
	}

	conflict, err := findConflict(tx, tableNumber, booking.Date, booking.Time, booking.ID)
	if err != nil {
		return err
	}
	if conflict != nil {
		return fmt.Errorf("%w: table %d is held at %s %s", ErrTableUnavailable, tableNumber, booking.Date, booking.Time)
	}
	if booking.PartySize > table.Capacity {
		return fmt.Errorf("%w: party of %d, table %d seats %d", ErrCapacityExceeded, booking.PartySize, tableNumber, table.Capacity)
	}

	booking.TableNumber = &tableNumber
	booking.Area = table.Area
	return nil
}

func ensurePaymentUnused(tx *gorm.DB, paymentID, exceptID string) error {
	if paymentID == "" {
		return nil
	}
	query := tx.Model(&models.Booking{}).Where("payment_payment_id = ?", paymentID)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPaymentAlreadyUsed
	}
	return nil
}

// settleIncidents closes the open unbooked incidents of a payment that has
// now been spent on bookingID, so it is not refunded as well.
func settleIncidents(tx *gorm.DB, paymentID, bookingID string) error {
	if paymentID == "" {
		return nil
	}
	res := tx.Model(&models.UnbookedPayment{}).
		Where("payment_id = ? AND resolved = ?", paymentID, false).
		Updates(map[string]interface{}{"resolved": true, "booking_id": bookingID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		utils.InfoLogger.WithFields(logrus.Fields{
			"payment_id": paymentID,
			"booking_id": bookingID,
		}).Infof("Settled %d unbooked incident(s) by a later booking", res.RowsAffected)
	}
	return nil
}

func applyReceipt(booking *models.Booking, receipt *VerifiedReceipt) {
	paymentID := receipt.PaymentID
	verifiedAt := receipt.VerifiedAt
	booking.Payment = models.PaymentRecord{
		OrderID:    receipt.OrderID,
		PaymentID:  &paymentID,
		Amount:     receipt.Amount,
		Currency:   receipt.Currency,
		Verified:   true,
		VerifiedAt: &verifiedAt,
	}
}

// classify turns a unique index violation into the domain error for the
// index that fired. The transaction has been rolled back by now, so the
// lookup sees only committed rows.
func (l *BookingLedger) classify(ctx context.Context, err error, paymentID string) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if paymentID != "" {
		var count int64
		if lookupErr := l.db.WithContext(ctx).Model(&models.Booking{}).
			Where("payment_payment_id = ?", paymentID).Count(&count).Error; lookupErr == nil && count > 0 {
			return ErrPaymentAlreadyUsed
		}
	}
	return fmt.Errorf("%w: slot taken by a concurrent booking", ErrTableUnavailable)
}

func bookingFields(b *models.Booking) logrus.Fields {
	fields := logrus.Fields{
		"booking_id": b.ID,
		"status":     b.Status,
		"date":       b.Date,
		"slot_time":  b.Time,
	}
	if b.TableNumber != nil {
		fields["table"] = *b.TableNumber
	}
	if b.Payment.PaymentID != nil {
		fields["payment_id"] = *b.Payment.PaymentID
	}
	return fields
}
