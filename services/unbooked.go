package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservation/metrics"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
	"gorm.io/gorm"
)

// UnbookedLedger records payments that were captured but could not be turned
// into a booking, so that a refund can be issued out of band.
type UnbookedLedger struct {
	db       *gorm.DB
	notifier Notifier
}

func NewUnbookedLedger(db *gorm.DB, notifier Notifier) *UnbookedLedger {
	return &UnbookedLedger{db: db, notifier: notifier}
}

// Record wraps cause in a PaidButUnbookedError and persists the incident.
// Storage failures are logged; the returned error is always the wrapped one.
func (u *UnbookedLedger) Record(ctx context.Context, userID uint, receipt *VerifiedReceipt, slot BookingDraft, cause error) error {
	pbu := &PaidButUnbookedError{
		OrderID:   receipt.OrderID,
		PaymentID: receipt.PaymentID,
		Amount:    receipt.Amount,
		Currency:  receipt.Currency,
		Cause:     cause,
	}

	metrics.PaidButUnbooked.Inc()
	utils.ErrorLogger.WithFields(logrus.Fields{
		"order_id":   receipt.OrderID,
		"payment_id": receipt.PaymentID,
		"amount":     utils.FormatAmount(receipt.Amount, receipt.Currency),
		"reason":     CodeOf(cause),
	}).Errorf("Payment captured but booking not created: %v", cause)

	incident := models.UnbookedPayment{
		UserID:      userID,
		OrderID:     receipt.OrderID,
		PaymentID:   receipt.PaymentID,
		Amount:      receipt.Amount,
		Currency:    receipt.Currency,
		TableNumber: slot.TableNumber,
		Date:        slot.Date,
		Time:        slot.Time,
		Reason:      CodeOf(cause),
		Details:     cause.Error(),
	}
	// Context may already be cancelled; the incident must still be kept.
	if err := u.db.WithContext(context.WithoutCancel(ctx)).Create(&incident).Error; err != nil {
		utils.ErrorLogger.WithField("payment_id", receipt.PaymentID).Errorf("Error recording unbooked payment: %v", err)
	}

	notify(ctx, u.notifier, models.BookingEvent{
		Type:        models.EventPaymentUnbooked,
		UserID:      userID,
		TableNumber: slot.TableNumber,
		Date:        slot.Date,
		Time:        slot.Time,
		PaymentID:   receipt.PaymentID,
		Amount:      receipt.Amount,
		Currency:    receipt.Currency,
		Reason:      incident.Reason,
		OccurredAt:  time.Now().UTC(),
	})
	return pbu
}

// List returns recorded incidents, unresolved first when onlyOpen is false.
func (u *UnbookedLedger) List(ctx context.Context, onlyOpen bool) ([]models.UnbookedPayment, error) {
	query := u.db.WithContext(ctx).Model(&models.UnbookedPayment{})
	if onlyOpen {
		query = query.Where("resolved = ?", false)
	}
	var incidents []models.UnbookedPayment
	if err := query.Order("resolved ASC, created_at DESC").Find(&incidents).Error; err != nil {
		return nil, err
	}
	return incidents, nil
}

// Resolve marks an incident as handled, typically after a refund.
func (u *UnbookedLedger) Resolve(ctx context.Context, id uint) (*models.UnbookedPayment, error) {
	var incident models.UnbookedPayment
	if err := u.db.WithContext(ctx).First(&incident, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, err
	}
	incident.Resolved = true
	if err := u.db.WithContext(ctx).Save(&incident).Error; err != nil {
		return nil, err
	}
	return &incident, nil
}
