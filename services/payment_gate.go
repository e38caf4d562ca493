package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservation/utils"
)

// Processor statuses that count as a completed payment.
const (
	ProcessorStatusCaptured   = "captured"
	ProcessorStatusAuthorized = "authorized"
)

// PaymentClaim is what the client presents after checkout. It is consumed
// once by the gate and never stored as is.
type PaymentClaim struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	// Amount is what the client says it paid, in minor units.
	Amount int64 `json:"amount"`
}

// VerifiedReceipt is a payment the processor confirmed as completed.
type VerifiedReceipt struct {
	OrderID    string
	PaymentID  string
	Amount     int64
	Currency   string
	Status     string
	VerifiedAt time.Time
}

// PaymentGate proves that a client really paid before anything is written.
type PaymentGate struct {
	keySecret []byte
	processor Processor
	now       func() time.Time
}

func NewPaymentGate(keySecret string, processor Processor) *PaymentGate {
	return &PaymentGate{
		keySecret: []byte(keySecret),
		processor: processor,
		now:       time.Now,
	}
}

// Signature computes the hex HMAC-SHA256 of "orderID|paymentID".
func (g *PaymentGate) Signature(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, g.keySecret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature locally, then asks the processor whether the
// payment completed. A bad signature never reaches the network.
func (g *PaymentGate) Verify(ctx context.Context, claim PaymentClaim) (*VerifiedReceipt, error) {
	if claim.OrderID == "" || claim.PaymentID == "" || claim.Signature == "" {
		return nil, fmt.Errorf("%w: order_id, payment_id and signature are required", ErrInvalidSignature)
	}

	log := utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":   claim.OrderID,
		"payment_id": claim.PaymentID,
	})

	expected := g.Signature(claim.OrderID, claim.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(claim.Signature))) {
		log.Warn("Payment signature mismatch")
		return nil, ErrInvalidSignature
	}

	payment, err := g.processor.FetchPayment(ctx, claim.PaymentID)
	if err != nil {
		utils.ErrorLogger.WithField("payment_id", claim.PaymentID).Errorf("Error fetching payment: %v", err)
		return nil, err
	}

	if payment.Status != ProcessorStatusCaptured && payment.Status != ProcessorStatusAuthorized {
		log.Warnf("Payment in status %q", payment.Status)
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotCompleted, payment.Status)
	}
	if payment.OrderID != "" && payment.OrderID != claim.OrderID {
		log.Warnf("Payment belongs to order %s", payment.OrderID)
		return nil, ErrPaymentOrderMismatch
	}

	log.Infof("Payment verified (status=%s, amount=%d)", payment.Status, payment.Amount)
	return &VerifiedReceipt{
		OrderID:    claim.OrderID,
		PaymentID:  claim.PaymentID,
		Amount:     payment.Amount,
		Currency:   strings.ToUpper(payment.Currency),
		Status:     payment.Status,
		VerifiedAt: g.now().UTC(),
	}, nil
}
