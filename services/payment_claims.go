package services

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/table-reservation/utils"
)

const claimTTL = 15 * time.Minute

// PaymentClaims keeps two in-flight requests from spending the same payment
// at once. The unique index on the booking's payment id stays the real
// guarantee; a nil client turns every call into a no-op.
type PaymentClaims struct {
	client *redis.Client
}

func NewPaymentClaims(client *redis.Client) *PaymentClaims {
	return &PaymentClaims{client: client}
}

func claimKey(paymentID string) string {
	return "payment_claim:" + paymentID
}

// Acquire claims paymentID for owner. It returns ErrPaymentAlreadyUsed when
// another request holds the claim. Redis failures are logged and ignored.
func (p *PaymentClaims) Acquire(ctx context.Context, paymentID, owner string) error {
	if p == nil || p.client == nil {
		return nil
	}
	ok, err := p.client.SetNX(ctx, claimKey(paymentID), owner, claimTTL).Result()
	if err != nil {
		utils.ErrorLogger.WithField("payment_id", paymentID).Warnf("payment claim skipped: %v", err)
		return nil
	}
	if !ok {
		return ErrPaymentAlreadyUsed
	}
	return nil
}

// Release drops the claim if owner still holds it.
func (p *PaymentClaims) Release(ctx context.Context, paymentID, owner string) {
	if p == nil || p.client == nil {
		return
	}
	key := claimKey(paymentID)
	val, err := p.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return
	}
	if err != nil {
		utils.ErrorLogger.WithField("payment_id", paymentID).Warnf("payment claim release failed: %v", err)
		return
	}
	if val == owner {
		if err := p.client.Del(ctx, key).Err(); err != nil {
			utils.ErrorLogger.WithField("payment_id", paymentID).Warnf("payment claim release failed: %v", err)
		}
	}
}
