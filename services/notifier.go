package services

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
)

// Notifier receives booking events. Delivery is best effort and never
// affects the outcome of the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, event models.BookingEvent) error
}

// MultiNotifier fans an event out to every non-nil notifier.
type MultiNotifier []Notifier

func NewMultiNotifier(notifiers ...Notifier) MultiNotifier {
	return lo.Filter(notifiers, func(n Notifier, _ int) bool { return n != nil })
}

func (m MultiNotifier) Notify(ctx context.Context, event models.BookingEvent) error {
	lo.ForEach(m, func(n Notifier, _ int) {
		if err := n.Notify(ctx, event); err != nil {
			utils.ErrorLogger.WithField("event", event.Type).Warnf("notification failed: %v", err)
		}
	})
	return nil
}

const notifyTimeout = 5 * time.Second

func notify(ctx context.Context, n Notifier, event models.BookingEvent) {
	if n == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := n.Notify(ctx, event); err != nil {
		utils.ErrorLogger.WithField("event", event.Type).Warnf("notification failed: %v", err)
	}
}
