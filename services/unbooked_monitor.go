package services

import (
	"context"
	"time"

	"github.com/yeremiapane/table-reservation/metrics"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
	"gorm.io/gorm"
)

// UnbookedMonitor periodically reports captured payments still waiting for
// a refund, so they stay visible until an operator resolves them.
type UnbookedMonitor struct {
	db       *gorm.DB
	Interval time.Duration
}

func NewUnbookedMonitor(db *gorm.DB) *UnbookedMonitor {
	return &UnbookedMonitor{db: db, Interval: 5 * time.Minute}
}

// Run checks once immediately and then on every tick until ctx is done.
func (m *UnbookedMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		if _, err := m.Check(ctx); err != nil && ctx.Err() == nil {
			utils.ErrorLogger.Errorf("Error checking unbooked payments: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Check counts open incidents and publishes the figure.
func (m *UnbookedMonitor) Check(ctx context.Context) (int64, error) {
	var open int64
	err := m.db.WithContext(ctx).Model(&models.UnbookedPayment{}).
		Where("resolved = ?", false).
		Count(&open).Error
	if err != nil {
		return 0, err
	}

	metrics.UnbookedOpen.Set(float64(open))
	if open > 0 {
		utils.ErrorLogger.Warnf("%d captured payments are waiting for a refund", open)
	}
	return open, nil
}
