package services

import (
	"context"
	"errors"
	"sort"

	"github.com/samber/lo"
	"github.com/yeremiapane/table-reservation/models"
	"gorm.io/gorm"
)

// AvailabilityQuery selects a slot and a party. Area is optional.
type AvailabilityQuery struct {
	Date      string
	Time      string
	PartySize int
	Area      string
}

// AvailabilityResolver computes which active tables can seat a party at a
// slot. Its answer is advisory; BookingLedger repeats the conflict check
// inside its write transaction.
type AvailabilityResolver struct {
	db     *gorm.DB
	tables *TableRegistry
	limits Limits
}

func NewAvailabilityResolver(db *gorm.DB, tables *TableRegistry, limits Limits) *AvailabilityResolver {
	return &AvailabilityResolver{db: db, tables: tables, limits: limits}
}

// FindAvailable returns the eligible tables, smallest first. An empty result
// is a normal outcome, not an error.
func (r *AvailabilityResolver) FindAvailable(ctx context.Context, q AvailabilityQuery) ([]models.Table, error) {
	if err := r.limits.validateSlot(q.Date, q.Time); err != nil {
		return nil, err
	}
	if err := r.limits.validatePartySize(q.PartySize); err != nil {
		return nil, err
	}
	if q.Area != "" {
		if err := validateArea("area", q.Area); err != nil {
			return nil, err
		}
	}

	active, err := r.tables.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	// Step 1: capacity (and area) eligibility.
	eligible := lo.Filter(active, func(t models.Table, _ int) bool {
		return t.Capacity >= q.PartySize && (q.Area == "" || t.Area == q.Area)
	})
	if len(eligible) == 0 {
		return []models.Table{}, nil
	}

	// Step 2: drop tables held at this slot.
	held, err := heldTableNumbers(r.db.WithContext(ctx), q.Date, q.Time)
	if err != nil {
		return nil, err
	}
	heldSet := lo.SliceToMap(held, func(n int) (int, struct{}) { return n, struct{}{} })
	free := lo.Filter(eligible, func(t models.Table, _ int) bool {
		_, taken := heldSet[t.Number]
		return !taken
	})

	sort.SliceStable(free, func(i, j int) bool {
		if free[i].Capacity != free[j].Capacity {
			return free[i].Capacity < free[j].Capacity
		}
		return free[i].Number < free[j].Number
	})
	return free, nil
}

// IsFree reports whether table is not held at the slot.
func (r *AvailabilityResolver) IsFree(ctx context.Context, tableNumber int, date, slot string) (bool, error) {
	conflict, err := findConflict(r.db.WithContext(ctx), tableNumber, date, slot, "")
	if err != nil {
		return false, err
	}
	return conflict == nil, nil
}

// heldTableNumbers lists the tables held by pending or confirmed bookings at
// the slot.
func heldTableNumbers(db *gorm.DB, date, slot string) ([]int, error) {
	var numbers []int
	err := db.Model(&models.Booking{}).
		Where("date = ? AND time = ? AND status IN ? AND table_number IS NOT NULL", date, slot, models.HoldingStatuses).
		Pluck("table_number", &numbers).Error
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

// findConflict returns the booking holding tableNumber at the slot, ignoring
// excludeID, or nil when the table is free.
func findConflict(db *gorm.DB, tableNumber int, date, slot, excludeID string) (*models.Booking, error) {
	query := db.Where("table_number = ? AND date = ? AND time = ? AND status IN ?",
		tableNumber, date, slot, models.HoldingStatuses)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var existing models.Booking
	if err := query.Take(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &existing, nil
}
