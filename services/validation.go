package services

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/yeremiapane/table-reservation/models"
)

// validate applies the same rules as gin's binding tags.
var validate = validator.New()

// Limits bounds what a booking or table may ask for.
type Limits struct {
	MaxPartySize     int
	MaxTableCapacity int
	// SlotTimes restricts bookable times when non-empty.
	SlotTimes []string
	// Deposit, when positive, is the price every paid booking must carry.
	Deposit int64
}

func DefaultLimits() Limits {
	return Limits{MaxPartySize: 20, MaxTableCapacity: 20}
}

func validateArea(field, area string) error {
	if !lo.Contains(models.Areas, area) {
		return Invalid(field, "must be one of %s", strings.Join(models.Areas, ", "))
	}
	return nil
}

func validateTableStatus(status string) error {
	if !lo.Contains(models.TableStatuses, status) {
		return Invalid("status", "must be one of %s", strings.Join(models.TableStatuses, ", "))
	}
	return nil
}

// validateSlot checks the zone-naive date and the time label of a slot.
func (l Limits) validateSlot(date, slot string) error {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return Invalid("date", "must be formatted as YYYY-MM-DD")
	}
	if _, err := time.Parse(models.TimeLayout, slot); err != nil || len(slot) != len(models.TimeLayout) {
		return Invalid("time", "must be formatted as HH:MM")
	}
	if len(l.SlotTimes) > 0 && !lo.Contains(l.SlotTimes, slot) {
		return Invalid("time", "is not a bookable slot")
	}
	return nil
}

func (l Limits) validatePartySize(partySize int) error {
	if partySize <= 0 {
		return Invalid("party_size", "must be a positive integer")
	}
	if l.MaxPartySize > 0 && partySize > l.MaxPartySize {
		return Invalid("party_size", "must not exceed %d", l.MaxPartySize)
	}
	return nil
}

func (l Limits) validateCapacity(capacity int) error {
	if capacity <= 0 {
		return Invalid("capacity", "must be a positive integer")
	}
	if l.MaxTableCapacity > 0 && capacity > l.MaxTableCapacity {
		return Invalid("capacity", "must not exceed %d", l.MaxTableCapacity)
	}
	return nil
}

func validateGuest(name, email, phone string) error {
	if strings.TrimSpace(name) == "" {
		return Invalid("guest_name", "is required")
	}
	if err := validate.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return Invalid("guest_email", "is not a valid email address")
	}
	if strings.TrimSpace(phone) == "" {
		return Invalid("guest_phone", "is required")
	}
	return nil
}
