package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TableSpec describes a table to be created.
type TableSpec struct {
	Number   int
	Name     string
	Capacity int
	Area     string
	Status   string
	Features []string
	Active   *bool
}

// TablePatch carries the fields to change on an existing table. The table
// number itself cannot change because bookings reference it.
type TablePatch struct {
	Name     *string
	Capacity *int
	Area     *string
	Status   *string
	Features *[]string
	Active   *bool
}

// TableRegistry owns the physical tables of the restaurant.
type TableRegistry struct {
	db     *gorm.DB
	limits Limits
}

func NewTableRegistry(db *gorm.DB, limits Limits) *TableRegistry {
	return &TableRegistry{db: db, limits: limits}
}

// Create inserts a new table. A number already used by any table, active or
// not, fails with ErrDuplicateTableNumber and writes nothing.
func (r *TableRegistry) Create(ctx context.Context, in TableSpec) (*models.Table, error) {
	if in.Number <= 0 {
		return nil, Invalid("number", "must be a positive integer")
	}
	if err := r.limits.validateCapacity(in.Capacity); err != nil {
		return nil, err
	}
	if in.Area == "" {
		in.Area = models.AreaIndoor
	}
	if err := validateArea("area", in.Area); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.TableStatusAvailable
	}
	if err := validateTableStatus(in.Status); err != nil {
		return nil, err
	}

	table := models.Table{
		Number:   in.Number,
		Name:     in.Name,
		Capacity: in.Capacity,
		Area:     in.Area,
		Status:   in.Status,
		Features: dedupe(in.Features),
		Active:   true,
	}
	if table.Name == "" {
		table.Name = fmt.Sprintf("Table %d", in.Number)
	}
	if in.Active != nil {
		table.Active = *in.Active
	}

	// Select all columns so an explicit Active=false is not replaced by the
	// column default.
	if err := r.db.WithContext(ctx).Select("*").Create(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateTableNumber, in.Number)
		}
		return nil, fmt.Errorf("create table %d: %w", in.Number, err)
	}

	utils.InfoLogger.WithField("table", table.Number).Infof("Table created (capacity=%d, area=%s)", table.Capacity, table.Area)
	return &table, nil
}

// Get returns a table by number regardless of its active flag.
func (r *TableRegistry) Get(ctx context.Context, number int) (*models.Table, error) {
	var table models.Table
	if err := r.db.WithContext(ctx).First(&table, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrTableNotFound, number)
		}
		return nil, err
	}
	return &table, nil
}

// List returns every table, inactive ones included.
func (r *TableRegistry) List(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// ListActive returns the tables the availability resolver may offer.
func (r *TableRegistry) ListActive(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("number ASC").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// Update applies patch to the table with the given number.
func (r *TableRegistry) Update(ctx context.Context, number int, patch TablePatch) (*models.Table, error) {
	if patch.Capacity != nil {
		if err := r.limits.validateCapacity(*patch.Capacity); err != nil {
			return nil, err
		}
	}
	if patch.Area != nil {
		if err := validateArea("area", *patch.Area); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil {
		if err := validateTableStatus(*patch.Status); err != nil {
			return nil, err
		}
	}

	var table models.Table
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&table, "number = ?", number).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrTableNotFound, number)
			}
			return err
		}

		if patch.Name != nil {
			table.Name = *patch.Name
		}
		if patch.Capacity != nil && *patch.Capacity < table.Capacity {
			var largest int
			if err := tx.Model(&models.Booking{}).
				Where("table_number = ? AND status IN ?", number, models.HoldingStatuses).
				Select("COALESCE(MAX(party_size), 0)").
				Scan(&largest).Error; err != nil {
				return err
			}
			if largest > *patch.Capacity {
				return fmt.Errorf("%w: table %d holds a party of %d", ErrTableInUse, number, largest)
			}
		}
		if patch.Capacity != nil {
			table.Capacity = *patch.Capacity
		}
		if patch.Area != nil {
			table.Area = *patch.Area
		}
		if patch.Status != nil {
			table.Status = *patch.Status
		}
		if patch.Features != nil {
			table.Features = dedupe(*patch.Features)
		}
		if patch.Active != nil {
			table.Active = *patch.Active
		}
		return tx.Save(&table).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithField("table", table.Number).Info("Table updated")
	return &table, nil
}

// Delete removes a table. Tables still held by a pending or confirmed
// booking are kept and ErrTableInUse is returned.
func (r *TableRegistry) Delete(ctx context.Context, number int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&table, "number = ?", number).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrTableNotFound, number)
			}
			return err
		}

		var active int64
		if err := tx.Model(&models.Booking{}).
			Where("table_number = ? AND status IN ?", number, models.HoldingStatuses).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: table %d has %d active bookings", ErrTableInUse, number, active)
		}

		return tx.Delete(&table).Error
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.WithField("table", number).Info("Table deleted")
	return nil
}

func dedupe(values []string) []string {
	return lo.Uniq(lo.Filter(values, func(v string, _ int) bool { return v != "" }))
}
