package models

import "time"

// Area values accepted for tables and bookings.
const (
	AreaIndoor      = "indoor"
	AreaOutdoor     = "outdoor"
	AreaPrivateRoom = "private-room"
	AreaBar         = "bar-area"
	AreaPatio       = "patio"
	AreaRooftop     = "rooftop"
)

// Operational status of a table. Informational only, the booking ledger is
// authoritative for conflicts.
const (
	TableStatusAvailable   = "available"
	TableStatusOccupied    = "occupied"
	TableStatusReserved    = "reserved"
	TableStatusMaintenance = "maintenance"
)

var Areas = []string{AreaIndoor, AreaOutdoor, AreaPrivateRoom, AreaBar, AreaPatio, AreaRooftop}

var TableStatuses = []string{TableStatusAvailable, TableStatusOccupied, TableStatusReserved, TableStatusMaintenance}

type Table struct {
	Number    int       `gorm:"primaryKey;autoIncrement:false" json:"number"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	Area      string    `gorm:"type:varchar(20);not null;default:'indoor'" json:"area"`
	Status    string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	Features  []string  `gorm:"serializer:json;type:text" json:"features"`
	Active    bool      `gorm:"not null;default:true;index" json:"active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
