package models

import (
	"time"
)

// UnbookedPayment records a payment that was verified as captured but for
// which no booking could be written. Refunds are handled outside this service.
type UnbookedPayment struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"index"`
	OrderID     string    `json:"order_id" gorm:"type:varchar(100)"`
	PaymentID   string    `json:"payment_id" gorm:"type:varchar(100);index"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency" gorm:"type:varchar(10)"`
	TableNumber *int      `json:"table_number,omitempty"`
	Date        string    `json:"date" gorm:"type:varchar(10)"`
	Time        string    `json:"time" gorm:"type:varchar(5)"`
	Reason      string    `json:"reason" gorm:"type:varchar(50)"`
	Details     string    `json:"details" gorm:"type:text"`
	Resolved    bool      `json:"resolved" gorm:"not null;default:false"`
	// BookingID is set when a later booking consumed the payment.
	BookingID *string   `json:"booking_id,omitempty" gorm:"type:varchar(36)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
