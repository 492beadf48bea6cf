package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusFlagged   BookingStatus = "FLAGGED"
	BookingStatusPending   BookingStatus = "PENDING"
)

type Booking struct {
	ID        uint64        `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   uint64        `gorm:"column:event_id;not null;index" json:"event_id"`
	UserID    uint64        `gorm:"column:user_id;not null" json:"user_id"`
	Status    BookingStatus `gorm:"column:status;type:varchar(16);not null;default:PENDING" json:"status"`
	PricePaid float64       `gorm:"column:price_paid;type:numeric;not null" json:"price_paid"`
	CreatedAt time.Time     `gorm:"column:created_at;index" json:"created_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// BookingStats is the confirmed-booking evidence the demand aggregator needs.
type BookingStats struct {
	Confirmed       int64
	ConfirmedRecent int64
}
