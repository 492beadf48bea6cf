package domain

import "time"

// PricingLog is append-only: one row per accepted price change.
type PricingLog struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID   uint64    `gorm:"column:event_id;not null;index:idx_pricing_logs_event_created,priority:1" json:"event_id"`
	OldPrice  float64   `gorm:"column:old_price;type:numeric;not null" json:"old_price"`
	NewPrice  float64   `gorm:"column:new_price;type:numeric;not null" json:"new_price"`
	Reason    string    `gorm:"column:reason;type:text;not null" json:"reason"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_pricing_logs_event_created,priority:2,sort:desc" json:"created_at"`
}

func (PricingLog) TableName() string {
	return "pricing_logs"
}

type DemandSnapshot struct {
	EventID         uint64       `json:"event_id"`
	CurrentPrice    float64      `json:"current_price"`
	TotalSeats      int          `json:"total_seats"`
	AvailableSeats  int          `json:"available_seats"`
	BookedSeats     int          `json:"booked_seats"`
	OccupancyRate   float64      `json:"occupancy_rate"`
	BookingVelocity float64      `json:"booking_velocity"`
	RecentBookings  int64        `json:"recent_bookings"`
	DaysRemaining   float64      `json:"days_remaining"`
	PricingHistory  []PricingLog `json:"pricing_history"`
}

// PricingSuggestion is produced per request and never stored as-is.
type PricingSuggestion struct {
	CurrentPrice   float64        `json:"current_price"`
	SuggestedPrice float64        `json:"suggested_price"`
	Confidence     float64        `json:"confidence"`
	Reasoning      string         `json:"reasoning"`
	Fallback       bool           `json:"fallback"`
	DemandSignals  DemandSnapshot `json:"demand_signals"`
	GeneratedAt    time.Time      `json:"generated_at"`
}

type ApplyResult struct {
	Applied    bool              `json:"applied"`
	Suggestion PricingSuggestion `json:"suggestion"`
	OldPrice   *float64          `json:"old_price,omitempty"`
	NewPrice   *float64          `json:"new_price,omitempty"`
}

// PriceChangedEvent is published after a pricing transaction commits.
type PriceChangedEvent struct {
	EventID     uint64      `json:"event_id"`
	OldPrice    float64     `json:"old_price"`
	NewPrice    float64     `json:"new_price"`
	Reason      string      `json:"reason"`
	PricingMode PricingMode `json:"pricing_mode"`
	MinPrice    *float64    `json:"min_price,omitempty"`
	MaxPrice    *float64    `json:"max_price,omitempty"`
	ChangedAt   time.Time   `json:"changed_at"`
}
