package domain

import (
	"time"
)

type PricingMode string

const (
	PricingModeManual    PricingMode = "MANUAL"
	PricingModeAutomatic PricingMode = "AUTOMATIC"
)

func (m PricingMode) Valid() bool {
	return m == PricingModeManual || m == PricingModeAutomatic
}

// CREATE TABLE public.events (
//     id                BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     title             TEXT NOT NULL,
//     base_price        NUMERIC NOT NULL,
//     total_seats       INTEGER NOT NULL,
//     available_seats   INTEGER NOT NULL,
//     pricing_mode      VARCHAR(16) NOT NULL DEFAULT 'MANUAL',
//     min_price         NUMERIC,
//     max_price         NUMERIC,
//     last_price_update TIMESTAMPTZ,
//     start_date        TIMESTAMPTZ NOT NULL,
//     created_at        TIMESTAMPTZ DEFAULT NOW(),
//     updated_at        TIMESTAMPTZ DEFAULT NOW()
// );

type Event struct {
	ID              uint64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title           string      `gorm:"column:title;type:text;not null" json:"title"`
	BasePrice       float64     `gorm:"column:base_price;type:numeric;not null" json:"base_price"`
	TotalSeats      int         `gorm:"column:total_seats;not null" json:"total_seats"`
	AvailableSeats  int         `gorm:"column:available_seats;not null" json:"available_seats"`
	PricingMode     PricingMode `gorm:"column:pricing_mode;type:varchar(16);not null;default:MANUAL" json:"pricing_mode"`
	MinPrice        *float64    `gorm:"column:min_price;type:numeric" json:"min_price"`
	MaxPrice        *float64    `gorm:"column:max_price;type:numeric" json:"max_price"`
	LastPriceUpdate *time.Time  `gorm:"column:last_price_update" json:"last_price_update"`
	StartDate       time.Time   `gorm:"column:start_date;not null" json:"start_date"`
	CreatedAt       time.Time   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"column:updated_at" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

// BookedSeats is derived, never stored.
func (e Event) BookedSeats() int {
	return e.TotalSeats - e.AvailableSeats
}
