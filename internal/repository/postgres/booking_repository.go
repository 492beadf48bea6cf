package postgres

import (
	"context"
	"fmt"
	"time"

	"eventPricing/business/pricing"
	"eventPricing/domain"

	"gorm.io/gorm"
)

type BookingRepository struct {
	DB *gorm.DB
}

var _ pricing.BookingRepository = (*BookingRepository)(nil)

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{DB: db}
}

// ConfirmedStats counts confirmed bookings for the event, all-time and since
// recentSince, in one round trip.
func (r *BookingRepository) ConfirmedStats(ctx context.Context, eventID uint64, recentSince time.Time) (domain.BookingStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.BookingStats{}, fmt.Errorf("context error: %w", err)
	}

	var row struct {
		Confirmed       int64
		ConfirmedRecent int64
	}

	err := r.DB.WithContext(ctx).
		Model(&domain.Booking{}).
		Select("COUNT(*) AS confirmed, COUNT(*) FILTER (WHERE created_at >= ?) AS confirmed_recent", recentSince).
		Where("event_id = ? AND status = ?", eventID, domain.BookingStatusConfirmed).
		Scan(&row).Error
	if err != nil {
		return domain.BookingStats{}, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}

	return domain.BookingStats{
		Confirmed:       row.Confirmed,
		ConfirmedRecent: row.ConfirmedRecent,
	}, nil
}
