package postgres

import (
	"context"
	"fmt"

	"eventPricing/business/pricing"
	"eventPricing/domain"

	"gorm.io/gorm"
)

type PricingLogRepository struct {
	DB *gorm.DB
}

var _ pricing.PricingLogRepository = (*PricingLogRepository)(nil)

func NewPricingLogRepository(db *gorm.DB) *PricingLogRepository {
	return &PricingLogRepository{DB: db}
}

// FindRecentByEvent returns at most limit rows, newest first.
func (r *PricingLogRepository) FindRecentByEvent(ctx context.Context, eventID uint64, limit int) ([]domain.PricingLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var logs []domain.PricingLog
	err := r.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing logs: %w", err)
	}

	return logs, nil
}
