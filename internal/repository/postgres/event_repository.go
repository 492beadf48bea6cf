package postgres

import (
	"context"
	"errors"
	"fmt"

	"eventPricing/business/pricing"
	"eventPricing/domain"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

var _ pricing.EventRepository = (*EventRepository)(nil)

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) FindByID(ctx context.Context, id uint64) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, fmt.Errorf("context error: %w", err)
	}

	var event domain.Event
	err := r.DB.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Event{}, fmt.Errorf("%w: id %d", pricing.ErrEventNotFound, id)
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("failed to find event: %w", err)
	}

	return event, nil
}
