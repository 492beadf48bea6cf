package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventPricing/business/pricing"
	"eventPricing/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PricingUnitOfWork runs pricing mutations in one database transaction. The
// event row is locked FOR UPDATE, so concurrent writers on the same event
// queue up and the last one to commit wins.
type PricingUnitOfWork struct {
	DB *gorm.DB
}

var _ pricing.UnitOfWork = (*PricingUnitOfWork)(nil)

func NewPricingUnitOfWork(db *gorm.DB) *PricingUnitOfWork {
	return &PricingUnitOfWork{DB: db}
}

func (u *PricingUnitOfWork) WithinTx(ctx context.Context, fn func(tx pricing.PricingTx) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return u.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pricingTx{db: tx})
	})
}

type pricingTx struct {
	db *gorm.DB
}

func (t *pricingTx) LockEvent(ctx context.Context, id uint64) (domain.Event, error) {
	var event domain.Event
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Event{}, fmt.Errorf("%w: id %d", pricing.ErrEventNotFound, id)
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("failed to lock event: %w", err)
	}

	return event, nil
}

func (t *pricingTx) AppendLog(ctx context.Context, entry *domain.PricingLog) error {
	if err := t.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert pricing log: %w", err)
	}
	return nil
}

// SavePricing writes the pricing columns only; seat counts are never touched.
func (t *pricingTx) SavePricing(ctx context.Context, event *domain.Event) error {
	res := t.db.WithContext(ctx).
		Model(&domain.Event{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"base_price":        event.BasePrice,
			"pricing_mode":      event.PricingMode,
			"min_price":         event.MinPrice,
			"max_price":         event.MaxPrice,
			"last_price_update": event.LastPriceUpdate,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update event pricing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", pricing.ErrEventNotFound, event.ID)
	}

	return nil
}
