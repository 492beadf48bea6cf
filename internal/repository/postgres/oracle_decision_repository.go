package postgres

import (
	"context"
	"fmt"

	"eventPricing/business/pricing"
	"eventPricing/domain"

	"gorm.io/gorm"
)

type OracleDecisionRepository struct {
	DB *gorm.DB
}

var _ pricing.DecisionRecorder = (*OracleDecisionRepository)(nil)

func NewOracleDecisionRepository(db *gorm.DB) *OracleDecisionRepository {
	return &OracleDecisionRepository{DB: db}
}

func (r *OracleDecisionRepository) RecordDecision(ctx context.Context, decision domain.OracleDecision) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&decision).Error; err != nil {
		return fmt.Errorf("failed to save oracle decision: %w", err)
	}

	return nil
}

// RecentBySystem is used for offline inspection of oracle behaviour.
func (r *OracleDecisionRepository) RecentBySystem(ctx context.Context, system string, limit int) ([]domain.OracleDecision, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var out []domain.OracleDecision
	err := r.DB.WithContext(ctx).
		Where("system = ?", system).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query oracle decisions: %w", err)
	}

	return out, nil
}
