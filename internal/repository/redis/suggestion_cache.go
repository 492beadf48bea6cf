package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventPricing/business/pricing"
	"eventPricing/domain"

	"github.com/redis/go-redis/v9"
)

// SuggestionCache keeps the latest non-fallback suggestion per event so the
// mode controller can clamp from it.
type SuggestionCache struct {
	client *redis.Client
}

var _ pricing.SuggestionCache = (*SuggestionCache)(nil)

func NewSuggestionCache(client *redis.Client) *SuggestionCache {
	return &SuggestionCache{
		client: client,
	}
}

func suggestionKey(eventID uint64) string {
	// key format: "pricing:suggestion:{event_id}"
	return fmt.Sprintf("pricing:suggestion:%d", eventID)
}

func (c *SuggestionCache) SaveLatest(ctx context.Context, eventID uint64, suggestion domain.PricingSuggestion, ttl time.Duration) error {
	data, err := json.Marshal(suggestion)
	if err != nil {
		return fmt.Errorf("failed to marshal suggestion: %w", err)
	}

	if err := c.client.Set(ctx, suggestionKey(eventID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store suggestion in Redis: %w", err)
	}

	return nil
}

func (c *SuggestionCache) GetLatest(ctx context.Context, eventID uint64) (*domain.PricingSuggestion, error) {
	val, err := c.client.Get(ctx, suggestionKey(eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get suggestion from Redis: %w", err)
	}

	var suggestion domain.PricingSuggestion
	if err := json.Unmarshal(val, &suggestion); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suggestion: %w", err)
	}

	return &suggestion, nil
}
