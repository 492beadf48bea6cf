package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"eventPricing/domain"
	"eventPricing/pkg/logger"

	"gorm.io/datatypes"
)

const decisionSystem = "pricing"

// Oracle maps a demand snapshot to a price suggestion. Implementations are
// non-deterministic and may fail; the service absorbs every failure.
type Oracle interface {
	Score(ctx context.Context, req ScoreRequest) (ScoreResult, error)
}

type ScoreRequest struct {
	EventID  uint64
	Snapshot domain.DemandSnapshot
}

type ScoreResult struct {
	SuggestedPrice float64
	Confidence     float64
	Reasoning      string

	// exchange details kept for the decision log
	Model  string
	Prompt string
	Raw    string
}

// ErrMalformedResponse marks oracle output that breaks the response contract.
var ErrMalformedResponse = fmt.Errorf("%w: response out of contract", ErrOracleUnavailable)

// normalize enforces the response contract and rounds the price to cents.
func (r ScoreResult) normalize() (ScoreResult, error) {
	if math.IsNaN(r.SuggestedPrice) || !validPrice(r.SuggestedPrice) {
		return r, fmt.Errorf("%w: suggested price %v", ErrMalformedResponse, r.SuggestedPrice)
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return r, fmt.Errorf("%w: confidence %v", ErrMalformedResponse, r.Confidence)
	}

	r.SuggestedPrice = RoundPrice(r.SuggestedPrice)
	if r.SuggestedPrice <= 0 {
		return r, fmt.Errorf("%w: suggested price rounds to zero", ErrMalformedResponse)
	}

	r.Reasoning = strings.TrimSpace(r.Reasoning)
	return r, nil
}

// UnavailableOracle is used when no oracle backend is configured. Every
// suggestion degrades to the fallback.
type UnavailableOracle struct{}

func (UnavailableOracle) Score(context.Context, ScoreRequest) (ScoreResult, error) {
	return ScoreResult{}, fmt.Errorf("%w: no oracle configured", ErrOracleUnavailable)
}

func (s *PricingService) fallbackSuggestion(snapshot domain.DemandSnapshot, now time.Time) domain.PricingSuggestion {
	return domain.PricingSuggestion{
		CurrentPrice:   snapshot.CurrentPrice,
		SuggestedPrice: snapshot.CurrentPrice,
		Confidence:     s.cfg.FallbackConfidence,
		Reasoning:      FallbackReasoning,
		Fallback:       true,
		DemandSignals:  snapshot,
		GeneratedAt:    now,
	}
}

// score consults the oracle with a per-attempt timeout and at most
// cfg.OracleMaxAttempts tries. Only the last error is returned.
func (s *PricingService) score(ctx context.Context, snapshot domain.DemandSnapshot) (ScoreResult, error) {
	var lastErr error

	for attempt := 1; attempt <= s.cfg.OracleMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return ScoreResult{}, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
		}

		result, err := s.scoreOnce(ctx, snapshot)
		s.recordDecision(ctx, snapshot, attempt, result, err)
		if err == nil {
			return result, nil
		}

		OracleFailuresTotal.WithLabelValues(failureReason(err)).Inc()
		logger.Warn("pricing_oracle_attempt_failed",
			"trace_id", TraceIDFromContext(ctx),
			"event_id", snapshot.EventID,
			"attempt", attempt,
			"error", err,
		)
		lastErr = err
	}

	return ScoreResult{}, lastErr
}

func (s *PricingService) scoreOnce(ctx context.Context, snapshot domain.DemandSnapshot) (ScoreResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()

	type outcome struct {
		result ScoreResult
		err    error
	}

	// buffered so a backend that ignores the deadline can still finish and exit
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		result, err := s.oracle.Score(callCtx, ScoreRequest{EventID: snapshot.EventID, Snapshot: snapshot})
		done <- outcome{result: result, err: err}
	}()

	var (
		result ScoreResult
		err    error
	)
	select {
	case out := <-done:
		result, err = out.result, out.err
		if err == nil && callCtx.Err() != nil {
			err = callCtx.Err()
		}
	case <-callCtx.Done():
		err = callCtx.Err()
	}
	OracleLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, ErrOracleUnavailable) {
			return result, err
		}
		return result, fmt.Errorf("%w: %w", ErrOracleUnavailable, err)
	}

	return result.normalize()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrMalformedResponse):
		return "invalid_response"
	default:
		return "transport"
	}
}

func (s *PricingService) recordDecision(
	ctx context.Context,
	snapshot domain.DemandSnapshot,
	attempt int,
	result ScoreResult,
	scoreErr error,
) {
	if s.recorder == nil {
		return
	}

	decisionCtx := datatypes.JSONMap{
		"event_id":       snapshot.EventID,
		"current_price":  snapshot.CurrentPrice,
		"occupancy_rate": snapshot.OccupancyRate,
		"attempt":        attempt,
		"trace_id":       TraceIDFromContext(ctx),
	}
	if scoreErr != nil {
		decisionCtx["error"] = scoreErr.Error()
	} else {
		decisionCtx["suggested_price"] = result.SuggestedPrice
		decisionCtx["confidence"] = result.Confidence
	}

	decision := domain.OracleDecision{
		System:   decisionSystem,
		Model:    result.Model,
		Prompt:   result.Prompt,
		Response: result.Raw,
		Context:  decisionCtx,
	}

	if err := s.recorder.RecordDecision(ctx, decision); err != nil {
		logger.Error("pricing_decision_record_failed",
			"trace_id", TraceIDFromContext(ctx),
			"event_id", snapshot.EventID,
			"error", err,
		)
	}
}
