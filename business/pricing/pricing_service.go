package pricing

import (
	"context"
	"fmt"
	"time"

	"eventPricing/domain"
	"eventPricing/pkg/logger"
)

// ---- Repository interfaces ----

type EventRepository interface {
	FindByID(ctx context.Context, id uint64) (domain.Event, error)
}

type BookingRepository interface {
	ConfirmedStats(ctx context.Context, eventID uint64, recentSince time.Time) (domain.BookingStats, error)
}

type PricingLogRepository interface {
	FindRecentByEvent(ctx context.Context, eventID uint64, limit int) ([]domain.PricingLog, error)
}

// PricingTx is the write side available inside one pricing transaction.
type PricingTx interface {
	LockEvent(ctx context.Context, id uint64) (domain.Event, error)
	AppendLog(ctx context.Context, entry *domain.PricingLog) error
	SavePricing(ctx context.Context, event *domain.Event) error
}

// UnitOfWork runs fn atomically: the event row and its log rows are either
// all written or none is.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx PricingTx) error) error
}

type SuggestionCache interface {
	// GetLatest returns nil without error when nothing is cached.
	GetLatest(ctx context.Context, eventID uint64) (*domain.PricingSuggestion, error)
	SaveLatest(ctx context.Context, eventID uint64, suggestion domain.PricingSuggestion, ttl time.Duration) error
}

type DecisionRecorder interface {
	RecordDecision(ctx context.Context, decision domain.OracleDecision) error
}

type ChangePublisher interface {
	PublishPriceChanged(ctx context.Context, change domain.PriceChangedEvent) error
	PublishModeChanged(ctx context.Context, change domain.PriceChangedEvent) error
}

// ---- Service ----

type PricingService struct {
	eventRepo   EventRepository
	bookingRepo BookingRepository
	logRepo     PricingLogRepository
	uow         UnitOfWork
	oracle      Oracle
	cache       SuggestionCache
	recorder    DecisionRecorder
	publisher   ChangePublisher
	cfg         Config
	now         func() time.Time
}

// NewPricingService wires the pricing pipeline. cache, recorder and publisher
// are optional and may be nil.
func NewPricingService(
	eventRepo EventRepository,
	bookingRepo BookingRepository,
	logRepo PricingLogRepository,
	uow UnitOfWork,
	oracle Oracle,
	cache SuggestionCache,
	recorder DecisionRecorder,
	publisher ChangePublisher,
	cfg Config,
) *PricingService {
	if oracle == nil {
		oracle = UnavailableOracle{}
	}

	return &PricingService{
		eventRepo:   eventRepo,
		bookingRepo: bookingRepo,
		logRepo:     logRepo,
		uow:         uow,
		oracle:      oracle,
		cache:       cache,
		recorder:    recorder,
		publisher:   publisher,
		cfg:         cfg.withDefaults(),
		now:         time.Now,
	}
}

// GetSuggestion never mutates event state. Oracle failures are absorbed into
// a low-confidence suggestion that keeps the current price.
func (s *PricingService) GetSuggestion(ctx context.Context, eventID uint64) (domain.PricingSuggestion, error) {
	snapshot, err := s.AnalyzeDemand(ctx, eventID)
	if err != nil {
		return domain.PricingSuggestion{}, err
	}

	tid := TraceIDFromContext(ctx)
	now := s.now()

	result, err := s.score(ctx, snapshot)
	if err != nil {
		SuggestionsTotal.WithLabelValues("fallback").Inc()
		logger.Warn("pricing_suggestion_fallback",
			"trace_id", tid,
			"event_id", eventID,
			"current_price", snapshot.CurrentPrice,
			"error", err,
		)
		return s.fallbackSuggestion(snapshot, now), nil
	}

	suggestion := domain.PricingSuggestion{
		CurrentPrice:   snapshot.CurrentPrice,
		SuggestedPrice: result.SuggestedPrice,
		Confidence:     result.Confidence,
		Reasoning:      result.Reasoning,
		DemandSignals:  snapshot,
		GeneratedAt:    now,
	}

	SuggestionsTotal.WithLabelValues("oracle").Inc()
	logger.Debug("pricing_suggestion",
		"trace_id", tid,
		"event_id", eventID,
		"current_price", suggestion.CurrentPrice,
		"suggested_price", suggestion.SuggestedPrice,
		"confidence", suggestion.Confidence,
		"occupancy_rate", snapshot.OccupancyRate,
		"booking_velocity", snapshot.BookingVelocity,
	)

	if s.cache != nil {
		if err := s.cache.SaveLatest(ctx, eventID, suggestion, s.cfg.SuggestionTTL); err != nil {
			logger.Error("pricing_suggestion_cache_failed", "trace_id", tid, "event_id", eventID, "error", err)
		}
	}

	return suggestion, nil
}

// ApplySuggestion returns the suggestion untouched when autoApply is false.
// Otherwise it logs and stores the suggested price in one transaction. While
// the event is AUTOMATIC the price is clamped into its band first.
func (s *PricingService) ApplySuggestion(
	ctx context.Context,
	eventID uint64,
	suggestion domain.PricingSuggestion,
	autoApply bool,
) (domain.ApplyResult, error) {
	if !autoApply {
		return domain.ApplyResult{Applied: false, Suggestion: suggestion}, nil
	}

	if !validPrice(suggestion.SuggestedPrice) {
		return domain.ApplyResult{}, invalidArgument("suggested price must be greater than zero")
	}

	reason := suggestion.Reasoning
	if reason == "" {
		reason = defaultSuggestionReason
	}

	entry, updated, err := s.changePrice(ctx, eventID, func(event domain.Event) (float64, error) {
		price := suggestion.SuggestedPrice
		if lo, hi, ok := bandFor(event); ok {
			price = Clamp(price, lo, hi)
		}
		return price, nil
	}, reason)
	if err != nil {
		return domain.ApplyResult{}, err
	}

	s.afterPriceChange(ctx, "suggestion", entry, updated)

	oldPrice, newPrice := entry.OldPrice, entry.NewPrice
	return domain.ApplyResult{
		Applied:    true,
		Suggestion: suggestion,
		OldPrice:   &oldPrice,
		NewPrice:   &newPrice,
	}, nil
}

// Optimize computes a fresh suggestion and optionally applies it. A fallback
// suggestion is never applied.
func (s *PricingService) Optimize(ctx context.Context, eventID uint64, autoApply bool) (domain.ApplyResult, error) {
	suggestion, err := s.GetSuggestion(ctx, eventID)
	if err != nil {
		return domain.ApplyResult{}, err
	}

	return s.ApplySuggestion(ctx, eventID, suggestion, autoApply && !suggestion.Fallback)
}

// ManualSetPrice records an operator price. While the event is AUTOMATIC the
// price has to fall inside the band.
func (s *PricingService) ManualSetPrice(ctx context.Context, eventID uint64, newPrice float64, reason string) (domain.Event, error) {
	if !validPrice(newPrice) {
		return domain.Event{}, invalidArgument("price must be greater than zero")
	}
	if reason == "" {
		reason = ManualUpdateReason
	}

	entry, updated, err := s.changePrice(ctx, eventID, func(event domain.Event) (float64, error) {
		if lo, hi, ok := bandFor(event); ok && (newPrice < lo || newPrice > hi) {
			return 0, invalidArgument("price %.2f outside automatic range [%.2f, %.2f]", newPrice, lo, hi)
		}
		return newPrice, nil
	}, reason)
	if err != nil {
		return domain.Event{}, err
	}

	s.afterPriceChange(ctx, "manual", entry, updated)

	return updated, nil
}

// SetPricingMode switches between MANUAL and AUTOMATIC. Entering or staying
// in AUTOMATIC pulls the price into the band, preferring the latest cached
// suggestion as the starting point.
func (s *PricingService) SetPricingMode(ctx context.Context, eventID uint64, req ModeRequest) (domain.Event, error) {
	if err := req.Validate(); err != nil {
		return domain.Event{}, err
	}

	var cached *domain.PricingSuggestion
	if req.Mode == domain.PricingModeAutomatic {
		cached = s.latestSuggestion(ctx, eventID)
	}

	var (
		updated domain.Event
		entry   *domain.PricingLog
	)

	err := s.uow.WithinTx(ctx, func(tx PricingTx) error {
		event, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}

		next, logEntry := transition(event, req, clampCandidate(cached, event), s.now())
		if logEntry != nil {
			if err := tx.AppendLog(ctx, logEntry); err != nil {
				return fmt.Errorf("append pricing log: %w", err)
			}
		}
		if err := tx.SavePricing(ctx, &next); err != nil {
			return fmt.Errorf("save event pricing: %w", err)
		}

		updated, entry = next, logEntry
		return nil
	})
	if err != nil {
		return domain.Event{}, persistenceError(err)
	}

	tid := TraceIDFromContext(ctx)
	PriceChangesTotal.WithLabelValues("mode").Inc()
	logger.Info("pricing_mode_changed",
		"trace_id", tid,
		"event_id", eventID,
		"mode", updated.PricingMode,
		"min_price", priceOrNil(updated.MinPrice),
		"max_price", priceOrNil(updated.MaxPrice),
		"clamped", entry != nil,
	)

	if entry != nil {
		s.afterPriceChange(ctx, "clamp", *entry, updated)
	}

	if s.publisher != nil {
		change := changeEvent(updated, updated.BasePrice, updated.BasePrice, "pricing mode changed")
		if err := s.publisher.PublishModeChanged(ctx, change); err != nil {
			logger.Error("pricing_publish_failed", "trace_id", tid, "event_id", eventID, "error", err)
		}
	}

	return updated, nil
}

// GetPricingHistory returns log entries newest first.
func (s *PricingService) GetPricingHistory(ctx context.Context, eventID uint64, limit int) ([]domain.PricingLog, error) {
	if limit <= 0 {
		limit = s.cfg.DefaultHistoryLimit
	}
	if limit > s.cfg.MaxHistoryLimit {
		limit = s.cfg.MaxHistoryLimit
	}

	if _, err := s.eventRepo.FindByID(ctx, eventID); err != nil {
		return nil, err
	}

	entries, err := s.logRepo.FindRecentByEvent(ctx, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("load pricing history: %w", err)
	}
	if entries == nil {
		entries = []domain.PricingLog{}
	}

	return entries, nil
}

// changePrice locks the event, lets decide pick the new price from the locked
// row, then appends the log row and stores the price in one transaction.
func (s *PricingService) changePrice(
	ctx context.Context,
	eventID uint64,
	decide func(event domain.Event) (float64, error),
	reason string,
) (domain.PricingLog, domain.Event, error) {
	var (
		entry   domain.PricingLog
		updated domain.Event
	)

	err := s.uow.WithinTx(ctx, func(tx PricingTx) error {
		event, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}

		price, err := decide(event)
		if err != nil {
			return err
		}

		now := s.now()
		entry = domain.PricingLog{
			EventID:   event.ID,
			OldPrice:  event.BasePrice,
			NewPrice:  price,
			Reason:    reason,
			CreatedAt: now,
		}
		if err := tx.AppendLog(ctx, &entry); err != nil {
			return fmt.Errorf("append pricing log: %w", err)
		}

		event.BasePrice = price
		event.LastPriceUpdate = &now
		if err := tx.SavePricing(ctx, &event); err != nil {
			return fmt.Errorf("save event pricing: %w", err)
		}

		updated = event
		return nil
	})
	if err != nil {
		return domain.PricingLog{}, domain.Event{}, persistenceError(err)
	}

	return entry, updated, nil
}

func (s *PricingService) afterPriceChange(ctx context.Context, kind string, entry domain.PricingLog, event domain.Event) {
	tid := TraceIDFromContext(ctx)

	PriceChangesTotal.WithLabelValues(kind).Inc()
	logger.Info("pricing_price_changed",
		"trace_id", tid,
		"event_id", event.ID,
		"kind", kind,
		"old_price", entry.OldPrice,
		"new_price", entry.NewPrice,
		"reason", entry.Reason,
	)

	if s.publisher == nil {
		return
	}

	change := changeEvent(event, entry.OldPrice, entry.NewPrice, entry.Reason)
	if err := s.publisher.PublishPriceChanged(ctx, change); err != nil {
		logger.Error("pricing_publish_failed", "trace_id", tid, "event_id", event.ID, "error", err)
	}
}

func (s *PricingService) latestSuggestion(ctx context.Context, eventID uint64) *domain.PricingSuggestion {
	if s.cache == nil {
		return nil
	}

	cached, err := s.cache.GetLatest(ctx, eventID)
	if err != nil {
		logger.Warn("pricing_suggestion_cache_read_failed",
			"trace_id", TraceIDFromContext(ctx),
			"event_id", eventID,
			"error", err,
		)
		return nil
	}
	if cached == nil || cached.Fallback || !validPrice(cached.SuggestedPrice) {
		return nil
	}

	return cached
}

// clampCandidate returns the cached suggested price only if it was computed
// against the price the event still has. A suggestion older than the last
// price change is ignored.
func clampCandidate(cached *domain.PricingSuggestion, event domain.Event) *float64 {
	if cached == nil || RoundPrice(cached.CurrentPrice) != RoundPrice(event.BasePrice) {
		return nil
	}

	price := cached.SuggestedPrice
	return &price
}

func priceOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func changeEvent(event domain.Event, oldPrice, newPrice float64, reason string) domain.PriceChangedEvent {
	changedAt := time.Now()
	if event.LastPriceUpdate != nil {
		changedAt = *event.LastPriceUpdate
	}

	return domain.PriceChangedEvent{
		EventID:     event.ID,
		OldPrice:    oldPrice,
		NewPrice:    newPrice,
		Reason:      reason,
		PricingMode: event.PricingMode,
		MinPrice:    event.MinPrice,
		MaxPrice:    event.MaxPrice,
		ChangedAt:   changedAt,
	}
}
