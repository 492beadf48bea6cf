package pricing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eventPricing/domain"
)

// --- in-memory store with transactional semantics ---

type fakeStore struct {
	mu sync.Mutex

	events    map[uint64]domain.Event
	logs      []domain.PricingLog
	nextLogID uint64

	stats      domain.BookingStats
	statsSince time.Time

	appendErr error
	saveErr   error
}

func newFakeStore(events ...domain.Event) *fakeStore {
	s := &fakeStore{events: make(map[uint64]domain.Event)}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *fakeStore) FindByID(ctx context.Context, id uint64) (domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return domain.Event{}, fmt.Errorf("%w: id %d", ErrEventNotFound, id)
	}
	return e, nil
}

func (s *fakeStore) ConfirmedStats(ctx context.Context, eventID uint64, recentSince time.Time) (domain.BookingStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statsSince = recentSince
	return s.stats, nil
}

func (s *fakeStore) FindRecentByEvent(ctx context.Context, eventID uint64, limit int) ([]domain.PricingLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return recentLogs(s.logs, eventID, limit), nil
}

func (s *fakeStore) WithinTx(ctx context.Context, fn func(tx PricingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &fakeTx{
		store:  s,
		events: make(map[uint64]domain.Event, len(s.events)),
		logs:   append([]domain.PricingLog(nil), s.logs...),
		nextID: s.nextLogID,
	}
	for id, e := range s.events {
		tx.events[id] = e
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.events = tx.events
	s.logs = tx.logs
	s.nextLogID = tx.nextID
	return nil
}

func (s *fakeStore) event(id uint64) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

func (s *fakeStore) logsFor(id uint64) []domain.PricingLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recentLogs(s.logs, id, len(s.logs))
}

type fakeTx struct {
	store  *fakeStore
	events map[uint64]domain.Event
	logs   []domain.PricingLog
	nextID uint64
}

func (t *fakeTx) LockEvent(ctx context.Context, id uint64) (domain.Event, error) {
	e, ok := t.events[id]
	if !ok {
		return domain.Event{}, fmt.Errorf("%w: id %d", ErrEventNotFound, id)
	}
	return e, nil
}

func (t *fakeTx) AppendLog(ctx context.Context, entry *domain.PricingLog) error {
	if t.store.appendErr != nil {
		return t.store.appendErr
	}
	t.nextID++
	entry.ID = t.nextID
	t.logs = append(t.logs, *entry)
	return nil
}

func (t *fakeTx) SavePricing(ctx context.Context, event *domain.Event) error {
	if t.store.saveErr != nil {
		return t.store.saveErr
	}
	current, ok := t.events[event.ID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrEventNotFound, event.ID)
	}

	// only pricing columns are writable
	current.BasePrice = event.BasePrice
	current.PricingMode = event.PricingMode
	current.MinPrice = event.MinPrice
	current.MaxPrice = event.MaxPrice
	current.LastPriceUpdate = event.LastPriceUpdate
	t.events[event.ID] = current
	return nil
}

func recentLogs(all []domain.PricingLog, eventID uint64, limit int) []domain.PricingLog {
	out := []domain.PricingLog{}
	for _, l := range all {
		if l.EventID == eventID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit < len(out) {
		out = out[:limit]
	}
	return out
}

// --- collaborators ---

type stubOracle struct {
	mu      sync.Mutex
	calls   int
	scoreFn func(ctx context.Context, req ScoreRequest) (ScoreResult, error)
}

func (o *stubOracle) Score(ctx context.Context, req ScoreRequest) (ScoreResult, error) {
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()
	return o.scoreFn(ctx, req)
}

func fixedOracle(price, confidence float64, reasoning string) *stubOracle {
	return &stubOracle{
		scoreFn: func(ctx context.Context, req ScoreRequest) (ScoreResult, error) {
			return ScoreResult{
				SuggestedPrice: price,
				Confidence:     confidence,
				Reasoning:      reasoning,
				Model:          "stub",
				Prompt:         "prompt",
				Raw:            "{}",
			}, nil
		},
	}
}

type fakeCache struct {
	items map[uint64]domain.PricingSuggestion
	ttl   time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[uint64]domain.PricingSuggestion)}
}

func (c *fakeCache) GetLatest(ctx context.Context, eventID uint64) (*domain.PricingSuggestion, error) {
	s, ok := c.items[eventID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *fakeCache) SaveLatest(ctx context.Context, eventID uint64, s domain.PricingSuggestion, ttl time.Duration) error {
	c.items[eventID] = s
	c.ttl = ttl
	return nil
}

type fakeRecorder struct {
	decisions []domain.OracleDecision
}

func (r *fakeRecorder) RecordDecision(ctx context.Context, d domain.OracleDecision) error {
	r.decisions = append(r.decisions, d)
	return nil
}

type fakePublisher struct {
	priceChanges []domain.PriceChangedEvent
	modeChanges  []domain.PriceChangedEvent
	err          error
}

func (p *fakePublisher) PublishPriceChanged(ctx context.Context, c domain.PriceChangedEvent) error {
	p.priceChanges = append(p.priceChanges, c)
	return p.err
}

func (p *fakePublisher) PublishModeChanged(ctx context.Context, c domain.PriceChangedEvent) error {
	p.modeChanges = append(p.modeChanges, c)
	return p.err
}

// --- fixtures ---

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

func sampleEvent() domain.Event {
	return domain.Event{
		ID:             1,
		Title:          "Jazz Night",
		BasePrice:      100,
		TotalSeats:     200,
		AvailableSeats: 120,
		PricingMode:    domain.PricingModeManual,
		StartDate:      testNow.Add(14 * day),
		CreatedAt:      testNow.Add(-10 * day),
	}
}

type fixture struct {
	store     *fakeStore
	oracle    *stubOracle
	cache     *fakeCache
	recorder  *fakeRecorder
	publisher *fakePublisher
	svc       *PricingService
}

func newFixture(oracle *stubOracle, cfg Config, events ...domain.Event) *fixture {
	f := &fixture{
		store:     newFakeStore(events...),
		oracle:    oracle,
		cache:     newFakeCache(),
		recorder:  &fakeRecorder{},
		publisher: &fakePublisher{},
	}

	var o Oracle
	if oracle != nil {
		o = oracle
	}

	f.svc = NewPricingService(f.store, f.store, f.store, f.store, o, f.cache, f.recorder, f.publisher, cfg)
	f.svc.now = func() time.Time { return testNow }
	return f
}
