//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"eventPricing/business/pricing"
	"eventPricing/domain"
	"eventPricing/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5432"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "event_pricing_test"),
	)

	var err error
	testDB, err = gorm.Open(gormpg.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	dropTables()
	if err := database.Migrate(testDB); err != nil {
		log.Fatalf("failed to migrate test database: %v", err)
	}

	code := m.Run()

	dropTables()
	os.Exit(code)
}

func dropTables() {
	testDB.Exec("DROP TABLE IF EXISTS oracle_decisions")
	testDB.Exec("DROP TABLE IF EXISTS pricing_logs")
	testDB.Exec("DROP TABLE IF EXISTS bookings")
	testDB.Exec("DROP TABLE IF EXISTS events")
}

func cleanTables() {
	testDB.Exec("DELETE FROM oracle_decisions")
	testDB.Exec("DELETE FROM pricing_logs")
	testDB.Exec("DELETE FROM bookings")
	testDB.Exec("DELETE FROM events")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func seedEvent(t *testing.T, price float64) domain.Event {
	t.Helper()

	now := time.Now().UTC()
	event := domain.Event{
		Title:          "Integration Gig",
		BasePrice:      price,
		TotalSeats:     100,
		AvailableSeats: 60,
		StartDate:      now.Add(72 * time.Hour),
		CreatedAt:      now.Add(-96 * time.Hour),
	}
	event.PricingMode = domain.PricingModeManual
	require.NoError(t, testDB.Create(&event).Error)
	return event
}

func seedBookings(t *testing.T, bookings []domain.Booking) {
	t.Helper()
	require.NoError(t, testDB.Create(&bookings).Error)
}

func TestEventRepository_FindByID(t *testing.T) {
	cleanTables()
	seeded := seedEvent(t, 100)
	repo := NewEventRepository(testDB)

	got, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Integration Gig", got.Title)
	assert.Equal(t, domain.PricingModeManual, got.PricingMode)

	_, err = repo.FindByID(context.Background(), seeded.ID+1000)
	assert.ErrorIs(t, err, pricing.ErrEventNotFound)
}

func TestBookingRepository_ConfirmedStats(t *testing.T) {
	cleanTables()
	event := seedEvent(t, 100)
	repo := NewBookingRepository(testDB)
	now := time.Now().UTC()

	bookings := []domain.Booking{
		{EventID: event.ID, UserID: 1, Status: domain.BookingStatusConfirmed, PricePaid: 100, CreatedAt: now.Add(-2 * time.Hour)},
		{EventID: event.ID, UserID: 2, Status: domain.BookingStatusConfirmed, PricePaid: 100, CreatedAt: now.Add(-48 * time.Hour)},
		{EventID: event.ID, UserID: 3, Status: domain.BookingStatusCancelled, PricePaid: 100, CreatedAt: now.Add(-1 * time.Hour)},
		{EventID: event.ID, UserID: 4, Status: domain.BookingStatusFlagged, PricePaid: 100, CreatedAt: now.Add(-1 * time.Hour)},
	}
	seedBookings(t, bookings)

	stats, err := repo.ConfirmedStats(context.Background(), event.ID, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Confirmed)
	assert.Equal(t, int64(1), stats.ConfirmedRecent)
}

func TestPricingUnitOfWork_CommitAndHistory(t *testing.T) {
	cleanTables()
	event := seedEvent(t, 100)
	svc := pricing.NewPricingService(
		NewEventRepository(testDB),
		NewBookingRepository(testDB),
		NewPricingLogRepository(testDB),
		NewPricingUnitOfWork(testDB),
		nil, nil, nil, nil,
		pricing.DefaultConfig(),
	)

	_, err := svc.ApplySuggestion(context.Background(), event.ID, domain.PricingSuggestion{SuggestedPrice: 130, Reasoning: "sold fast"}, true)
	require.NoError(t, err)

	stored, err := NewEventRepository(testDB).FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 130.0, stored.BasePrice)
	assert.Equal(t, 60, stored.AvailableSeats)
	require.NotNil(t, stored.LastPriceUpdate)

	history, err := NewPricingLogRepository(testDB).FindRecentByEvent(context.Background(), event.ID, 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 100.0, history[0].OldPrice)
	assert.Equal(t, 130.0, history[0].NewPrice)
}

func TestPricingUnitOfWork_RollsBackOnError(t *testing.T) {
	cleanTables()
	event := seedEvent(t, 100)
	uow := NewPricingUnitOfWork(testDB)

	boom := errors.New("boom")
	err := uow.WithinTx(context.Background(), func(tx pricing.PricingTx) error {
		locked, err := tx.LockEvent(context.Background(), event.ID)
		if err != nil {
			return err
		}
		if err := tx.AppendLog(context.Background(), &domain.PricingLog{EventID: locked.ID, OldPrice: 100, NewPrice: 200, Reason: "x"}); err != nil {
			return err
		}
		locked.BasePrice = 200
		if err := tx.SavePricing(context.Background(), &locked); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stored, err := NewEventRepository(testDB).FindByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.BasePrice)

	history, err := NewPricingLogRepository(testDB).FindRecentByEvent(context.Background(), event.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPricingUnitOfWork_ConcurrentWritersKeepAuditConsistent(t *testing.T) {
	cleanTables()
	event := seedEvent(t, 100)
	svc := pricing.NewPricingService(
		NewEventRepository(testDB),
		NewBookingRepository(testDB),
		NewPricingLogRepository(testDB),
		NewPricingUnitOfWork(testDB),
		nil, nil, nil, nil,
		pricing.DefaultConfig(),
	)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(price float64) {
			defer wg.Done()
			_, _ = svc.ManualSetPrice(context.Background(), event.ID, price, "")
		}(float64(110 + i))
	}
	wg.Wait()

	stored, err := NewEventRepository(testDB).FindByID(context.Background(), event.ID)
	require.NoError(t, err)

	history, err := NewPricingLogRepository(testDB).FindRecentByEvent(context.Background(), event.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 5)

	// the newest audit row always matches the stored price, and each row
	// starts where the previous one ended
	assert.Equal(t, stored.BasePrice, history[0].NewPrice)
	for i := 0; i < len(history)-1; i++ {
		assert.Equal(t, history[i+1].NewPrice, history[i].OldPrice)
	}
}

func TestOracleDecisionRepository_Record(t *testing.T) {
	cleanTables()
	repo := NewOracleDecisionRepository(testDB)

	err := repo.RecordDecision(context.Background(), domain.OracleDecision{
		System:   "pricing",
		Model:    "gemini-2.0-flash-001",
		Prompt:   "p",
		Response: `{"suggestedPrice":120}`,
		Context:  datatypes.JSONMap{"event_id": 7, "attempt": 1},
	})
	require.NoError(t, err)

	got, err := repo.RecentBySystem(context.Background(), "pricing", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "gemini-2.0-flash-001", got[0].Model)
	assert.EqualValues(t, 7, got[0].Context["event_id"])
}
