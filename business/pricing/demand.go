package pricing

import (
	"context"
	"fmt"
	"time"

	"eventPricing/domain"
)

const day = 24 * time.Hour

// ComputeDemand derives the demand snapshot from already loaded state. It is
// pure: the same inputs and clock always give the same snapshot.
func ComputeDemand(
	event domain.Event,
	stats domain.BookingStats,
	history []domain.PricingLog,
	now time.Time,
) domain.DemandSnapshot {
	booked := event.BookedSeats()

	occupancy := 0.0
	if event.TotalSeats > 0 {
		occupancy = float64(booked) / float64(event.TotalSeats) * 100
	}

	ageDays := now.Sub(event.CreatedAt).Hours() / 24
	if ageDays < 1 {
		ageDays = 1
	}

	if history == nil {
		history = []domain.PricingLog{}
	}

	return domain.DemandSnapshot{
		EventID:         event.ID,
		CurrentPrice:    event.BasePrice,
		TotalSeats:      event.TotalSeats,
		AvailableSeats:  event.AvailableSeats,
		BookedSeats:     booked,
		OccupancyRate:   occupancy,
		BookingVelocity: float64(stats.Confirmed) / ageDays,
		RecentBookings:  stats.ConfirmedRecent,
		DaysRemaining:   event.StartDate.Sub(now).Hours() / 24,
		PricingHistory:  history,
	}
}

// AnalyzeDemand loads the event, its confirmed booking counts and the most
// recent pricing log rows, then computes the snapshot.
func (s *PricingService) AnalyzeDemand(ctx context.Context, eventID uint64) (domain.DemandSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.DemandSnapshot{}, fmt.Errorf("context error: %w", err)
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return domain.DemandSnapshot{}, err
	}

	now := s.now()

	stats, err := s.bookingRepo.ConfirmedStats(ctx, eventID, now.Add(-s.cfg.RecentWindow))
	if err != nil {
		return domain.DemandSnapshot{}, fmt.Errorf("load booking stats: %w", err)
	}

	history, err := s.logRepo.FindRecentByEvent(ctx, eventID, s.cfg.HistoryDepth)
	if err != nil {
		return domain.DemandSnapshot{}, fmt.Errorf("load pricing history: %w", err)
	}

	return ComputeDemand(event, stats, history, now), nil
}
