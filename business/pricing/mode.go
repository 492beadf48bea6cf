package pricing

import (
	"math"
	"time"

	"eventPricing/domain"

	"github.com/shopspring/decimal"
)

// Clamp constrains price to [min, max].
func Clamp(price, lo, hi float64) float64 {
	return max(lo, min(hi, price))
}

// RoundPrice rounds to cents.
func RoundPrice(price float64) float64 {
	return decimal.NewFromFloat(price).Round(2).InexactFloat64()
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0)
}

type ModeRequest struct {
	Mode     domain.PricingMode
	MinPrice *float64
	MaxPrice *float64
}

// Validate checks the band. AUTOMATIC needs both bounds; MANUAL may carry
// them, and when it carries both they follow the same ordering rule.
func (r ModeRequest) Validate() error {
	if !r.Mode.Valid() {
		return invalidArgument("unknown pricing mode %q", r.Mode)
	}

	if r.MinPrice != nil && !validPrice(*r.MinPrice) {
		return invalidArgument("min price must be greater than zero")
	}
	if r.MaxPrice != nil && !validPrice(*r.MaxPrice) {
		return invalidArgument("max price must be greater than zero")
	}

	if r.Mode == domain.PricingModeAutomatic && (r.MinPrice == nil || r.MaxPrice == nil) {
		return invalidArgument("automatic pricing requires both min and max price")
	}

	if r.MinPrice != nil && r.MaxPrice != nil && *r.MinPrice >= *r.MaxPrice {
		return invalidArgument("min price %.2f must be lower than max price %.2f", *r.MinPrice, *r.MaxPrice)
	}

	return nil
}

// transition applies a validated mode request to the event. When the result
// is AUTOMATIC the price is pulled into the band, starting from candidate if
// one is known and from the current price otherwise. A log row is returned
// only when the price actually moves.
func transition(event domain.Event, req ModeRequest, candidate *float64, now time.Time) (domain.Event, *domain.PricingLog) {
	next := event
	next.PricingMode = req.Mode
	if req.MinPrice != nil {
		v := *req.MinPrice
		next.MinPrice = &v
	}
	if req.MaxPrice != nil {
		v := *req.MaxPrice
		next.MaxPrice = &v
	}
	next.LastPriceUpdate = &now

	if req.Mode != domain.PricingModeAutomatic {
		return next, nil
	}

	price := event.BasePrice
	if candidate != nil {
		price = *candidate
	}

	clamped := Clamp(price, *next.MinPrice, *next.MaxPrice)
	if clamped == event.BasePrice {
		return next, nil
	}

	next.BasePrice = clamped
	return next, &domain.PricingLog{
		EventID:   event.ID,
		OldPrice:  event.BasePrice,
		NewPrice:  clamped,
		Reason:    ClampReason,
		CreatedAt: now,
	}
}

// bandFor returns the band an accepted price must respect, if any.
func bandFor(event domain.Event) (lo, hi float64, ok bool) {
	if event.PricingMode != domain.PricingModeAutomatic || event.MinPrice == nil || event.MaxPrice == nil {
		return 0, 0, false
	}
	return *event.MinPrice, *event.MaxPrice, true
}
