package pricing

import (
	"testing"

	"eventPricing/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"above band", 130, 110},
		{"below band", 70, 90},
		{"inside band", 100, 100},
		{"on lower edge", 90, 90},
		{"on upper edge", 110, 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.price, 90, 110))
		})
	}
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 129.99, RoundPrice(129.9899))
	assert.Equal(t, 130.0, RoundPrice(129.999))
	assert.Equal(t, 0.0, RoundPrice(0.001))
}

func TestModeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ModeRequest
		wantErr bool
	}{
		{"automatic with band", ModeRequest{Mode: domain.PricingModeAutomatic, MinPrice: ptr(90), MaxPrice: ptr(110)}, false},
		{"automatic inverted band", ModeRequest{Mode: domain.PricingModeAutomatic, MinPrice: ptr(100), MaxPrice: ptr(90)}, true},
		{"automatic equal bounds", ModeRequest{Mode: domain.PricingModeAutomatic, MinPrice: ptr(100), MaxPrice: ptr(100)}, true},
		{"automatic missing max", ModeRequest{Mode: domain.PricingModeAutomatic, MinPrice: ptr(90)}, true},
		{"automatic zero min", ModeRequest{Mode: domain.PricingModeAutomatic, MinPrice: ptr(0), MaxPrice: ptr(110)}, true},
		{"manual without band", ModeRequest{Mode: domain.PricingModeManual}, false},
		{"manual inverted band", ModeRequest{Mode: domain.PricingModeManual, MinPrice: ptr(100), MaxPrice: ptr(90)}, true},
		{"unknown mode", ModeRequest{Mode: "SURGE"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransition_AutomaticClampsCurrentPrice(t *testing.T) {
	event := sampleEvent()
	event.BasePrice = 130

	next, entry := transition(event, ModeRequest{Mode: domain.PricingModeAutomatic, MinPrice: ptr(90), MaxPrice: ptr(110)}, nil, testNow)

	require.NotNil(t, entry)
	assert.Equal(t, 110.0, next.BasePrice)
	assert.Equal(t, 130.0, entry.OldPrice)
	assert.Equal(t, 110.0, entry.NewPrice)
	assert.Equal(t, ClampReason, entry.Reason)
	assert.Equal(t, domain.PricingModeAutomatic, next.PricingMode)
	require.NotNil(t, next.LastPriceUpdate)
	assert.Equal(t, testNow, *next.LastPriceUpdate)
}

func TestTransition_AutomaticPrefersCandidate(t *testing.T) {
	event := sampleEvent()

	next, entry := transition(event, ModeRequest{Mode: domain.PricingModeAutomatic, MinPrice: ptr(90), MaxPrice: ptr(110)}, ptr(95), testNow)

	require.NotNil(t, entry)
	assert.Equal(t, 95.0, next.BasePrice)
}

func TestTransition_AutomaticInsideBandLogsNothing(t *testing.T) {
	event := sampleEvent()

	next, entry := transition(event, ModeRequest{Mode: domain.PricingModeAutomatic, MinPrice: ptr(90), MaxPrice: ptr(110)}, nil, testNow)

	assert.Nil(t, entry)
	assert.Equal(t, 100.0, next.BasePrice)
	assert.Equal(t, 90.0, *next.MinPrice)
}

func TestTransition_ManualNeverClamps(t *testing.T) {
	event := sampleEvent()
	event.BasePrice = 130
	event.PricingMode = domain.PricingModeAutomatic
	event.MinPrice = ptr(90)
	event.MaxPrice = ptr(130)

	next, entry := transition(event, ModeRequest{Mode: domain.PricingModeManual}, ptr(50), testNow)

	assert.Nil(t, entry)
	assert.Equal(t, 130.0, next.BasePrice)
	assert.Equal(t, domain.PricingModeManual, next.PricingMode)
	assert.Equal(t, 90.0, *next.MinPrice)
}
