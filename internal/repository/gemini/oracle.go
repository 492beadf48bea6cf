package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"eventPricing/business/pricing"
	"eventPricing/domain"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
)

const (
	DefaultModel = "gemini-2.0-flash-001"

	systemInstruction = "You are a pricing optimization AI. Always return valid JSON only, no additional text."
	temperature       = 0.5
	maxOutputTokens   = 500
)

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Oracle scores demand snapshots with a Gemini model in JSON response mode.
type Oracle struct {
	client    *genai.Client
	model     generator
	modelName string
}

var _ pricing.Oracle = (*Oracle)(nil)

func NewOracle(ctx context.Context, apiKey, modelName string) (*Oracle, error) {
	if apiKey == "" {
		return nil, errors.New("missing gemini api key")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(maxOutputTokens)
	model.SystemInstruction = genai.NewUserContent(genai.Text(systemInstruction))

	return &Oracle{client: client, model: model, modelName: modelName}, nil
}

func (o *Oracle) Close() error {
	if o.client == nil {
		return nil
	}
	return o.client.Close()
}

func (o *Oracle) Score(ctx context.Context, req pricing.ScoreRequest) (pricing.ScoreResult, error) {
	prompt := BuildPrompt(req.Snapshot)
	result := pricing.ScoreResult{Model: o.modelName, Prompt: prompt}

	resp, err := o.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		result.Raw = "ERROR: " + err.Error()
		return result, fmt.Errorf("gemini generate: %w", err)
	}

	txt, err := responseText(resp)
	if err != nil {
		return result, err
	}
	result.Raw = txt

	parsed, err := ParseScore(txt)
	if err != nil {
		return result, err
	}

	result.SuggestedPrice = parsed.SuggestedPrice
	result.Confidence = parsed.Confidence
	result.Reasoning = parsed.Reasoning
	return result, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response from gemini", pricing.ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		t, ok := part.(genai.Text)
		if !ok {
			return "", fmt.Errorf("%w: unexpected part type %T", pricing.ErrMalformedResponse, part)
		}
		sb.WriteString(string(t))
	}

	return sb.String(), nil
}

type Score struct {
	SuggestedPrice float64
	Confidence     float64
	Reasoning      string
}

type scorePayload struct {
	SuggestedPrice *float64 `json:"suggestedPrice"`
	Confidence     *float64 `json:"confidence"`
	Reasoning      *string  `json:"reasoning"`
}

// ParseScore decodes the model output. All three fields are required; range
// checks are left to the pricing service.
func ParseScore(txt string) (Score, error) {
	txt = strings.TrimSpace(txt)
	txt = strings.TrimPrefix(txt, "```json")
	txt = strings.TrimPrefix(txt, "```")
	txt = strings.TrimSuffix(txt, "```")
	txt = strings.TrimSpace(txt)

	var p scorePayload
	if err := json.Unmarshal([]byte(txt), &p); err != nil {
		return Score{}, fmt.Errorf("%w: %v", pricing.ErrMalformedResponse, err)
	}

	if p.SuggestedPrice == nil || p.Confidence == nil || p.Reasoning == nil {
		return Score{}, fmt.Errorf("%w: missing suggestedPrice, confidence or reasoning", pricing.ErrMalformedResponse)
	}

	return Score{
		SuggestedPrice: *p.SuggestedPrice,
		Confidence:     *p.Confidence,
		Reasoning:      *p.Reasoning,
	}, nil
}

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

// BuildPrompt renders the demand snapshot into the scoring prompt.
func BuildPrompt(s domain.DemandSnapshot) string {
	var history strings.Builder
	if len(s.PricingHistory) == 0 {
		history.WriteString("- No previous price changes\n")
	}
	for _, l := range s.PricingHistory {
		fmt.Fprintf(&history, "- %s → %s: %s\n", money(l.OldPrice), money(l.NewPrice), l.Reason)
	}

	return fmt.Sprintf(`You are a dynamic pricing optimization AI for event tickets.

CURRENT SITUATION:
- Current Price: %s
- Total Seats: %d
- Available Seats: %d
- Occupancy Rate: %.1f%%
- Booking Velocity: %.2f bookings/day
- Recent Bookings (24h): %d
- Days Until Event: %.1f

PRICING HISTORY:
%s
TASK:
Analyze the demand signals and suggest an optimal ticket price.
Consider:
1. High occupancy + high velocity = increase price
2. Low occupancy + event approaching = decrease price
3. Steady demand = maintain price
4. Last-minute surge = increase price

Return ONLY valid JSON in this exact format:
{
  "suggestedPrice": 150.00,
  "confidence": 0.85,
  "reasoning": "High booking velocity and 75%% occupancy suggest strong demand. Recommend 15%% price increase to maximize revenue."
}`,
		money(s.CurrentPrice),
		s.TotalSeats,
		s.AvailableSeats,
		s.OccupancyRate,
		s.BookingVelocity,
		s.RecentBookings,
		s.DaysRemaining,
		history.String(),
	)
}
