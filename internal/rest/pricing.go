package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"eventPricing/business/pricing"
	"eventPricing/domain"
	"eventPricing/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	PricingHandler struct {
		validate       *validator.Validate
		pricingService PricingService
		timeout        time.Duration
	}

	PricingService interface {
		GetSuggestion(ctx context.Context, eventID uint64) (domain.PricingSuggestion, error)
		ApplySuggestion(ctx context.Context, eventID uint64, suggestion domain.PricingSuggestion, autoApply bool) (domain.ApplyResult, error)
		Optimize(ctx context.Context, eventID uint64, autoApply bool) (domain.ApplyResult, error)
		ManualSetPrice(ctx context.Context, eventID uint64, newPrice float64, reason string) (domain.Event, error)
		SetPricingMode(ctx context.Context, eventID uint64, req pricing.ModeRequest) (domain.Event, error)
		GetPricingHistory(ctx context.Context, eventID uint64, limit int) ([]domain.PricingLog, error)
	}

	ApplySuggestionRequest struct {
		Suggestion *domain.PricingSuggestion `json:"suggestion" validate:"required"`
		AutoApply  bool                      `json:"auto_apply"`
	}

	OptimizeRequest struct {
		AutoApply bool `json:"auto_apply"`
	}

	ManualPriceRequest struct {
		Price  float64 `json:"price" validate:"gt=0"`
		Reason string  `json:"reason" validate:"max=500"`
	}

	PricingModeRequest struct {
		Mode     string   `json:"mode" validate:"required,oneof=MANUAL AUTOMATIC"`
		MinPrice *float64 `json:"min_price" validate:"omitempty,gt=0"`
		MaxPrice *float64 `json:"max_price" validate:"omitempty,gt=0"`
	}

	HistoryQuery struct {
		Limit int `query:"limit" validate:"gte=0,lte=100"`
	}
)

func NewPricingHandler(svc PricingService, timeout time.Duration) *PricingHandler {
	return &PricingHandler{
		validate:       validator.New(),
		pricingService: svc,
		timeout:        timeout,
	}
}

// GET /api/v1/events/:id/pricing/suggestion
func (h *PricingHandler) GetSuggestion(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	suggestion, err := h.pricingService.GetSuggestion(ctx, eventID)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(suggestion))
}

// POST /api/v1/events/:id/pricing/apply
func (h *PricingHandler) ApplySuggestion(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var req ApplySuggestionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.pricingService.ApplySuggestion(ctx, eventID, *req.Suggestion, req.AutoApply)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// POST /api/v1/events/:id/pricing/optimize
func (h *PricingHandler) Optimize(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var req OptimizeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	result, err := h.pricingService.Optimize(ctx, eventID, req.AutoApply)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// PUT /api/v1/events/:id/pricing/price
func (h *PricingHandler) ManualSetPrice(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var req ManualPriceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	event, err := h.pricingService.ManualSetPrice(ctx, eventID, req.Price, req.Reason)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(event))
}

// PUT /api/v1/events/:id/pricing/mode
func (h *PricingHandler) SetPricingMode(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var req PricingModeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	event, err := h.pricingService.SetPricingMode(ctx, eventID, pricing.ModeRequest{
		Mode:     domain.PricingMode(req.Mode),
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
	})
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(event))
}

// GET /api/v1/events/:id/pricing/history?limit=20
func (h *PricingHandler) GetPricingHistory(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	var q HistoryQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	history, err := h.pricingService.GetPricingHistory(ctx, eventID, q.Limit)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(history))
}

var errInvalidEventID = errors.New("invalid event id")

func eventIDParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidEventID
	}
	return id, nil
}

func errorResponse(c echo.Context, err error) error {
	switch {
	case errors.Is(err, pricing.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, ResponseError{Message: "event not found"})
	case errors.Is(err, pricing.ErrInvalidArgument):
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, ResponseError{Message: "request timed out"})
	}

	logger.Error("pricing_request_failed",
		"trace_id", pricing.TraceIDFromContext(c.Request().Context()),
		"path", c.Path(),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to process pricing request"})
}
