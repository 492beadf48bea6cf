package router

import (
	"net/http"

	"eventPricing/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetPricingRoutes(api *echo.Group, handler *rest.PricingHandler) {
	pricing := api.Group("/events/:id/pricing")

	pricing.GET("/suggestion", handler.GetSuggestion)
	pricing.POST("/apply", handler.ApplySuggestion)
	pricing.POST("/optimize", handler.Optimize)
	pricing.PUT("/price", handler.ManualSetPrice)
	pricing.PUT("/mode", handler.SetPricingMode)
	pricing.GET("/history", handler.GetPricingHistory)
}

func SetOperationalRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
