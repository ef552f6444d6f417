package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/bus-ticket-reservation/internal/handler"
)

// RegisterRoutes registers routes that do not touch the store: the
// liveness probe and the Prometheus exposition endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterHealth registers GET /api/db-check.
func RegisterHealth(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/api/db-check", h.DBCheck)
}
