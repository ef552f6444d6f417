package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-ticket-reservation/internal/logger"
)

// Health is a simple liveness endpoint used by load balancers.  It returns
// a plain text "ok" with 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// PingFunc checks that the backing store answers.  (*sql.DB).PingContext
// and (*memstore.Store).Ping both fit.
type PingFunc func(ctx context.Context) error

// HealthHandler serves GET /api/db-check.
type HealthHandler struct {
	Ping PingFunc
}

func NewHealthHandler(ping PingFunc) *HealthHandler {
	if ping == nil {
		panic("nil ping passed to NewHealthHandler")
	}
	return &HealthHandler{Ping: ping}
}

// DBCheck reports whether the store is reachable.
func (h *HealthHandler) DBCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.Ping(ctx); err != nil {
		logger.Error("database check failed", zap.Error(err))
		return respond(c, http.StatusInternalServerError, "Database not connected", nil)
	}
	return respond(c, http.StatusOK, "Database connected", nil)
}
