package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/handler"
	"github.com/iliyamo/bus-ticket-reservation/internal/middleware"
	"github.com/iliyamo/bus-ticket-reservation/internal/utils"
)

// RegisterAdmin registers the fleet reset routes.  POST /api/tickets/reset
// takes the admin credential in the body.  When jwtSecret is set, the admin
// may instead exchange the credential at POST /api/admin/token and call
// POST /api/admin/tickets/reset with the bearer token.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	e.POST("/api/tickets/reset", h.ResetWithCredential, limit)

	if jwtSecret == "" {
		return
	}
	e.POST("/api/admin/token", h.Token, limit)

	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RoleAdmin),
	)
	g.POST("/tickets/reset", h.ResetWithToken)
}
