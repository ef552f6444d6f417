package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-ticket-reservation/internal/handler"
)

// RegisterTickets registers the public ticket routes under /api.  limit
// guards the routes that write; cache fronts the read routes.  Both may be
// passthrough middleware when Redis is not configured.
func RegisterTickets(e *echo.Echo, h *handler.TicketHandler, limit, cache echo.MiddlewareFunc) {
	g := e.Group("/api")

	g.POST("/ticket", h.Book, limit)
	g.PUT("/ticket/:id", h.Update, limit)

	g.GET("/ticket/:id", h.Status, cache)
	g.GET("/ticket/:id/passenger-details", h.PassengerDetails, cache)
	g.GET("/tickets/open", h.ListOpen, cache)
	g.GET("/tickets/close", h.ListClosed, cache)
}
