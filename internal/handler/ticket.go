package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-ticket-reservation/internal/logger"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/service"
)

// CachePurger drops cached read responses after seats change.  A nil
// *middleware.CachePurger satisfies it and does nothing.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// TicketHandler serves the public ticket routes under /api.  Every store
// round trip made on behalf of a request is bounded by Timeout.
type TicketHandler struct {
	Booking *service.Booking
	Tickets *service.Tickets
	Cache   CachePurger
	Timeout time.Duration
}

// NewTicketHandler constructs a TicketHandler.  booking and tickets must be
// non-nil; cache may be nil.
func NewTicketHandler(booking *service.Booking, tickets *service.Tickets, cache CachePurger, timeout time.Duration) *TicketHandler {
	if booking == nil || tickets == nil {
		panic("nil service passed to NewTicketHandler")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TicketHandler{Booking: booking, Tickets: tickets, Cache: cache, Timeout: timeout}
}

type bookRequest struct {
	SeatNumber json.RawMessage   `json:"seat_number"`
	Passenger  *passengerRequest `json:"passenger" validate:"required"`
}

type passengerRequest struct {
	Username string `json:"username" validate:"required,min=5"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,len=10,number"`
}

// Book handles POST /api/ticket.  A seat that is already booked is not an
// error: the response is 200 with "Ticket already booked" and nothing
// changes, so clients may retry freely.
func (h *TicketHandler) Book(c echo.Context) error {
	var req bookRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	var errs []fieldError
	seatNumber, seatErr := parseSeatNumber(req.SeatNumber)
	if seatErr != nil {
		errs = append(errs, *seatErr)
	}
	if err := c.Validate(&req); err != nil {
		errs = append(errs, fieldErrors(err)...)
	}
	if len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": errs})
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()
	res, err := h.Booking.BookSeat(ctx, seatNumber, model.Contact{
		Username: req.Passenger.Username,
		Email:    req.Passenger.Email,
		Phone:    req.Passenger.Phone,
	})
	if err != nil {
		return respondError(c, err, msgNoPermission)
	}
	if res.Outcome == service.AlreadyBooked {
		return respond(c, http.StatusOK, "Ticket already booked", nil)
	}
	h.purge(ctx)
	return respond(c, http.StatusOK, "Ticket booked successfully", echo.Map{
		"ticket_id":   res.Seat.ID,
		"seat_number": res.SeatNumber,
		"passenger":   res.Passenger.Username,
	})
}

type updateRequest struct {
	UserID   string     `json:"userId"`
	IsBooked *bool      `json:"is_booked"`
	Date     *time.Time `json:"date"`
}

// Update handles PUT /api/ticket/:id.  Only the passenger holding the
// ticket (body field userId) may change it.  Setting is_booked to false
// releases the seat; is_booked true is ignored since seats are only
// booked through POST /api/ticket.
func (h *TicketHandler) Update(c echo.Context) error {
	id := c.Param("id")
	if !service.ValidID(id) {
		return respond(c, http.StatusNotFound, msgInvalidTicketID, nil)
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, msgInvalidBody, nil)
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()
	patch := model.SeatPatch{IsBooked: req.IsBooked, BookedAt: req.Date}
	if err := h.Tickets.UpdateTicket(ctx, id, req.UserID, patch); err != nil {
		return respondError(c, err, msgNoPermission)
	}
	h.purge(ctx)
	return respond(c, http.StatusOK, "Ticket updated successfully", nil)
}

// Status handles GET /api/ticket/:id.
func (h *TicketHandler) Status(c echo.Context) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()
	seat, err := h.Tickets.Status(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err, msgNoPermission)
	}
	msg := "Open Ticket (Not Booked Ticket)"
	if seat.IsBooked {
		msg = "Closed Ticket (Booked Ticket)"
	}
	return respond(c, http.StatusOK, msg, toSeatView(seat))
}

// ListOpen handles GET /api/tickets/open.
func (h *TicketHandler) ListOpen(c echo.Context) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()
	seats, err := h.Tickets.ListOpen(ctx)
	if err != nil {
		return respondError(c, err, msgNoPermission)
	}
	return respond(c, http.StatusOK, "List of all open tickets", toSeatViews(seats))
}

// ListClosed handles GET /api/tickets/close.
func (h *TicketHandler) ListClosed(c echo.Context) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()
	seats, err := h.Tickets.ListClosed(ctx)
	if err != nil {
		return respondError(c, err, msgNoPermission)
	}
	return respond(c, http.StatusOK, "List of all close tickets", toSeatViews(seats))
}

// PassengerDetails handles GET /api/ticket/:id/passenger-details.  An
// open seat has no passenger and answers 404 "Passenger not found".
func (h *TicketHandler) PassengerDetails(c echo.Context) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()
	p, err := h.Tickets.PassengerFor(ctx, c.Param("id"))
	if err != nil {
		return respondError(c, err, msgNoPermission)
	}
	return respond(c, http.StatusOK, "Passenger found successfully", echo.Map{
		"username": p.Username,
		"email":    p.Email,
		"phone":    p.Phone,
	})
}

func (h *TicketHandler) storeContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.Timeout)
}

func (h *TicketHandler) purge(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Purge(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("cache purge failed", zap.Error(err))
	}
}
