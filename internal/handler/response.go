package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-ticket-reservation/internal/logger"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/service"
)

// Response messages shared by the ticket and admin handlers.
const (
	msgInvalidTicketID   = "Invalid Ticket id"
	msgTicketNotFound    = "Ticket not found"
	msgPassengerNotFound = "Passenger not found"
	msgNoPermission      = "No permission to update this ticket"
	msgInternal          = "Internal server error"
	msgInvalidBody       = "invalid request body"
)

// respond writes the {status, message, data} envelope.  data is omitted
// when nil.
func respond(c echo.Context, status int, msg string, data interface{}) error {
	body := echo.Map{"status": status, "message": msg}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(status, body)
}

// respondError maps service errors to responses.  forbiddenMsg is the
// message used for ErrForbidden, which differs per route.  Storage
// failures are logged and answered with 500 without details.
func respondError(c echo.Context, err error, forbiddenMsg string) error {
	switch {
	case errors.Is(err, service.ErrInvalidID):
		return respond(c, http.StatusNotFound, msgInvalidTicketID, nil)
	case errors.Is(err, service.ErrTicketNotFound):
		return respond(c, http.StatusNotFound, msgTicketNotFound, nil)
	case errors.Is(err, service.ErrPassengerNotFound):
		return respond(c, http.StatusNotFound, msgPassengerNotFound, nil)
	case errors.Is(err, service.ErrForbidden):
		return respond(c, http.StatusBadRequest, forbiddenMsg, nil)
	}
	logger.Error("request failed",
		zap.String("method", c.Request().Method),
		zap.String("path", c.Request().URL.Path),
		zap.Bool("storage", service.IsStorageError(err)),
		zap.Error(err))
	return respond(c, http.StatusInternalServerError, msgInternal, nil)
}

// seatView is the wire form of a seat.
type seatView struct {
	ID         string    `json:"_id"`
	SeatNumber int       `json:"seat_number"`
	IsBooked   bool      `json:"is_booked"`
	Date       time.Time `json:"date"`
	Passenger  *string   `json:"passenger"`
}

func toSeatView(s model.Seat) seatView {
	return seatView{
		ID:         s.ID,
		SeatNumber: s.SeatNumber,
		IsBooked:   s.IsBooked,
		Date:       s.BookedAt,
		Passenger:  s.PassengerID,
	}
}

func toSeatViews(seats []model.Seat) []seatView {
	out := make([]seatView, 0, len(seats))
	for _, s := range seats {
		out = append(out, toSeatView(s))
	}
	return out
}
