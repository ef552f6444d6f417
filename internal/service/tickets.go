package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-ticket-reservation/internal/logger"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// Tickets answers point and bulk queries on seats and applies
// owner-authorised updates.  Every identifier is checked for shape before
// the store is consulted, so a malformed id never costs a query.
type Tickets struct {
	seats      SeatStore
	passengers PassengerStore
}

func NewTickets(seats SeatStore, passengers PassengerStore) *Tickets {
	if seats == nil || passengers == nil {
		panic("nil store passed to NewTickets")
	}
	return &Tickets{seats: seats, passengers: passengers}
}

// ValidID reports whether id is a well-formed ticket identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Status returns the seat identified by id.
func (t *Tickets) Status(ctx context.Context, id string) (model.Seat, error) {
	if !ValidID(id) {
		return model.Seat{}, ErrInvalidID
	}
	seat, err := t.seats.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return model.Seat{}, ErrTicketNotFound
		}
		return model.Seat{}, storageErr("get ticket", err)
	}
	return seat, nil
}

// ListOpen returns every seat that is not booked.
func (t *Tickets) ListOpen(ctx context.Context) ([]model.Seat, error) {
	seats, err := t.seats.ListByStatus(ctx, false)
	if err != nil {
		return nil, storageErr("list open tickets", err)
	}
	return seats, nil
}

// ListClosed returns every booked seat.
func (t *Tickets) ListClosed(ctx context.Context) ([]model.Seat, error) {
	seats, err := t.seats.ListByStatus(ctx, true)
	if err != nil {
		return nil, storageErr("list closed tickets", err)
	}
	return seats, nil
}

// PassengerFor returns the profile of the passenger holding ticket id.
func (t *Tickets) PassengerFor(ctx context.Context, id string) (model.Passenger, error) {
	seat, err := t.Status(ctx, id)
	if err != nil {
		return model.Passenger{}, err
	}
	if seat.PassengerID == nil {
		return model.Passenger{}, ErrPassengerNotFound
	}
	p, err := t.passengers.GetByID(ctx, *seat.PassengerID)
	if err != nil {
		if errors.Is(err, repository.ErrPassengerNotFound) {
			return model.Passenger{}, ErrPassengerNotFound
		}
		return model.Passenger{}, storageErr("get passenger", err)
	}
	return p, nil
}

// UpdateTicket applies patch to ticket id on behalf of requesterID.  The
// requester must be the seat's current passenger; the ownership check and
// the write are one conditional store operation, so a non-owner never
// changes anything.  A missing ticket is reported before ownership.
func (t *Tickets) UpdateTicket(ctx context.Context, id, requesterID string, patch model.SeatPatch) error {
	if !ValidID(id) {
		return ErrInvalidID
	}
	err := t.seats.UpdateOwned(ctx, id, requesterID, patch)
	switch {
	case err == nil:
		logger.Info("ticket updated", zap.String("ticket_id", id), zap.String("passenger_id", requesterID))
		return nil
	case errors.Is(err, repository.ErrSeatNotFound):
		return ErrTicketNotFound
	case errors.Is(err, repository.ErrForbidden):
		return ErrForbidden
	}
	return storageErr("update ticket", err)
}
