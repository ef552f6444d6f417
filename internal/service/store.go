package service

import (
	"context"
	"time"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
)

// SeatStore is the persistence contract for seats.  Implementations must
// make Claim a single atomic test-and-set: the seat is booked for
// passengerID only if it is open (or absent, in which case it is created),
// and the bool result reports whether this call won.
type SeatStore interface {
	Claim(ctx context.Context, seatNumber int, passengerID string, at time.Time) (model.Seat, bool, error)
	GetByID(ctx context.Context, id string) (model.Seat, error)
	GetByNumber(ctx context.Context, seatNumber int) (model.Seat, error)
	ListByStatus(ctx context.Context, booked bool) ([]model.Seat, error)
	ListAll(ctx context.Context) ([]model.Seat, error)
	Reopen(ctx context.Context, id string) error
	UpdateOwned(ctx context.Context, id, passengerID string, patch model.SeatPatch) error
}

// PassengerStore is the persistence contract for passengers.  Create must
// fail with repository.ErrEmailExists when the email is taken.
type PassengerStore interface {
	Create(ctx context.Context, p model.Passenger) error
	GetByEmail(ctx context.Context, email string) (model.Passenger, error)
	GetByID(ctx context.Context, id string) (model.Passenger, error)
}

// EventPublisher receives notifications about completed mutations.  A
// failed publish never fails the mutation that triggered it.
type EventPublisher interface {
	PublishTicketBooked(ctx context.Context, ev queue.TicketBookedEvent) error
	PublishTicketsReset(ctx context.Context, ev queue.TicketsResetEvent) error
}
