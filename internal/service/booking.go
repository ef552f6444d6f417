package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/bus-ticket-reservation/internal/logger"
	"github.com/iliyamo/bus-ticket-reservation/internal/metrics"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// Outcome is the result of a booking attempt that did not fail.
type Outcome int

const (
	// Booked means this call claimed the seat.
	Booked Outcome = iota + 1
	// AlreadyBooked means the seat was held by someone else and nothing
	// was changed.
	AlreadyBooked
)

func (o Outcome) String() string {
	switch o {
	case Booked:
		return metrics.OutcomeBooked
	case AlreadyBooked:
		return metrics.OutcomeAlreadyBooked
	}
	return "unknown"
}

// BookingResult describes a booking attempt.  Seat and Passenger are only
// populated when Outcome is Booked.
type BookingResult struct {
	Outcome      Outcome
	SeatNumber   int
	Seat         model.Seat
	Passenger    model.Passenger
	NewPassenger bool
}

// Booking is the seat reservation engine.
type Booking struct {
	seats     SeatStore
	directory *Directory
	events    EventPublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewBooking wires the engine.  events and m may be nil.
func NewBooking(seats SeatStore, directory *Directory, events EventPublisher, m *metrics.Metrics) *Booking {
	if seats == nil || directory == nil {
		panic("nil dependency passed to NewBooking")
	}
	return &Booking{seats: seats, directory: directory, events: events, metrics: m, now: time.Now}
}

// BookSeat tries to book seatNumber for the passenger described by c.
//
// Ownership is decided by SeatStore.Claim alone, which atomically books the
// seat only if it is open.  Of any number of concurrent callers for the
// same open seat exactly one gets Booked; the rest get AlreadyBooked.  The
// read before it only keeps requests for seats that are visibly booked from
// touching the passenger directory.
func (b *Booking) BookSeat(ctx context.Context, seatNumber int, c model.Contact) (BookingResult, error) {
	res, err := b.bookSeat(ctx, seatNumber, c)
	if err != nil {
		b.metrics.Booking(metrics.OutcomeError)
		return BookingResult{}, err
	}
	b.metrics.Booking(res.Outcome.String())
	return res, nil
}

func (b *Booking) bookSeat(ctx context.Context, seatNumber int, c model.Contact) (BookingResult, error) {
	already := BookingResult{Outcome: AlreadyBooked, SeatNumber: seatNumber}

	current, err := b.seats.GetByNumber(ctx, seatNumber)
	switch {
	case err == nil && current.IsBooked:
		return already, nil
	case err != nil && !errors.Is(err, repository.ErrSeatNotFound):
		return BookingResult{}, storageErr("lookup seat", err)
	}

	p, isNew, err := b.directory.Resolve(ctx, c)
	if err != nil {
		return BookingResult{}, err
	}

	seat, won, err := b.seats.Claim(ctx, seatNumber, p.ID, b.now().UTC())
	if err != nil {
		return BookingResult{}, storageErr("claim seat", err)
	}
	if !won {
		return already, nil
	}

	logger.Info("ticket booked",
		zap.Int("seat_number", seatNumber),
		zap.String("ticket_id", seat.ID),
		zap.String("passenger_id", p.ID))
	b.publish(ctx, seat, p, isNew)

	return BookingResult{
		Outcome:      Booked,
		SeatNumber:   seatNumber,
		Seat:         seat,
		Passenger:    p,
		NewPassenger: isNew,
	}, nil
}

func (b *Booking) publish(ctx context.Context, seat model.Seat, p model.Passenger, isNew bool) {
	if b.events == nil {
		return
	}
	ev := queue.TicketBookedEvent{
		TicketID:     seat.ID,
		SeatNumber:   seat.SeatNumber,
		PassengerID:  p.ID,
		Passenger:    p.Username,
		NewPassenger: isNew,
		BookedAt:     seat.BookedAt.Format(time.RFC3339),
	}
	if err := b.events.PublishTicketBooked(ctx, ev); err != nil {
		logger.Warn("publish ticket booked failed", zap.String("ticket_id", seat.ID), zap.Error(err))
	}
}
