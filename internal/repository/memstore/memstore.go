// Package memstore is an in-process implementation of the seat and
// passenger stores.  It backs STORE_DRIVER=memory for local runs and the
// concurrency tests.  Each operation runs under one mutex, which gives the
// same guarantees the MySQL store gets from conditional updates and the
// unique email index: a claim succeeds only on an open seat and at most one
// passenger exists per email.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// Store holds both collections.  Use Seats and Passengers to obtain the
// typed views the services depend on.
type Store struct {
	mu sync.Mutex

	seats    map[string]model.Seat // by id
	byNumber map[int]string        // seat number -> id

	passengers map[string]model.Passenger // by id
	byEmail    map[string]string          // email -> id
}

// New returns an empty store.
func New() *Store {
	return &Store{
		seats:      make(map[string]model.Seat),
		byNumber:   make(map[int]string),
		passengers: make(map[string]model.Passenger),
		byEmail:    make(map[string]string),
	}
}

// Seats returns the seat view of the store.
func (s *Store) Seats() *Seats { return &Seats{s: s} }

// Passengers returns the passenger view of the store.
func (s *Store) Passengers() *Passengers { return &Passengers{s: s} }

// Ping always succeeds unless ctx is done.
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Seats implements the seat store on top of Store.
type Seats struct{ s *Store }

// Claim books seatNumber for passengerID if the seat is open, creating the
// seat first when the number has never been seen.
func (v *Seats) Claim(ctx context.Context, seatNumber int, passengerID string, at time.Time) (model.Seat, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Seat{}, false, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	id, ok := v.s.byNumber[seatNumber]
	if !ok {
		id = uuid.NewString()
		v.s.byNumber[seatNumber] = id
		v.s.seats[id] = model.Seat{ID: id, SeatNumber: seatNumber, BookedAt: at.UTC()}
	}
	seat := v.s.seats[id]
	if seat.IsBooked {
		return model.Seat{}, false, nil
	}
	owner := passengerID
	seat.IsBooked = true
	seat.BookedAt = at.UTC()
	seat.PassengerID = &owner
	v.s.seats[id] = seat
	return copySeat(seat), true, nil
}

func (v *Seats) GetByID(ctx context.Context, id string) (model.Seat, error) {
	if err := ctx.Err(); err != nil {
		return model.Seat{}, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	seat, ok := v.s.seats[id]
	if !ok {
		return model.Seat{}, repository.ErrSeatNotFound
	}
	return copySeat(seat), nil
}

func (v *Seats) GetByNumber(ctx context.Context, seatNumber int) (model.Seat, error) {
	if err := ctx.Err(); err != nil {
		return model.Seat{}, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	id, ok := v.s.byNumber[seatNumber]
	if !ok {
		return model.Seat{}, repository.ErrSeatNotFound
	}
	return copySeat(v.s.seats[id]), nil
}

func (v *Seats) ListByStatus(ctx context.Context, booked bool) ([]model.Seat, error) {
	return v.list(ctx, func(s model.Seat) bool { return s.IsBooked == booked })
}

func (v *Seats) ListAll(ctx context.Context) ([]model.Seat, error) {
	return v.list(ctx, func(model.Seat) bool { return true })
}

func (v *Seats) list(ctx context.Context, keep func(model.Seat) bool) ([]model.Seat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := []model.Seat{}
	for _, seat := range v.s.seats {
		if keep(seat) {
			out = append(out, copySeat(seat))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

// Reopen releases seat id regardless of who holds it.
func (v *Seats) Reopen(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	seat, ok := v.s.seats[id]
	if !ok {
		return nil
	}
	seat.IsBooked = false
	seat.PassengerID = nil
	v.s.seats[id] = seat
	return nil
}

// UpdateOwned applies patch when passengerID owns seat id.
func (v *Seats) UpdateOwned(ctx context.Context, id, passengerID string, patch model.SeatPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	seat, ok := v.s.seats[id]
	if !ok {
		return repository.ErrSeatNotFound
	}
	if !seat.OwnedBy(passengerID) {
		return repository.ErrForbidden
	}
	v.s.seats[id] = patch.Apply(seat)
	return nil
}

// Passengers implements the passenger store on top of Store.
type Passengers struct{ s *Store }

func (v *Passengers) Create(ctx context.Context, p model.Passenger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, taken := v.s.byEmail[p.Email]; taken {
		return repository.ErrEmailExists
	}
	v.s.passengers[p.ID] = p
	v.s.byEmail[p.Email] = p.ID
	return nil
}

func (v *Passengers) GetByEmail(ctx context.Context, email string) (model.Passenger, error) {
	if err := ctx.Err(); err != nil {
		return model.Passenger{}, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	id, ok := v.s.byEmail[email]
	if !ok {
		return model.Passenger{}, repository.ErrPassengerNotFound
	}
	return v.s.passengers[id], nil
}

func (v *Passengers) GetByID(ctx context.Context, id string) (model.Passenger, error) {
	if err := ctx.Err(); err != nil {
		return model.Passenger{}, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.passengers[id]
	if !ok {
		return model.Passenger{}, repository.ErrPassengerNotFound
	}
	return p, nil
}

func copySeat(s model.Seat) model.Seat {
	if s.PassengerID != nil {
		pid := *s.PassengerID
		s.PassengerID = &pid
	}
	return s
}
