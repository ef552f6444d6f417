package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
)

// MockSeatStore implements SeatStore
type MockSeatStore struct {
	mock.Mock
}

func (m *MockSeatStore) Claim(ctx context.Context, seatNumber int, passengerID string, at time.Time) (model.Seat, bool, error) {
	args := m.Called(ctx, seatNumber, passengerID, at)
	return args.Get(0).(model.Seat), args.Bool(1), args.Error(2)
}

func (m *MockSeatStore) GetByID(ctx context.Context, id string) (model.Seat, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Seat), args.Error(1)
}

func (m *MockSeatStore) GetByNumber(ctx context.Context, seatNumber int) (model.Seat, error) {
	args := m.Called(ctx, seatNumber)
	return args.Get(0).(model.Seat), args.Error(1)
}

func (m *MockSeatStore) ListByStatus(ctx context.Context, booked bool) ([]model.Seat, error) {
	args := m.Called(ctx, booked)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Seat), args.Error(1)
}

func (m *MockSeatStore) ListAll(ctx context.Context) ([]model.Seat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Seat), args.Error(1)
}

func (m *MockSeatStore) Reopen(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSeatStore) UpdateOwned(ctx context.Context, id, passengerID string, patch model.SeatPatch) error {
	args := m.Called(ctx, id, passengerID, patch)
	return args.Error(0)
}

// MockPassengerStore implements PassengerStore
type MockPassengerStore struct {
	mock.Mock
}

func (m *MockPassengerStore) Create(ctx context.Context, p model.Passenger) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPassengerStore) GetByEmail(ctx context.Context, email string) (model.Passenger, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Passenger), args.Error(1)
}

func (m *MockPassengerStore) GetByID(ctx context.Context, id string) (model.Passenger, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Passenger), args.Error(1)
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	booked []queue.TicketBookedEvent
	resets []queue.TicketsResetEvent
	err    error
}

func (p *recordingPublisher) PublishTicketBooked(_ context.Context, ev queue.TicketBookedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.booked = append(p.booked, ev)
	return p.err
}

func (p *recordingPublisher) PublishTicketsReset(_ context.Context, ev queue.TicketsResetEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets = append(p.resets, ev)
	return p.err
}

// countingPassengers wraps a PassengerStore and counts Create calls.
type countingPassengers struct {
	PassengerStore
	mu      sync.Mutex
	creates int
}

func (c *countingPassengers) Create(ctx context.Context, p model.Passenger) error {
	c.mu.Lock()
	c.creates++
	c.mu.Unlock()
	return c.PassengerStore.Create(ctx, p)
}

func alice() model.Contact {
	return model.Contact{Username: "alice1", Email: "a@x.com", Phone: "1234567890"}
}
