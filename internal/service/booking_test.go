package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-ticket-reservation/internal/metrics"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository/memstore"
)

func newMemBooking(events EventPublisher) (*Booking, *memstore.Store) {
	store := memstore.New()
	dir := NewDirectory(store.Passengers(), nil)
	return NewBooking(store.Seats(), dir, events, nil), store
}

func contact(i int) model.Contact {
	return model.Contact{
		Username: fmt.Sprintf("user%03d", i),
		Email:    fmt.Sprintf("user%03d@x.com", i),
		Phone:    "1234567890",
	}
}

func TestBooking_BookThenRepeat(t *testing.T) {
	ctx := context.Background()
	b, store := newMemBooking(nil)

	res, err := b.BookSeat(ctx, 5, alice())
	require.NoError(t, err)
	assert.Equal(t, Booked, res.Outcome)
	assert.Equal(t, 5, res.SeatNumber)
	assert.Equal(t, "alice1", res.Passenger.Username)
	assert.True(t, res.NewPassenger)
	assert.True(t, res.Seat.OwnedBy(res.Passenger.ID))

	again, err := b.BookSeat(ctx, 5, alice())
	require.NoError(t, err)
	assert.Equal(t, AlreadyBooked, again.Outcome)

	seat, err := store.Seats().GetByNumber(ctx, 5)
	require.NoError(t, err)
	assert.True(t, seat.OwnedBy(res.Passenger.ID))
}

func TestBooking_AlreadyBookedKeepsOwnerForEverySeat(t *testing.T) {
	ctx := context.Background()
	b, store := newMemBooking(nil)

	for s := model.MinSeatNumber; s <= model.MaxSeatNumber; s++ {
		first, err := b.BookSeat(ctx, s, contact(s))
		require.NoError(t, err)
		require.Equal(t, Booked, first.Outcome)

		second, err := b.BookSeat(ctx, s, contact(100+s))
		require.NoError(t, err)
		assert.Equal(t, AlreadyBooked, second.Outcome, "seat %d", s)

		seat, err := store.Seats().GetByNumber(ctx, s)
		require.NoError(t, err)
		assert.True(t, seat.OwnedBy(first.Passenger.ID), "seat %d", s)
	}
}

func TestBooking_ConcurrentSameSeatHasOneWinner(t *testing.T) {
	ctx := context.Background()
	b, store := newMemBooking(nil)

	const n = 50
	results := make([]BookingResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := b.BookSeat(ctx, 12, contact(i))
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	var booked, already int
	var winner model.Passenger
	for _, r := range results {
		switch r.Outcome {
		case Booked:
			booked++
			winner = r.Passenger
		case AlreadyBooked:
			already++
		}
	}
	assert.Equal(t, 1, booked)
	assert.Equal(t, n-1, already)

	seat, err := store.Seats().GetByNumber(ctx, 12)
	require.NoError(t, err)
	assert.True(t, seat.IsBooked)
	assert.True(t, seat.OwnedBy(winner.ID))
}

func TestBooking_ConcurrentDistinctSeatsAllSucceed(t *testing.T) {
	ctx := context.Background()
	b, store := newMemBooking(nil)

	var wg sync.WaitGroup
	for s := model.MinSeatNumber; s <= model.MaxSeatNumber; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			res, err := b.BookSeat(ctx, s, alice())
			assert.NoError(t, err)
			assert.Equal(t, Booked, res.Outcome)
		}(s)
	}
	wg.Wait()

	closed, err := store.Seats().ListByStatus(ctx, true)
	require.NoError(t, err)
	assert.Len(t, closed, model.MaxSeatNumber)

	// one email, one passenger, forty seats
	owner := *closed[0].PassengerID
	for _, s := range closed {
		assert.Equal(t, owner, *s.PassengerID)
	}
}

func TestBooking_LostClaimAfterOpenRead(t *testing.T) {
	seats := new(MockSeatStore)
	passengers := memstore.New().Passengers()

	seats.On("GetByNumber", mock.Anything, 3).Return(model.Seat{}, repository.ErrSeatNotFound)
	seats.On("Claim", mock.Anything, 3, mock.AnythingOfType("string"), mock.Anything).Return(model.Seat{}, false, nil)

	pub := &recordingPublisher{}
	b := NewBooking(seats, NewDirectory(passengers, nil), pub, nil)

	res, err := b.BookSeat(context.Background(), 3, alice())
	require.NoError(t, err)
	assert.Equal(t, AlreadyBooked, res.Outcome)
	assert.Empty(t, pub.booked)
	seats.AssertExpectations(t)
}

func TestBooking_VisiblyBookedSeatSkipsDirectory(t *testing.T) {
	seats := new(MockSeatStore)
	passengers := new(MockPassengerStore)
	owner := "p-1"

	seats.On("GetByNumber", mock.Anything, 8).Return(model.Seat{ID: "s-8", SeatNumber: 8, IsBooked: true, PassengerID: &owner}, nil)

	b := NewBooking(seats, NewDirectory(passengers, nil), nil, nil)
	res, err := b.BookSeat(context.Background(), 8, alice())
	require.NoError(t, err)
	assert.Equal(t, AlreadyBooked, res.Outcome)
	passengers.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	seats.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBooking_StorageFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("claim failure", func(t *testing.T) {
		seats := new(MockSeatStore)
		seats.On("GetByNumber", mock.Anything, 4).Return(model.Seat{}, repository.ErrSeatNotFound)
		seats.On("Claim", mock.Anything, 4, mock.Anything, mock.Anything).Return(model.Seat{}, false, errors.New("deadline exceeded"))

		m := metrics.NewWithRegistry(prometheus.NewRegistry())
		b := NewBooking(seats, NewDirectory(memstore.New().Passengers(), nil), nil, m)

		_, err := b.BookSeat(ctx, 4, alice())
		require.Error(t, err)
		assert.True(t, IsStorageError(err))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues(metrics.OutcomeError)))
	})

	t.Run("lookup failure", func(t *testing.T) {
		seats := new(MockSeatStore)
		seats.On("GetByNumber", mock.Anything, 4).Return(model.Seat{}, errors.New("connection reset"))

		b := NewBooking(seats, NewDirectory(memstore.New().Passengers(), nil), nil, nil)
		_, err := b.BookSeat(ctx, 4, alice())
		assert.True(t, IsStorageError(err))
	})
}

func TestBooking_PublishesOnlyWins(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	b, _ := newMemBooking(pub)

	res, err := b.BookSeat(ctx, 1, alice())
	require.NoError(t, err, "publish failures do not fail the booking")
	_, err = b.BookSeat(ctx, 1, contact(2))
	require.NoError(t, err)

	require.Len(t, pub.booked, 1)
	assert.Equal(t, res.Seat.ID, pub.booked[0].TicketID)
	assert.Equal(t, 1, pub.booked[0].SeatNumber)
	assert.Equal(t, "alice1", pub.booked[0].Passenger)
	assert.True(t, pub.booked[0].NewPassenger)
}
