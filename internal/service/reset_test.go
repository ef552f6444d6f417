package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository/memstore"
	"github.com/iliyamo/bus-ticket-reservation/internal/utils"
)

var testAdmin = AdminCredentials{Username: "admin", Password: "s3cret"}

func TestReset_Authenticate(t *testing.T) {
	hash, err := utils.HashPassword("hashed-pass", bcrypt.MinCost)
	require.NoError(t, err)

	cases := []struct {
		name  string
		admin AdminCredentials
		cred  Credential
		ok    bool
	}{
		{"plain match", testAdmin, Credential{"admin", "s3cret"}, true},
		{"wrong password", testAdmin, Credential{"admin", "nope"}, false},
		{"wrong username", testAdmin, Credential{"root", "s3cret"}, false},
		{"empty credential", testAdmin, Credential{}, false},
		{"unconfigured admin", AdminCredentials{}, Credential{}, false},
		{"bcrypt match", AdminCredentials{Username: "admin", PasswordHash: hash}, Credential{"admin", "hashed-pass"}, true},
		{"bcrypt mismatch", AdminCredentials{Username: "admin", PasswordHash: hash}, Credential{"admin", "s3cret"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReset(new(MockSeatStore), tc.admin, nil, nil)
			err := r.Authenticate(tc.cred)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestReset_WrongCredentialTouchesNothing(t *testing.T) {
	seats := new(MockSeatStore)
	r := NewReset(seats, testAdmin, nil, nil)

	_, err := r.ResetAll(context.Background(), Credential{"admin", "wrong"})
	assert.ErrorIs(t, err, ErrForbidden)
	seats.AssertNotCalled(t, "ListAll", mock.Anything)
	seats.AssertNotCalled(t, "Reopen", mock.Anything, mock.Anything)
}

func TestReset_ReopensEveryBookedSeat(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	booking := NewBooking(store.Seats(), NewDirectory(store.Passengers(), nil), nil, nil)
	for s := 1; s <= 10; s++ {
		_, err := booking.BookSeat(ctx, s, contact(s))
		require.NoError(t, err)
	}

	pub := &recordingPublisher{}
	r := NewReset(store.Seats(), testAdmin, pub, nil)
	report, err := r.ResetAll(ctx, Credential{"admin", "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, 10, report.Reopened)

	closed, err := store.Seats().ListByStatus(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, closed)

	open, err := store.Seats().ListByStatus(ctx, false)
	require.NoError(t, err)
	assert.Len(t, open, 10)
	for _, s := range open {
		assert.Nil(t, s.PassengerID)
	}

	require.Len(t, pub.resets, 1)
	assert.Equal(t, 10, pub.resets[0].Reopened)

	// seats can be booked again afterwards
	res, err := booking.BookSeat(ctx, 1, alice())
	require.NoError(t, err)
	assert.Equal(t, Booked, res.Outcome)
}

// bookingDuringReset books another seat the first time Reopen is called.
type bookingDuringReset struct {
	*memstore.Seats
	during func()
	once   bool
}

func (s *bookingDuringReset) Reopen(ctx context.Context, id string) error {
	if !s.once {
		s.once = true
		s.during()
	}
	return s.Seats.Reopen(ctx, id)
}

func TestReset_WinsOverBookingInFlight(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	booking := NewBooking(store.Seats(), NewDirectory(store.Passengers(), nil), nil, nil)

	_, err := booking.BookSeat(ctx, 1, contact(1))
	require.NoError(t, err)
	// seat 2 exists but is open when the reset loads the seat list
	first, err := booking.BookSeat(ctx, 2, contact(2))
	require.NoError(t, err)
	require.NoError(t, store.Seats().Reopen(ctx, first.Seat.ID))

	var late BookingResult
	seats := &bookingDuringReset{Seats: store.Seats(), during: func() {
		late, err = booking.BookSeat(ctx, 2, contact(3))
		require.NoError(t, err)
	}}

	_, err = NewReset(seats, testAdmin, nil, nil).ResetAll(ctx, Credential{"admin", "s3cret"})
	require.NoError(t, err)
	require.Equal(t, Booked, late.Outcome)

	seat2 := mustSeat(t, store, 2)
	assert.False(t, seat2.IsBooked, "a booking made mid-reset is reopened")
}

func TestReset_PartialFailureContinues(t *testing.T) {
	seats := new(MockSeatStore)
	seats.On("ListAll", mock.Anything).Return([]model.Seat{
		{ID: "s-1", SeatNumber: 1}, {ID: "s-2", SeatNumber: 2}, {ID: "s-3", SeatNumber: 3},
	}, nil)
	seats.On("Reopen", mock.Anything, "s-1").Return(nil)
	seats.On("Reopen", mock.Anything, "s-2").Return(errors.New("lock wait timeout"))
	seats.On("Reopen", mock.Anything, "s-3").Return(nil)

	report, err := NewReset(seats, testAdmin, nil, nil).ResetAll(context.Background(), Credential{"admin", "s3cret"})
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
	assert.Equal(t, ResetReport{Reopened: 2, Failed: 1}, report)
	seats.AssertExpectations(t)
}

func TestReset_ListFailure(t *testing.T) {
	seats := new(MockSeatStore)
	seats.On("ListAll", mock.Anything).Return(nil, errors.New("gone"))

	_, err := NewReset(seats, testAdmin, nil, nil).ReopenAll(context.Background())
	assert.True(t, IsStorageError(err))
	seats.AssertNotCalled(t, "Reopen", mock.Anything, mock.Anything)
}
