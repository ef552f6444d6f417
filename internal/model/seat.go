package model

import "time"

// Seat bounds.  The bus has a fixed capacity and seat numbers are
// validated against this range before a booking reaches the engine.
const (
	MinSeatNumber = 1
	MaxSeatNumber = 40
)

// Seat describes one numbered seat on the bus.  Seat rows are created
// lazily the first time somebody tries to book that number, so a fresh
// deployment has no rows at all.
//
// Fields:
//  ID          – primary key identifier (UUID string).
//  SeatNumber  – seat number in [MinSeatNumber, MaxSeatNumber], immutable.
//  IsBooked    – whether the seat is currently held by a passenger.
//  BookedAt    – time of the last booking, or the creation time.
//  PassengerID – current owner; non-nil exactly when IsBooked is true.
type Seat struct {
	ID          string    // seats.id
	SeatNumber  int       // seats.seat_number
	IsBooked    bool      // seats.is_booked
	BookedAt    time.Time // seats.booked_at
	PassengerID *string   // seats.passenger_id (nullable)
}

// OwnedBy reports whether the seat is currently booked by passengerID.
func (s Seat) OwnedBy(passengerID string) bool {
	return s.PassengerID != nil && *s.PassengerID == passengerID
}

// SeatPatch lists the seat fields an owner may change.  Nil fields are
// left untouched.  Setting IsBooked to false releases the seat and clears
// its passenger reference.
type SeatPatch struct {
	IsBooked *bool
	BookedAt *time.Time
}

// Empty reports whether the patch changes nothing.
func (p SeatPatch) Empty() bool {
	return p.IsBooked == nil && p.BookedAt == nil
}

// Apply returns a copy of s with the patch applied.
func (p SeatPatch) Apply(s Seat) Seat {
	if p.IsBooked != nil && !*p.IsBooked {
		s.IsBooked = false
		s.PassengerID = nil
	}
	if p.BookedAt != nil {
		s.BookedAt = p.BookedAt.UTC()
	}
	return s
}
