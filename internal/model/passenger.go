package model

import "time"

// Passenger represents a row in the `passengers` table.  Passengers are
// keyed by email (compared exactly as supplied) and are never updated once
// created: a later booking with the same email reuses the stored profile.
type Passenger struct {
	ID        string    // passengers.id
	Username  string    // passengers.username
	Email     string    // passengers.email (unique)
	Phone     string    // passengers.phone
	CreatedAt time.Time // passengers.created_at
}

// Contact is the passenger data carried by a booking request.  The HTTP
// layer has already checked its shape by the time it reaches a service.
type Contact struct {
	Username string
	Email    string
	Phone    string
}
