// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher/consumer that carry them.
package queue

// Queue names.  Both queues are durable.
const (
	TicketBookedQueue = "ticket.booked"
	TicketsResetQueue = "tickets.reset"
)

// TicketBookedEvent is published after a seat is successfully claimed.  It
// contains enough information for downstream consumers to audit the booking
// without querying the primary store.
type TicketBookedEvent struct {
	TicketID     string `json:"ticket_id"`
	SeatNumber   int    `json:"seat_number"`
	PassengerID  string `json:"passenger_id"`
	Passenger    string `json:"passenger"`
	NewPassenger bool   `json:"new_passenger"`
	BookedAt     string `json:"booked_at"`
}

// TicketsResetEvent is published after an administrative reset run.
type TicketsResetEvent struct {
	Reopened int    `json:"reopened"`
	Failed   int    `json:"failed"`
	ResetAt  string `json:"reset_at"`
}
