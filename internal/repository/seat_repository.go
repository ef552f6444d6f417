package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

const seatColumns = `id, seat_number, is_booked, booked_at, passenger_id`

// SeatRepo provides data access to the seats table.  All state changes
// that decide ownership are single conditional statements so concurrent
// requests are serialised by the row lock MySQL takes for the UPDATE,
// never by a read in Go followed by a write.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle for health checks.
func (r *SeatRepo) DB() *sql.DB { return r.db }

// Ensure creates the row for seatNumber if it does not exist yet.  The
// unique index on seat_number makes concurrent first attempts converge on
// one row; the duplicate branch is a no-op assignment.
func (r *SeatRepo) Ensure(ctx context.Context, seatNumber int, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO seats (id, seat_number, is_booked, booked_at, passenger_id)
		 VALUES (?, ?, FALSE, ?, NULL)
		 ON DUPLICATE KEY UPDATE seat_number = seat_number`,
		uuid.NewString(), seatNumber, at.UTC(),
	)
	return err
}

// Claim books seatNumber for passengerID if, and only if, the seat is
// currently open.  The row is created lazily first.  The returned bool is
// false when another booking already holds the seat; in that case no row
// was modified.  Owner and booked flag change in the same statement, so a
// committed seat never has one without the other.
func (r *SeatRepo) Claim(ctx context.Context, seatNumber int, passengerID string, at time.Time) (model.Seat, bool, error) {
	if err := r.Ensure(ctx, seatNumber, at); err != nil {
		return model.Seat{}, false, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE seats SET is_booked = TRUE, booked_at = ?, passenger_id = ?
		 WHERE seat_number = ? AND is_booked = FALSE`,
		at.UTC(), passengerID, seatNumber,
	)
	if err != nil {
		return model.Seat{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Seat{}, false, err
	}
	if n == 0 {
		return model.Seat{}, false, nil
	}
	seat, err := r.GetByNumber(ctx, seatNumber)
	if err != nil {
		return model.Seat{}, false, err
	}
	return seat, true, nil
}

// GetByID fetches a seat by primary key.
func (r *SeatRepo) GetByID(ctx context.Context, id string) (model.Seat, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE id = ? LIMIT 1`, id)
	return scanSeat(row)
}

// GetByNumber fetches a seat by its seat number.
func (r *SeatRepo) GetByNumber(ctx context.Context, seatNumber int) (model.Seat, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE seat_number = ? LIMIT 1`, seatNumber)
	return scanSeat(row)
}

// ListByStatus returns every seat whose is_booked flag equals booked,
// ordered by seat number.
func (r *SeatRepo) ListByStatus(ctx context.Context, booked bool) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE is_booked = ? ORDER BY seat_number`, booked)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// ListAll returns every seat row ordered by seat number.
func (r *SeatRepo) ListAll(ctx context.Context) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+seatColumns+` FROM seats ORDER BY seat_number`)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// Reopen marks one seat as open and drops its passenger reference.  It is
// unconditional: whatever booking the seat holds at the time of the write
// is released.  Reopening an open seat is a no-op.
func (r *SeatRepo) Reopen(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE seats SET is_booked = FALSE, passenger_id = NULL WHERE id = ?`, id)
	return err
}

// UpdateOwned applies patch to seat id only when passengerID currently owns
// it.  Ownership is part of the WHERE clause so a seat that changes hands
// between the caller's lookup and this write is never modified.  When the
// update touches no row, a follow-up read tells apart a missing seat
// (ErrSeatNotFound), a foreign owner (ErrForbidden) and a patch that left
// the row unchanged (nil).
func (r *SeatRepo) UpdateOwned(ctx context.Context, id, passengerID string, patch model.SeatPatch) error {
	if !patch.Empty() {
		sets := make([]string, 0, 3)
		args := make([]interface{}, 0, 4)
		if patch.IsBooked != nil && !*patch.IsBooked {
			sets = append(sets, "is_booked = FALSE", "passenger_id = NULL")
		}
		if patch.BookedAt != nil {
			sets = append(sets, "booked_at = ?")
			args = append(args, patch.BookedAt.UTC())
		}
		if len(sets) > 0 {
			args = append(args, id, passengerID)
			res, err := r.db.ExecContext(ctx,
				`UPDATE seats SET `+strings.Join(sets, ", ")+` WHERE id = ? AND passenger_id = ?`,
				args...)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n > 0 {
				return nil
			}
		}
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !current.OwnedBy(passengerID) {
		return ErrForbidden
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSeat(row rowScanner) (model.Seat, error) {
	var (
		s   model.Seat
		pid sql.NullString
	)
	if err := row.Scan(&s.ID, &s.SeatNumber, &s.IsBooked, &s.BookedAt, &pid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Seat{}, ErrSeatNotFound
		}
		return model.Seat{}, err
	}
	if pid.Valid {
		v := pid.String
		s.PassengerID = &v
	}
	return s, nil
}

func scanSeats(rows *sql.Rows) ([]model.Seat, error) {
	defer rows.Close()
	seats := []model.Seat{}
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}
