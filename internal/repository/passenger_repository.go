package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/bus-ticket-reservation/internal/model"
)

// PassengerRepo provides data access to the passengers table.  Emails are
// stored and compared exactly as supplied (the column uses a binary
// collation); the unique index on email is what arbitrates concurrent
// first-time bookings for the same address.
type PassengerRepo struct{ DB *sql.DB }

func NewPassengerRepo(db *sql.DB) *PassengerRepo { return &PassengerRepo{DB: db} }

// Create inserts p.  A duplicate email yields ErrEmailExists.
func (r *PassengerRepo) Create(ctx context.Context, p model.Passenger) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO passengers (id, username, email, phone, created_at) VALUES (?,?,?,?,?)",
		p.ID, p.Username, p.Email, p.Phone, p.CreatedAt.UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a passenger by exact email.
func (r *PassengerRepo) GetByEmail(ctx context.Context, email string) (model.Passenger, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,phone,created_at FROM passengers WHERE email=? LIMIT 1", email)
	return scanPassenger(row)
}

// GetByID fetches a passenger by id.
func (r *PassengerRepo) GetByID(ctx context.Context, id string) (model.Passenger, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,phone,created_at FROM passengers WHERE id=? LIMIT 1", id)
	return scanPassenger(row)
}

func scanPassenger(row rowScanner) (model.Passenger, error) {
	var p model.Passenger
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &p.Phone, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Passenger{}, ErrPassengerNotFound
		}
		return model.Passenger{}, err
	}
	return p, nil
}
