package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/bus-ticket-reservation/internal/metrics"
	"github.com/iliyamo/bus-ticket-reservation/internal/model"
	"github.com/iliyamo/bus-ticket-reservation/internal/repository"
)

// Directory resolves passengers by email, creating a record the first time
// an email is seen.  Stored profiles are never updated: when an email is
// already registered, the username and phone of the incoming contact are
// discarded.
type Directory struct {
	store   PassengerStore
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewDirectory returns a Directory over store.  m may be nil.
func NewDirectory(store PassengerStore, m *metrics.Metrics) *Directory {
	if store == nil {
		panic("nil passenger store passed to NewDirectory")
	}
	return &Directory{store: store, metrics: m, now: time.Now}
}

// Resolve returns the passenger registered under c.Email, creating it from
// c when absent.  isNew is true only when this call created the record.
// A concurrent creator winning the unique-email race is not an error: the
// winner's record is re-read and returned.
func (d *Directory) Resolve(ctx context.Context, c model.Contact) (p model.Passenger, isNew bool, err error) {
	p, err = d.store.GetByEmail(ctx, c.Email)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, repository.ErrPassengerNotFound) {
		return model.Passenger{}, false, storageErr("lookup passenger", err)
	}

	p = model.Passenger{
		ID:        uuid.NewString(),
		Username:  c.Username,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: d.now().UTC(),
	}
	if err := d.store.Create(ctx, p); err != nil {
		if !errors.Is(err, repository.ErrEmailExists) {
			return model.Passenger{}, false, storageErr("create passenger", err)
		}
		existing, err := d.store.GetByEmail(ctx, c.Email)
		if err != nil {
			return model.Passenger{}, false, storageErr("reload passenger", err)
		}
		return existing, false, nil
	}
	d.metrics.PassengerCreated()
	return p, true, nil
}
