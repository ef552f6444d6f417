package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/bus-ticket-reservation/internal/logger"
	"github.com/iliyamo/bus-ticket-reservation/internal/metrics"
	"github.com/iliyamo/bus-ticket-reservation/internal/queue"
	"github.com/iliyamo/bus-ticket-reservation/internal/utils"
)

// Credential is what an operator presents to reset the fleet.
type Credential struct {
	Username string
	Password string
}

// AdminCredentials is the configured admin identity.  When PasswordHash is
// set it is a bcrypt hash and Password is ignored.
type AdminCredentials struct {
	Username     string
	Password     string
	PasswordHash string
}

// ResetReport summarises one reset run.
type ResetReport struct {
	Reopened int
	Failed   int
}

// Reset reopens every seat on behalf of an authenticated administrator.
//
// Seats are loaded once and then reopened one by one, each write committed
// on its own.  Nothing isolates the run from concurrent bookings: a seat
// booked after the list was read is still reopened when its turn comes.
// Reset wins such races.
type Reset struct {
	seats   SeatStore
	admin   AdminCredentials
	events  EventPublisher
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewReset wires the coordinator.  events and m may be nil.
func NewReset(seats SeatStore, admin AdminCredentials, events EventPublisher, m *metrics.Metrics) *Reset {
	if seats == nil {
		panic("nil seat store passed to NewReset")
	}
	return &Reset{seats: seats, admin: admin, events: events, metrics: m, now: time.Now}
}

// Authenticate checks cred against the configured admin.  Both fields are
// always compared so the timing does not reveal which one was wrong.  An
// unconfigured admin never authenticates.
func (r *Reset) Authenticate(cred Credential) error {
	if r.admin.Username == "" || (r.admin.Password == "" && r.admin.PasswordHash == "") {
		return ErrForbidden
	}
	userOK := subtle.ConstantTimeCompare([]byte(cred.Username), []byte(r.admin.Username)) == 1
	var passOK bool
	if r.admin.PasswordHash != "" {
		passOK = utils.VerifyPassword(r.admin.PasswordHash, cred.Password)
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(cred.Password), []byte(r.admin.Password)) == 1
	}
	if !userOK || !passOK {
		return ErrForbidden
	}
	return nil
}

// ResetAll authenticates cred and reopens every seat.  A wrong credential
// fails with ErrForbidden before any store access.
func (r *Reset) ResetAll(ctx context.Context, cred Credential) (ResetReport, error) {
	if err := r.Authenticate(cred); err != nil {
		r.metrics.Reset("forbidden", 0)
		logger.Warn("reset rejected: bad admin credential")
		return ResetReport{}, err
	}
	return r.ReopenAll(ctx)
}

// ReopenAll reopens every seat without checking a credential.  Callers
// must have authenticated the operator already (for example with an admin
// token).  Per-seat failures do not stop the run; they are counted and
// returned together as one StorageError.
func (r *Reset) ReopenAll(ctx context.Context) (ResetReport, error) {
	seats, err := r.seats.ListAll(ctx)
	if err != nil {
		r.metrics.Reset("error", 0)
		return ResetReport{}, storageErr("list seats", err)
	}

	var (
		report ResetReport
		errs   []error
	)
	for _, seat := range seats {
		if err := r.seats.Reopen(ctx, seat.ID); err != nil {
			report.Failed++
			errs = append(errs, err)
			logger.Error("reopen seat failed", zap.Int("seat_number", seat.SeatNumber), zap.Error(err))
			continue
		}
		report.Reopened++
	}

	result := "ok"
	if len(errs) > 0 {
		result = "error"
	}
	r.metrics.Reset(result, report.Reopened)
	logger.Info("seats reset", zap.Int("reopened", report.Reopened), zap.Int("failed", report.Failed))
	r.publish(ctx, report)

	if len(errs) > 0 {
		return report, storageErr("reopen seats", errors.Join(errs...))
	}
	return report, nil
}

func (r *Reset) publish(ctx context.Context, report ResetReport) {
	if r.events == nil {
		return
	}
	ev := queue.TicketsResetEvent{
		Reopened: report.Reopened,
		Failed:   report.Failed,
		ResetAt:  r.now().UTC().Format(time.RFC3339),
	}
	if err := r.events.PublishTicketsReset(ctx, ev); err != nil {
		logger.Warn("publish tickets reset failed", zap.Error(err))
	}
}
