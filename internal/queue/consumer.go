package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-ticket-reservation/internal/logger"
)

// AuditConsumer listens to the ticket queues and appends one line per
// event to an audit log file.
type AuditConsumer struct {
	URL     string
	LogPath string
}

// NewAuditConsumer returns a consumer writing to logPath.
func NewAuditConsumer(url, logPath string) *AuditConsumer {
	if url == "" {
		url = DefaultURL
	}
	if logPath == "" {
		logPath = filepath.Join("logs", "tickets.log")
	}
	return &AuditConsumer{URL: url, LogPath: logPath}
}

// Run connects to RabbitMQ, declares both queues and consumes until ctx is
// cancelled.  Connection failures are retried with exponential backoff
// capped at 30s.  Messages that cannot be processed are rejected without
// requeue so a poison message cannot spin the loop.
func (a *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(a.URL)
		if err != nil {
			logger.Warn("audit-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = a.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("audit-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (a *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("audit-consumer: set QoS failed", zap.Error(err))
	}

	type delivery struct {
		queue string
		msg   amqp.Delivery
	}
	merged := make(chan delivery)
	for _, name := range []string{TicketBookedQueue, TicketsResetQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.Consume(name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		go func(name string, msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- delivery{queue: name, msg: d}:
				case <-ctx.Done():
					return
				}
			}
		}(name, msgs)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cerr := <-closed:
			if cerr != nil {
				return cerr
			}
			return errors.New("connection closed")
		case d := <-merged:
			if err := a.HandleMessage(d.queue, d.msg.Body); err != nil {
				logger.Error("audit-consumer: handle message failed", zap.String("queue", d.queue), zap.Error(err))
				_ = d.msg.Nack(false, false)
				continue
			}
			_ = d.msg.Ack(false)
		}
	}
}

// HandleMessage decodes body according to queueName and appends the audit
// line to the log file.
func (a *AuditConsumer) HandleMessage(queueName string, body []byte) error {
	line, err := FormatAuditLine(queueName, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(a.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(a.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatAuditLine renders one event as a single human-readable line.
func FormatAuditLine(queueName string, body []byte) (string, error) {
	switch queueName {
	case TicketBookedQueue:
		var ev TicketBookedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Ticket booked | ticket_id=%s | seat=%d | passenger_id=%s | passenger=%q | new_passenger=%t\n",
			ev.BookedAt, ev.TicketID, ev.SeatNumber, ev.PassengerID, ev.Passenger, ev.NewPassenger), nil
	case TicketsResetQueue:
		var ev TicketsResetEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Tickets reset | reopened=%d | failed=%d\n", ev.ResetAt, ev.Reopened, ev.Failed), nil
	}
	return "", fmt.Errorf("unknown queue %q", queueName)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
