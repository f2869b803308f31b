package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-service/internal/domain/event"
)

// ErrMalformedEvent marks a delivery that can never be processed.
var ErrMalformedEvent = errors.New("malformed user.created event")

type Mailer interface {
	SendWelcome(ctx context.Context, to, fullName string, registeredAt time.Time) error
}

type Indexer interface {
	IndexUser(ctx context.Context, e event.UserCreated) error
}

type Archiver interface {
	ArchiveUserCreated(ctx context.Context, e event.UserCreated, raw []byte) error
}

// UserCreatedConsumer reacts to user.created deliveries. Nil collaborators are skipped.
// Side effects run archive, index, then email, so a requeued delivery repeats the
// idempotent steps before the email is sent again.
type UserCreatedConsumer struct {
	Mailer   Mailer
	Indexer  Indexer
	Archiver Archiver
	Logger   *logrus.Logger
	Timeout  time.Duration
}

func NewUserCreatedConsumer(mailer Mailer, indexer Indexer, archiver Archiver, logger *logrus.Logger) *UserCreatedConsumer {
	return &UserCreatedConsumer{
		Mailer:   mailer,
		Indexer:  indexer,
		Archiver: archiver,
		Logger:   logger,
		Timeout:  15 * time.Second,
	}
}

// Decode parses a delivery body into the four-field event.
func Decode(body []byte) (event.UserCreated, error) {
	var e event.UserCreated
	if err := json.Unmarshal(body, &e); err != nil {
		return e, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if e.UserID == uuid.Nil || e.Email == "" {
		return e, fmt.Errorf("%w: missing userId or email", ErrMalformedEvent)
	}
	return e, nil
}

// Handle processes one payload. Errors other than ErrMalformedEvent are transient.
func (c *UserCreatedConsumer) Handle(ctx context.Context, body []byte) error {
	e, err := Decode(body)
	if err != nil {
		return err
	}
	log := c.Logger.WithFields(logrus.Fields{"user_id": e.UserID, "email": e.Email})

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	if c.Archiver != nil {
		if err := c.Archiver.ArchiveUserCreated(ctx, e, body); err != nil {
			return fmt.Errorf("archive: %w", err)
		}
	}
	if c.Indexer != nil {
		if err := c.Indexer.IndexUser(ctx, e); err != nil {
			return fmt.Errorf("index: %w", err)
		}
	}
	if c.Mailer != nil {
		if err := c.Mailer.SendWelcome(ctx, e.Email, e.FullName, e.OccurredAt); err != nil {
			return fmt.Errorf("welcome email: %w", err)
		}
	}
	log.Info("user.created processed")
	return nil
}

// Run consumes deliveries until ctx is done or the channel closes. Malformed messages
// are dropped; transient failures are requeued.
func (c *UserCreatedConsumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				return
			}
			c.dispatch(ctx, msg)
		}
	}
}

// dispatch acks handled messages. A failure is requeued once; a redelivered message that
// fails again, or one that cannot be decoded, is rejected and goes to the dead-letter queue.
func (c *UserCreatedConsumer) dispatch(ctx context.Context, msg amqp.Delivery) {
	err := c.Handle(ctx, msg.Body)
	switch {
	case err == nil:
		if aerr := msg.Ack(false); aerr != nil {
			c.Logger.WithError(aerr).Warn("ack failed")
		}
	case errors.Is(err, ErrMalformedEvent):
		c.Logger.WithError(err).WithField("body", string(msg.Body)).Error("dead-lettering bad message")
		_ = msg.Nack(false, false)
	case msg.Redelivered:
		c.Logger.WithError(err).WithField("message_id", msg.MessageId).Error("user.created failed after retry; dead-lettering")
		_ = msg.Nack(false, false)
	default:
		c.Logger.WithError(err).Warn("user.created handling failed; requeueing")
		_ = msg.Nack(false, true)
	}
}
