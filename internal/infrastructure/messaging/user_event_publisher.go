package messaging

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-service/internal/domain"
	"github.com/oksasatya/user-service/internal/domain/event"
	"github.com/oksasatya/user-service/internal/domain/repository"
)

// JSONPublisher is the transport the event publisher sends through.
// *helpers.RabbitPublisher satisfies it.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, body any) error
}

type UserEventPublisher struct {
	pub        JSONPublisher
	routingKey string
	logger     *logrus.Logger
}

func NewUserEventPublisher(pub JSONPublisher, routingKey string, logger *logrus.Logger) *UserEventPublisher {
	if routingKey == "" {
		routingKey = event.RoutingKeyUserCreated
	}
	return &UserEventPublisher{pub: pub, routingKey: routingKey, logger: logger}
}

func (p *UserEventPublisher) PublishUserCreated(ctx context.Context, e event.UserCreated) error {
	if err := p.pub.PublishJSON(ctx, p.routingKey, e); err != nil {
		return fmt.Errorf("%w: user %s: %w", domain.ErrPublish, e.UserID, err)
	}
	if p.logger != nil {
		p.logger.WithFields(logrus.Fields{
			"user_id":     e.UserID,
			"routing_key": p.routingKey,
		}).Info("published UserCreated")
	}
	return nil
}

var _ repository.EventPublisher = (*UserEventPublisher)(nil)
