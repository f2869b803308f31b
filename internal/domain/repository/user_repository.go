package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/oksasatya/user-service/internal/domain/entity"
	"github.com/oksasatya/user-service/internal/domain/event"
)

// UserRepository is the durable user store. Implementations must enforce email
// uniqueness themselves and return independent values from every read.
//
// Lookups return (nil, nil) when nothing matches. Storage failures are wrapped with
// domain.ErrInfrastructure.
type UserRepository interface {
	// Save inserts or updates u and returns the persisted representation, which is the
	// source of truth (timestamps may be truncated to the store's precision).
	Save(ctx context.Context, u *entity.User) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email entity.Email) (*entity.User, error)
	// FindAll returns every user in no particular order.
	FindAll(ctx context.Context) ([]*entity.User, error)
	ExistsByEmail(ctx context.Context, email entity.Email) (bool, error)
	// DeleteByID is idempotent.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// EventPublisher emits domain events to other services. Failures are wrapped with
// domain.ErrPublish.
type EventPublisher interface {
	PublishUserCreated(ctx context.Context, e event.UserCreated) error
}
