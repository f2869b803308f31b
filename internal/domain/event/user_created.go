package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/user-service/internal/domain/entity"
)

// RoutingKeyUserCreated is the default routing key UserCreated is published with.
const RoutingKeyUserCreated = "user.created"

// UserCreated announces a newly registered user. Consumers depend on exactly these four
// fields; do not add more.
type UserCreated struct {
	UserID     uuid.UUID `json:"userId"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewUserCreated builds the event from the persisted user. occurredAt is the moment of
// publication, not the user's creation time.
func NewUserCreated(u *entity.User, occurredAt time.Time) UserCreated {
	return UserCreated{
		UserID:     u.ID(),
		Email:      u.Email().Value(),
		FullName:   u.FullName(),
		OccurredAt: occurredAt,
	}
}
