package domain

import "errors"

var (
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrDuplicateUser      = errors.New("user already exists")

	// ErrInfrastructure marks a failure of the durable store (unavailable, timed out,
	// constraint violated). Adapters wrap it together with the underlying cause.
	ErrInfrastructure = errors.New("infrastructure failure")
	// ErrEmailConflict is reported alongside ErrInfrastructure when the store's unique
	// email index rejects a write.
	ErrEmailConflict = errors.New("email already taken")

	ErrPublish = errors.New("event publish failure")
)
