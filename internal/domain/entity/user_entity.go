package entity

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// User is the aggregate root for the user domain.
//
// The identifier never changes after construction. Status and UpdatedAt only change
// through Activate and Deactivate. Email uniqueness is the store's responsibility.
type User struct {
	id        uuid.UUID
	firstName string
	lastName  string
	email     Email
	phone     string
	address   *Address
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

// NewUser builds a freshly registered, active user. Both timestamps are set to now.
func NewUser(id uuid.UUID, firstName, lastName string, email Email, phone string, address *Address, now time.Time) *User {
	return &User{
		id:        id,
		firstName: firstName,
		lastName:  lastName,
		email:     email,
		phone:     phone,
		address:   copyAddress(address),
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}
}

// RestoreUser rebuilds a user from its persisted representation.
func RestoreUser(id uuid.UUID, firstName, lastName string, email Email, phone string, address *Address, status Status, createdAt, updatedAt time.Time) *User {
	return &User{
		id:        id,
		firstName: firstName,
		lastName:  lastName,
		email:     email,
		phone:     phone,
		address:   copyAddress(address),
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) FirstName() string    { return u.firstName }
func (u *User) LastName() string     { return u.lastName }
func (u *User) Email() Email         { return u.email }
func (u *User) Phone() string        { return u.phone }
func (u *User) Status() Status       { return u.status }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// Address returns a copy of the user's address, or nil when none was given.
func (u *User) Address() *Address { return copyAddress(u.address) }

func (u *User) FullName() string { return u.firstName + " " + u.lastName }
func (u *User) IsActive() bool   { return u.status == StatusActive }

func (u *User) Activate(now time.Time) {
	u.status = StatusActive
	u.touch(now)
}

func (u *User) Deactivate(now time.Time) {
	u.status = StatusInactive
	u.touch(now)
}

// Clone returns an independent copy of u.
func (u *User) Clone() *User {
	c := *u
	c.address = copyAddress(u.address)
	return &c
}

// touch keeps updatedAt >= createdAt even if the clock steps backwards.
func (u *User) touch(now time.Time) {
	if now.Before(u.createdAt) {
		now = u.createdAt
	}
	u.updatedAt = now
}

func copyAddress(a *Address) *Address {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
