package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/user-service/internal/domain/entity"
)

// userRow is the flattened persisted shape of a user. Address columns are nullable and
// all NULL when the user has no address.
type userRow struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Street    *string
	City      *string
	State     *string
	ZipCode   *string
	Country   *string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *userRow) fromEntity(u *entity.User) {
	r.ID = u.ID()
	r.FirstName = u.FirstName()
	r.LastName = u.LastName()
	r.Email = u.Email().Value()
	r.Phone = nullable(u.Phone())
	if a := u.Address(); a != nil {
		r.Street = nullable(a.Street())
		r.City = nullable(a.City())
		r.State = nullable(a.State())
		r.ZipCode = nullable(a.ZipCode())
		r.Country = nullable(a.Country())
	}
	r.Status = string(u.Status())
	r.CreatedAt = u.CreatedAt()
	r.UpdatedAt = u.UpdatedAt()
}

func (r *userRow) toEntity() (*entity.User, error) {
	email, err := entity.NewEmail(r.Email)
	if err != nil {
		return nil, fmt.Errorf("stored email for user %s: %w", r.ID, err)
	}
	status := entity.Status(r.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("stored status %q for user %s", r.Status, r.ID)
	}
	var addr *entity.Address
	a := entity.NewAddress(deref(r.Street), deref(r.City), deref(r.State), deref(r.ZipCode), deref(r.Country))
	if !a.IsZero() {
		addr = &a
	}
	return entity.RestoreUser(r.ID, r.FirstName, r.LastName, email, deref(r.Phone), addr, status,
		r.CreatedAt.UTC(), r.UpdatedAt.UTC()), nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var r userRow
	if err := row.Scan(&r.ID, &r.FirstName, &r.LastName, &r.Email, &r.Phone,
		&r.Street, &r.City, &r.State, &r.ZipCode, &r.Country,
		&r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return r.toEntity()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
