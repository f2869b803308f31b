// Package memory holds an in-process UserRepository. It keeps the same contract as the
// Postgres store, including the unique email index, and is used for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/oksasatya/user-service/internal/domain"
	"github.com/oksasatya/user-service/internal/domain/entity"
	"github.com/oksasatya/user-service/internal/domain/repository"
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*entity.User
	byEmail map[entity.Email]uuid.UUID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[uuid.UUID]*entity.User),
		byEmail: make(map[entity.Email]uuid.UUID),
	}
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: saving user: %w", domain.ErrInfrastructure, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byEmail[u.Email()]; ok && owner != u.ID() {
		return nil, fmt.Errorf("%w: saving user: %w", domain.ErrInfrastructure, domain.ErrEmailConflict)
	}
	if prev, ok := r.byID[u.ID()]; ok && prev.Email() != u.Email() {
		delete(r.byEmail, prev.Email())
	}
	stored := u.Clone()
	r.byID[u.ID()] = stored
	r.byEmail[u.Email()] = u.ID()
	return stored.Clone(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: querying user by id: %w", domain.ErrInfrastructure, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return u.Clone(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email entity.Email) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: querying user by email: %w", domain.ErrInfrastructure, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return r.byID[id].Clone(), nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing users: %w", domain.ErrInfrastructure, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u.Clone())
	}
	// same order as the postgres store: created_at, then id
	slices.SortFunc(out, func(a, b *entity.User) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return strings.Compare(a.ID().String(), b.ID().String())
	})
	return out, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email entity.Email) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: checking email existence: %w", domain.ErrInfrastructure, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: deleting user: %w", domain.ErrInfrastructure, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		delete(r.byEmail, u.Email())
		delete(r.byID, id)
	}
	return nil
}

// Len reports the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

var _ repository.UserRepository = (*UserRepository)(nil)
