package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/user-service/internal/domain"
	"github.com/oksasatya/user-service/internal/domain/entity"
	"github.com/oksasatya/user-service/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, first_name, last_name, email, phone, street, city, state, zip_code, country, status, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Save upserts by id. The email unique index rejects a second user with the same address.
func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	row := userRow{}
	row.fromEntity(u)

	saved, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			email      = EXCLUDED.email,
			phone      = EXCLUDED.phone,
			street     = EXCLUDED.street,
			city       = EXCLUDED.city,
			state      = EXCLUDED.state,
			zip_code   = EXCLUDED.zip_code,
			country    = EXCLUDED.country,
			status     = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		RETURNING `+userColumns,
		row.ID, row.FirstName, row.LastName, row.Email, row.Phone,
		row.Street, row.City, row.State, row.ZipCode, row.Country,
		row.Status, row.CreatedAt, row.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: saving user: %w: %w", domain.ErrInfrastructure, domain.ErrEmailConflict, err)
		}
		return nil, fmt.Errorf("%w: saving user: %w", domain.ErrInfrastructure, err)
	}
	return saved, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: querying user by id: %w", domain.ErrInfrastructure, err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email entity.Email) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email.Value()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: querying user by email: %w", domain.ErrInfrastructure, err)
	}
	return u, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing users: %w", domain.ErrInfrastructure, err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning user: %w", domain.ErrInfrastructure, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing users: %w", domain.ErrInfrastructure, err)
	}
	return users, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email entity.Email) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email.Value()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking email existence: %w", domain.ErrInfrastructure, err)
	}
	return exists, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%w: deleting user: %w", domain.ErrInfrastructure, err)
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
