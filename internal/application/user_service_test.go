package application_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-service/internal/application"
	"github.com/oksasatya/user-service/internal/domain"
	"github.com/oksasatya/user-service/internal/domain/entity"
	"github.com/oksasatya/user-service/internal/domain/event"
	"github.com/oksasatya/user-service/internal/infrastructure/memory"
)

// ---- fakes ----

type fakePublisher struct {
	mu     sync.Mutex
	events []event.UserCreated
	err    error
}

// PublishUserCreated honours ctx the way the RabbitMQ publisher does.
func (p *fakePublisher) PublishUserCreated(ctx context.Context, e event.UserCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) published() []event.UserCreated {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.UserCreated(nil), p.events...)
}

// countingRepo wraps the in-memory store and records calls.
type countingRepo struct {
	*memory.UserRepository
	mu         sync.Mutex
	saves      int
	existsErr  error
	saveErr    error
	existsHook func()
	saveHook   func()
}

func (r *countingRepo) ExistsByEmail(ctx context.Context, email entity.Email) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	ok, err := r.UserRepository.ExistsByEmail(ctx, email)
	if r.existsHook != nil {
		r.existsHook()
	}
	return ok, err
}

func (r *countingRepo) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	r.saves++
	r.mu.Unlock()
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	saved, err := r.UserRepository.Save(ctx, u)
	if r.saveHook != nil {
		r.saveHook()
	}
	return saved, err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newService(repo *countingRepo, pub *fakePublisher, opts ...application.Option) *application.Service {
	return application.NewService(repo, pub, quietLogger(), opts...)
}

func anaInput() application.CreateUserInput {
	return application.CreateUserInput{FirstName: "Ana", LastName: "Diaz", Email: "ana@x.com"}
}

// ---- tests ----

func TestService_CreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo := &countingRepo{UserRepository: memory.NewUserRepository()}
		pub := &fakePublisher{}
		now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		id := uuid.New()
		svc := newService(repo, pub,
			application.WithClock(func() time.Time { return now }),
			application.WithIDGenerator(func() uuid.UUID { return id }),
		)

		u, err := svc.CreateUser(ctx, anaInput())

		require.NoError(t, err)
		assert.Equal(t, id, u.ID())
		assert.Equal(t, "Ana Diaz", u.FullName())
		assert.Equal(t, entity.StatusActive, u.Status())
		assert.Equal(t, u.CreatedAt(), u.UpdatedAt())
		assert.Nil(t, u.Address())
		assert.Equal(t, 1, repo.saves)

		events := pub.published()
		require.Len(t, events, 1)
		assert.Equal(t, event.UserCreated{UserID: id, Email: "ana@x.com", FullName: "Ana Diaz", OccurredAt: now}, events[0])
	})

	t.Run("copies optional contact fields", func(t *testing.T) {
		repo := &countingRepo{UserRepository: memory.NewUserRepository()}
		svc := newService(repo, &fakePublisher{})
		in := anaInput()
		in.Phone = "+15550100"
		in.Street, in.City, in.State, in.ZipCode, in.Country = "1 Main St", "Springfield", "IL", "62701", "US"

		u, err := svc.CreateUser(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, "+15550100", u.Phone())
		require.NotNil(t, u.Address())
		assert.Equal(t, "1 Main St, Springfield, IL 62701, US", u.Address().FullAddress())
	})

	t.Run("second identical command is a duplicate", func(t *testing.T) {
		repo := &countingRepo{UserRepository: memory.NewUserRepository()}
		pub := &fakePublisher{}
		svc := newService(repo, pub)

		_, err := svc.CreateUser(ctx, anaInput())
		require.NoError(t, err)

		u, err := svc.CreateUser(ctx, anaInput())

		assert.Nil(t, u)
		assert.ErrorIs(t, err, domain.ErrDuplicateUser)
		assert.Equal(t, 1, repo.Len())
		assert.Equal(t, 1, repo.saves)
		assert.Len(t, pub.published(), 1)
	})

	t.Run("duplicate detection uses normalized email", func(t *testing.T) {
		repo := &countingRepo{UserRepository: memory.NewUserRepository()}
		svc := newService(repo, &fakePublisher{})
		_, err := svc.CreateUser(ctx, anaInput())
		require.NoError(t, err)

		in := anaInput()
		in.Email = " ANA@X.COM "
		_, err = svc.CreateUser(ctx, in)

		assert.ErrorIs(t, err, domain.ErrDuplicateUser)
	})

	for _, raw := range []string{"not-an-email", ""} {
		t.Run("invalid email "+raw, func(t *testing.T) {
			repo := &countingRepo{
				UserRepository: memory.NewUserRepository(),
				existsHook:     func() { t.Fatal("store must not be touched") },
			}
			pub := &fakePublisher{}
			svc := newService(repo, pub)
			in := anaInput()
			in.Email = raw

			u, err := svc.CreateUser(ctx, in)

			assert.Nil(t, u)
			assert.ErrorIs(t, err, domain.ErrInvalidEmailFormat)
			assert.Equal(t, 0, repo.saves)
			assert.Empty(t, pub.published())
		})
	}

	t.Run("existence check failure propagates", func(t *testing.T) {
		storeErr := fmt.Errorf("%w: connection refused", domain.ErrInfrastructure)
		repo := &countingRepo{UserRepository: memory.NewUserRepository(), existsErr: storeErr}
		pub := &fakePublisher{}
		svc := newService(repo, pub)

		_, err := svc.CreateUser(ctx, anaInput())

		assert.ErrorIs(t, err, storeErr)
		assert.Equal(t, 0, repo.saves)
		assert.Empty(t, pub.published())
	})

	t.Run("save failure emits no event", func(t *testing.T) {
		storeErr := fmt.Errorf("%w: connection reset", domain.ErrInfrastructure)
		repo := &countingRepo{UserRepository: memory.NewUserRepository(), saveErr: storeErr}
		pub := &fakePublisher{}
		svc := newService(repo, pub)

		u, err := svc.CreateUser(ctx, anaInput())

		assert.Nil(t, u)
		assert.True(t, errors.Is(err, storeErr))
		assert.Empty(t, pub.published())
		assert.Equal(t, 0, repo.Len())
	})

	t.Run("publish failure propagates after user is stored", func(t *testing.T) {
		pubErr := fmt.Errorf("%w: broker unreachable", domain.ErrPublish)
		repo := &countingRepo{UserRepository: memory.NewUserRepository()}
		svc := newService(repo, &fakePublisher{err: pubErr})

		u, err := svc.CreateUser(ctx, anaInput())

		assert.Nil(t, u)
		assert.ErrorIs(t, err, domain.ErrPublish)
		assert.Equal(t, 1, repo.Len())

		email, _ := entity.NewEmail("ana@x.com")
		stored, err := repo.FindByEmail(ctx, email)
		require.NoError(t, err)
		assert.NotNil(t, stored)
	})
}

func TestService_CreateUser_CallerCancelsAfterSave(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := &countingRepo{UserRepository: memory.NewUserRepository(), saveHook: cancel}
	pub := &fakePublisher{}
	svc := newService(repo, pub)

	u, err := svc.CreateUser(ctx, anaInput())

	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, 1, repo.Len())
	assert.Len(t, pub.published(), 1)
}

func TestService_CreateUser_TimeoutStillBounds(t *testing.T) {
	repo := &countingRepo{
		UserRepository: memory.NewUserRepository(),
		existsHook:     func() { time.Sleep(5 * time.Millisecond) },
	}
	pub := &fakePublisher{}
	svc := newService(repo, pub, application.WithCreateTimeout(time.Nanosecond))

	_, err := svc.CreateUser(context.Background(), anaInput())

	assert.ErrorIs(t, err, domain.ErrInfrastructure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, repo.Len())
	assert.Empty(t, pub.published())
}

func TestService_CreateUser_ConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()

	// Both callers pass the existence check before either saves.
	var gate sync.WaitGroup
	gate.Add(2)
	repo := &countingRepo{
		UserRepository: memory.NewUserRepository(),
		existsHook: func() {
			gate.Done()
			gate.Wait()
		},
	}
	pub := &fakePublisher{}
	svc := newService(repo, pub)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateUser(ctx, anaInput())
		}(i)
	}
	wg.Wait()

	var ok, failed int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		failed++
		assert.True(t, errors.Is(err, domain.ErrDuplicateUser) || errors.Is(err, domain.ErrInfrastructure), err)
		assert.ErrorIs(t, err, domain.ErrEmailConflict)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, repo.Len())
	assert.Len(t, pub.published(), 1)
}

func TestService_Queries(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{UserRepository: memory.NewUserRepository()}
	svc := newService(repo, &fakePublisher{})

	created, err := svc.CreateUser(ctx, anaInput())
	require.NoError(t, err)
	in := anaInput()
	in.FirstName, in.Email = "Bea", "bea@x.com"
	_, err = svc.CreateUser(ctx, in)
	require.NoError(t, err)

	t.Run("by id round-trips", func(t *testing.T) {
		u, err := svc.GetUserByID(ctx, created.ID())
		require.NoError(t, err)
		assert.Equal(t, created, u)
	})

	t.Run("by id absent", func(t *testing.T) {
		u, err := svc.GetUserByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("by email", func(t *testing.T) {
		u, err := svc.GetUserByEmail(ctx, "Ana@X.com")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, created.ID(), u.ID())
	})

	t.Run("by malformed email is absent", func(t *testing.T) {
		u, err := svc.GetUserByEmail(ctx, "not-an-email")
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("list all", func(t *testing.T) {
		all, err := svc.GetAllUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
