package application

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-service/internal/domain"
	"github.com/oksasatya/user-service/internal/domain/entity"
	"github.com/oksasatya/user-service/internal/domain/event"
	repo "github.com/oksasatya/user-service/internal/domain/repository"
)

var (
	usersCreated           = expvar.NewInt("users_created")
	usersDuplicateRejected = expvar.NewInt("users_duplicate_rejected")
	userEventsPublishFail  = expvar.NewInt("user_events_publish_failed")
)

type Service struct {
	Repo      repo.UserRepository
	Publisher repo.EventPublisher
	Logger    *logrus.Logger

	now     func() time.Time
	newID   func() uuid.UUID
	timeout time.Duration
}

// DefaultCreateTimeout bounds one CreateUser run once it is detached from the caller.
const DefaultCreateTimeout = 30 * time.Second

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCreateTimeout replaces DefaultCreateTimeout.
func WithCreateTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithIDGenerator replaces uuid.New as the source of user identifiers.
func WithIDGenerator(gen func() uuid.UUID) Option {
	return func(s *Service) { s.newID = gen }
}

func NewService(repo repo.UserRepository, publisher repo.EventPublisher, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		Repo:      repo,
		Publisher: publisher,
		Logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.New,
		timeout:   DefaultCreateTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = logrus.New()
	}
	return s
}

// CreateUserInput carries an already validated registration request.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Street    string
	City      string
	State     string
	ZipCode   string
	Country   string
}

func (in CreateUserInput) address() *entity.Address {
	a := entity.NewAddress(
		strings.TrimSpace(in.Street),
		strings.TrimSpace(in.City),
		strings.TrimSpace(in.State),
		strings.TrimSpace(in.ZipCode),
		strings.TrimSpace(in.Country),
	)
	if a.IsZero() {
		return nil
	}
	return &a
}

// CreateUser registers a user and announces it with a UserCreated event.
//
// The duplicate check and the insert are not atomic; the store's unique email index
// turns a lost race into an ErrInfrastructure+ErrEmailConflict error. The event is
// published after the user is stored. A publish failure is returned as is and the user
// stays stored: there is no outbox and no retry.
//
// Cancelling ctx does not abort a run that has started; only the create timeout does.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	email, err := entity.NewEmail(in.Email)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	log := s.Logger.WithField("email", email.Value())
	log.Info("creating user")

	exists, err := s.Repo.ExistsByEmail(ctx, email)
	if err != nil {
		log.WithError(err).Error("duplicate check failed")
		return nil, err
	}
	if exists {
		usersDuplicateRejected.Add(1)
		log.Info("user already exists")
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateUser, email.Value())
	}

	u := entity.NewUser(
		s.newID(),
		strings.TrimSpace(in.FirstName),
		strings.TrimSpace(in.LastName),
		email,
		strings.TrimSpace(in.Phone),
		in.address(),
		s.now(),
	)

	saved, err := s.Repo.Save(ctx, u)
	if err != nil {
		if errors.Is(err, domain.ErrEmailConflict) {
			usersDuplicateRejected.Add(1)
		}
		log.WithError(err).WithField("user_id", u.ID()).Error("save user failed")
		return nil, err
	}

	e := event.NewUserCreated(saved, s.now())
	if err := s.Publisher.PublishUserCreated(ctx, e); err != nil {
		userEventsPublishFail.Add(1)
		// The user is stored; log enough to replay the event by hand.
		log.WithError(err).WithFields(logrus.Fields{
			"user_id":   saved.ID(),
			"full_name": e.FullName,
		}).Error("user stored but UserCreated publish failed")
		return nil, err
	}

	usersCreated.Add(1)
	log.WithField("user_id", saved.ID()).Info("user created")
	return saved, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	s.Logger.WithField("user_id", id).Debug("fetching user by id")
	return s.Repo.FindByID(ctx, id)
}

// GetUserByEmail returns (nil, nil) for malformed addresses: nothing can be stored
// under them.
func (s *Service) GetUserByEmail(ctx context.Context, raw string) (*entity.User, error) {
	s.Logger.WithField("email", raw).Debug("fetching user by email")
	email, err := entity.NewEmail(raw)
	if err != nil {
		return nil, nil
	}
	return s.Repo.FindByEmail(ctx, email)
}

func (s *Service) GetAllUsers(ctx context.Context) ([]*entity.User, error) {
	s.Logger.Debug("fetching all users")
	return s.Repo.FindAll(ctx)
}
