package main

import (
	"context"
	"errors"

	"github.com/joho/godotenv"

	"github.com/oksasatya/user-service/config"
	"github.com/oksasatya/user-service/internal/application"
	"github.com/oksasatya/user-service/internal/domain"
	"github.com/oksasatya/user-service/internal/infrastructure/messaging"
	pginfra "github.com/oksasatya/user-service/internal/infrastructure/postgres"
	"github.com/oksasatya/user-service/pkg/helpers"
)

var demoUsers = []application.CreateUserInput{
	{FirstName: "Ana", LastName: "Diaz", Email: "ana.diaz@example.com", Phone: "+15550100",
		Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US"},
	{FirstName: "Budi", LastName: "Santoso", Email: "budi.santoso@example.com"},
	{FirstName: "Chen", LastName: "Wei", Email: "chen.wei@example.com", Phone: "+8613800000000"},
}

// Seeds demo users through the creation workflow so UserCreated events are published too.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{DSN: cfg.PostgresDSN(), MaxConns: 2})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()
	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	rmq, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, messaging.UserCreatedTopology(cfg), cfg.RabbitMQPublishTimeout)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to rabbitmq")
	}
	defer rmq.Close()

	svc := application.NewService(
		pginfra.NewUserRepository(pool),
		messaging.NewUserEventPublisher(rmq, cfg.RabbitMQUserCreatedRoutingKey, logger),
		logger,
	)

	for _, in := range demoUsers {
		u, err := svc.CreateUser(ctx, in)
		switch {
		case errors.Is(err, domain.ErrDuplicateUser):
			logger.WithField("email", in.Email).Info("already seeded")
		case err != nil:
			logger.WithError(err).WithField("email", in.Email).Error("seed failed")
		default:
			logger.WithField("user_id", u.ID()).WithField("email", u.Email()).Info("seeded user")
		}
	}
}
