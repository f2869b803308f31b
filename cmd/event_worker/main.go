package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/user-service/config"
	"github.com/oksasatya/user-service/internal/infrastructure/archive"
	"github.com/oksasatya/user-service/internal/infrastructure/messaging"
	"github.com/oksasatya/user-service/internal/infrastructure/search"
	"github.com/oksasatya/user-service/internal/worker"
	"github.com/oksasatya/user-service/pkg/helpers"
	"github.com/oksasatya/user-service/pkg/mailer"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-event-worker", cfg.Env)
	if cfg.RabbitMQURL == "" || cfg.RabbitMQUserCreatedQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := worker.NewUserCreatedConsumer(nil, nil, nil, logger)

	if cfg.MailConfigured() {
		mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
		consumer.Mailer = mailer.NewWelcomeMailer(mg, cfg.CompanyName, cfg.SupportURL)
	} else {
		logger.Info("mail not configured or MAIL_SEND_ENABLED=false; welcome emails disabled")
	}

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := search.NewClient(search.ClientConfig{
			Addrs:    addrs,
			Username: cfg.ElasticsearchUser,
			Password: cfg.ElasticsearchPass,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to init elasticsearch client")
		}
		indexer := search.NewUserIndexer(es, cfg.ESUsersIndex, logger)
		if err := indexer.EnsureIndex(ctx); err != nil {
			logger.WithError(err).Fatal("failed to prepare elasticsearch index")
		}
		consumer.Indexer = indexer
	}

	if cfg.GCSBucket != "" {
		gcs, err := archive.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Fatal("failed to init GCS client")
		}
		defer func() { _ = gcs.Close() }()
		consumer.Archiver = archive.NewGCSArchiver(gcs, cfg.GCSBucket)
	}

	rc, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, messaging.UserCreatedTopology(cfg), cfg.RabbitMQPrefetch)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to rabbitmq")
	}
	defer rc.Close()

	deliveries, err := rc.Deliveries(ctx)
	if err != nil {
		logger.WithError(err).Fatal("consume")
	}

	done := make(chan struct{})
	go func() {
		consumer.Run(ctx, deliveries)
		close(done)
	}()

	logger.Infof("event worker listening on queue=%s", cfg.RabbitMQUserCreatedQueue)
	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
	case <-done:
		logger.Error("delivery channel closed; exiting")
	}
}
