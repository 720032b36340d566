package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/pk2025teslead/smartlogx-app/internal/audit"
	"github.com/pk2025teslead/smartlogx-app/internal/events"
	"github.com/pk2025teslead/smartlogx-app/internal/leave"
	"github.com/pk2025teslead/smartlogx-app/internal/messaging/kafka/consumer"
	"github.com/pk2025teslead/smartlogx-app/internal/notification"
	"github.com/pk2025teslead/smartlogx-app/internal/shared/clock"
	"github.com/pk2025teslead/smartlogx-app/internal/shared/connection"
)

// RunConsumer delivers published leave notifications and records the
// delivery flags until terminated.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	leaveRepo := leave.NewRepository(sqlDB)
	auditRepo := audit.NewRepository(sqlDB)
	leaveService := leave.NewService(sqlDB, leaveRepo, auditRepo, clock.New(), leave.ConfigFromEnv(), logger)
	mailer := notification.NewLogMailer(logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.TopicLeaveNotifications,
		GroupID:        "smartlogx-leave-notifications",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeLeaveNotifications(ctx, reader, leaveService, mailer, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
