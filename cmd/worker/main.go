package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/swiftkart/dispatch/internal/adapter/queue"
	"github.com/swiftkart/dispatch/internal/adapter/storage"
	"github.com/swiftkart/dispatch/internal/config"
	"github.com/swiftkart/dispatch/internal/core/service"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "fulfillment-worker").Logger()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The ledger and queue are mandatory; an unreachable target at startup
	// is the one condition that halts the service.
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping mysql")
	}
	logger.Info().Msg("connected to mysql")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	logger.Info().Msg("connected to redis")

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.ConsumerGroup,
		Topic:    cfg.OrderTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.OrderTopic,
		Balancer: &kafka.Hash{},
	}

	orderQueue := queue.NewKafkaQueue(reader, writer)
	ledger := storage.NewMySQLAdapter(db)
	cache := storage.NewRedisAdapter(rdb)
	fulfillment := service.NewFulfillmentService(ledger, cache, logger)
	worker := service.NewWorker(orderQueue, fulfillment, logger)

	// Blocks until SIGINT/SIGTERM; the in-flight message is settled before
	// Run returns.
	worker.Run(ctx)

	if err := orderQueue.Close(); err != nil {
		logger.Error().Err(err).Msg("queue close failed")
	}
	rdb.Close()
	db.Close()
	logger.Info().Msg("connections closed")
}
