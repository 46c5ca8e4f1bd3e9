package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/swiftkart/dispatch/internal/adapter/handler"
	"github.com/swiftkart/dispatch/internal/adapter/queue"
	"github.com/swiftkart/dispatch/internal/adapter/storage"
	"github.com/swiftkart/dispatch/internal/config"
	"github.com/swiftkart/dispatch/internal/core/service"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "dispatch-api").Logger()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 100})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	logger.Info().Msg("connected to redis")

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{cfg.ElasticURL}})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build elasticsearch client")
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.OrderTopic,
		Balancer: &kafka.Hash{},
	}
	publisher := queue.NewKafkaPublisher(writer)

	geo := storage.NewElasticAdapter(esClient)
	cache := storage.NewRedisAdapter(rdb)
	ledger := storage.NewMySQLAdapter(db)
	availability := service.NewAvailabilityService(geo, cache)

	httpHandler := handler.NewHTTPHandler(availability, publisher, ledger, cache, geo, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Mount("/", httpHandler.Routes())

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	logger.Info().Msg("http server stopped")

	if err := publisher.Close(); err != nil {
		logger.Error().Err(err).Msg("publisher close failed")
	}
	rdb.Close()
	db.Close()
	logger.Info().Msg("connections closed")
}
