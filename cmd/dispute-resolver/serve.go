package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/api"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/config"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/events"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/handlers"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/interfaces"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/repository"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/service"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/telemetry"
)

const serviceName = "dispute-resolver"

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := telemetry.InitTelemetry(serviceName, cfg.JaegerEndpoint); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting dispute resolver")

	// Remote store. Failures surface per query and are absorbed by the fallback repository.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := repository.InitDB(ctx, db); err != nil {
		telemetry.Logger.Warn("Database unavailable at startup, serving from local cache", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		defer redisClient.Close()
	}

	var doc interfaces.DocumentStore
	switch cfg.LocalStore {
	case "redis":
		doc = repository.NewRedisDocument(redisClient, cfg.LocalStoreKey)
	default:
		sqliteDoc, err := repository.OpenSQLiteDocument(ctx, cfg.LocalStorePath, cfg.LocalStoreKey)
		if err != nil {
			return err
		}
		defer sqliteDoc.Close()
		doc = sqliteDoc
	}

	var locker interfaces.ClaimLocker = repository.NewLocalClaimLocker()
	if redisClient != nil {
		locker = repository.NewRedisClaimLocker(redisClient, cfg.ClaimLockTTL)
	}

	repo := repository.NewFallbackRepository(
		repository.NewPostgresClaimBackend(db),
		repository.NewLocalClaimBackend(doc),
	)
	orders := repository.NewPostgresOrderStore(db)

	var (
		publishers events.MultiPublisher
		watcher    interfaces.ClaimWatcher = events.NewPollingWatcher(repo, cfg.WatchPollInterval)
	)
	if cfg.KafkaBrokers != "" {
		kafkaWriter := &kafka.Writer{
			Addr:     kafka.TCP(cfg.KafkaBrokers),
			Topic:    events.StatusChangedTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer kafkaWriter.Close()
		publishers = append(publishers, events.NewKafkaPublisher(kafkaWriter))
	}
	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL)
		if err != nil {
			telemetry.Logger.Warn("NATS unavailable, claim watchers will poll", zap.Error(err))
		} else {
			defer nc.Close()
			publishers = append(publishers, events.NewNatsPublisher(nc))
			watcher = events.NewNatsWatcher(nc, repo)
		}
	}

	lookup := service.NewOrderLookup(orders, repo)
	gateway := service.NewDecisionGateway(cfg.Agent)
	lifecycle := service.NewLifecycleController(repo, locker, publishers)
	intake := service.NewIntake(lookup, gateway, lifecycle)

	customers := func(id int64) models.Customer {
		return models.Customer{ID: id, Demo: cfg.IsDemoCustomer(id)}
	}
	claimHandler := handlers.NewClaimHandler(repo, intake, lifecycle, lookup, watcher, customers)
	orderHandler := handlers.NewOrderHandler(lookup)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(claimHandler, orderHandler),
	}

	go func() {
		telemetry.Logger.Info("Dispute resolver starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
	return nil
}
