package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/logger"
	"github.com/IgorGrieder/encurtador-qr/internal/infrastructure/telemetry"
	postgresStorage "github.com/IgorGrieder/encurtador-qr/internal/storage/postgres"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.appEnv, cfg.logLevel, zap.String("component", "outbox_worker"), zap.String("worker_id", cfg.workerID)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	shutdownTracer, err := telemetry.InitTracer(cfg.otelEndpoint, telemetry.Service{
		Name:        cfg.appName + "-outbox-worker",
		Version:     cfg.appVersion,
		Environment: cfg.appEnv,
		SampleRatio: cfg.otelSample,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", zap.Error(err))
	}
	defer func() {
		if shutdownTracer == nil {
			return
		}
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("failed to shutdown tracer", zap.Error(err))
		}
	}()

	pgConn, err := db.ConnectPostgres(context.Background(), cfg.postgresDSN, cfg.appName+"-outbox-worker")
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgConn.Close()

	outboxRepo, err := postgresStorage.NewVisitOutboxRepository(pgConn)
	if err != nil {
		logger.Fatal("failed to initialize outbox repository", zap.Error(err))
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.kafkaBrokers...),
		Topic:                  cfg.kafkaTopic,
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.batchSize,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Warn("failed to close kafka writer", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	purger, err := newPurgeScheduler(outboxRepo, cfg.purgeSchedule, cfg.purgeRetention)
	if err != nil {
		logger.Fatal("failed to schedule outbox purge", zap.Error(err))
	}
	purger.Start(ctx)

	logger.Info("outbox worker started",
		zap.Strings("kafka_brokers", cfg.kafkaBrokers),
		zap.String("kafka_topic", cfg.kafkaTopic),
		zap.Int("batch_size", cfg.batchSize),
		zap.Duration("poll_interval", cfg.pollInterval),
		zap.Duration("claim_lease", cfg.claimLease),
		zap.String("purge_schedule", cfg.purgeSchedule),
	)

	newPublisher(outboxRepo, writer, cfg).run(ctx)
}
