package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/IgorGrieder/encurtador-qr/internal/config"
)

type workerConfig struct {
	appEnv       string
	appName      string
	appVersion   string
	logLevel     string
	otelEndpoint string
	otelSample   float64
	postgresDSN  string

	kafkaBrokers []string
	kafkaTopic   string
	workerID     string

	pollInterval time.Duration
	batchSize    int
	writeTimeout time.Duration
	retryBase    time.Duration
	retryMax     time.Duration
	idleWait     time.Duration
	claimLease   time.Duration

	purgeSchedule  string
	purgeRetention time.Duration
}

func loadConfig() (workerConfig, error) {
	cfg := workerConfig{
		appEnv:         config.GetEnv("APP_ENV", "production"),
		appName:        config.GetEnv("APP_NAME", "encurtador-qr"),
		appVersion:     config.GetEnv("APP_VERSION", "0.1.0"),
		logLevel:       config.GetEnv("LOG_LEVEL", "info"),
		otelEndpoint:   config.GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://jaeger:4318"),
		otelSample:     config.GetEnvFloat("OTEL_SAMPLE_RATIO", 1),
		postgresDSN:    config.GetEnv("DB_DSN", config.DefaultPostgresDSN()),
		kafkaBrokers:   config.SplitCSV(config.GetEnv("KAFKA_BROKERS", "kafka:9092")),
		kafkaTopic:     config.GetEnv("KAFKA_VISIT_TOPIC", "visits.recorded"),
		workerID:       config.GetEnv("OUTBOX_WORKER_ID", config.DefaultWorkerID("outbox-worker")),
		pollInterval:   config.GetEnvDuration("OUTBOX_POLL_INTERVAL", 250*time.Millisecond),
		batchSize:      config.GetEnvInt("OUTBOX_BATCH_SIZE", 200),
		writeTimeout:   config.GetEnvDuration("OUTBOX_WRITE_TIMEOUT", 5*time.Second),
		retryBase:      config.GetEnvDuration("OUTBOX_RETRY_BASE_DELAY", time.Second),
		retryMax:       config.GetEnvDuration("OUTBOX_RETRY_MAX_DELAY", 30*time.Second),
		idleWait:       config.GetEnvDuration("OUTBOX_IDLE_WAIT", 50*time.Millisecond),
		claimLease:     config.GetEnvDuration("OUTBOX_CLAIM_LEASE", 30*time.Second),
		purgeSchedule:  config.GetEnv("OUTBOX_PURGE_SCHEDULE", "0 3 * * *"),
		purgeRetention: config.GetEnvDuration("OUTBOX_PURGE_RETENTION", 7*24*time.Hour),
	}
	return cfg, cfg.validate()
}

func (c workerConfig) validate() error {
	switch {
	case strings.TrimSpace(c.postgresDSN) == "":
		return fmt.Errorf("DB_DSN must not be empty")
	case len(c.kafkaBrokers) == 0:
		return fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	case strings.TrimSpace(c.kafkaTopic) == "":
		return fmt.Errorf("KAFKA_VISIT_TOPIC must not be empty")
	case c.batchSize <= 0:
		return fmt.Errorf("OUTBOX_BATCH_SIZE must be > 0")
	case c.pollInterval <= 0:
		return fmt.Errorf("OUTBOX_POLL_INTERVAL must be > 0")
	case c.writeTimeout <= 0:
		return fmt.Errorf("OUTBOX_WRITE_TIMEOUT must be > 0")
	case c.retryBase <= 0:
		return fmt.Errorf("OUTBOX_RETRY_BASE_DELAY must be > 0")
	case c.retryMax < c.retryBase:
		return fmt.Errorf("OUTBOX_RETRY_MAX_DELAY must be >= OUTBOX_RETRY_BASE_DELAY")
	case strings.TrimSpace(c.workerID) == "":
		return fmt.Errorf("OUTBOX_WORKER_ID must not be empty")
	case c.claimLease <= 0:
		return fmt.Errorf("OUTBOX_CLAIM_LEASE must be > 0")
	case c.purgeRetention <= 0:
		return fmt.Errorf("OUTBOX_PURGE_RETENTION must be > 0")
	}
	return nil
}
