// Package svcmain carries the boilerplate shared by the service binaries:
// environment-driven configuration, the process logger, the optional
// PostgreSQL pool, and the run loop with signal handling.
package svcmain

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adverto/adverto/internal/bus"
	configpkg "github.com/adverto/adverto/internal/bus/config"
	loggingpkg "github.com/adverto/adverto/internal/bus/logging"
)

// ConfigFromEnv assembles the bus configuration from ADVERTO_* environment
// variables, starting from per-service defaults supplied by the caller.
//
//	ADVERTO_PUBSUB_SYSTEM   transport name (kafka, rabbitmq, nats, channel)
//	ADVERTO_CONSUMER_GROUP  consumer group id
//	ADVERTO_KAFKA_BROKERS   comma-separated broker list
//	ADVERTO_KAFKA_CLIENT_ID kafka client id
//	ADVERTO_RABBITMQ_URL    amqp:// URL
//	ADVERTO_NATS_URL        nats:// URL
//	ADVERTO_DLQ_TOPIC       dead-letter topic name
//	ADVERTO_METRICS_PORT    enables the /metrics listener when > 0
func ConfigFromEnv(defaults configpkg.Config) *configpkg.Config {
	conf := defaults

	if v := os.Getenv("ADVERTO_PUBSUB_SYSTEM"); v != "" {
		conf.PubSubSystem = v
	}
	if v := os.Getenv("ADVERTO_CONSUMER_GROUP"); v != "" {
		conf.ConsumerGroup = v
	}
	if v := os.Getenv("ADVERTO_KAFKA_BROKERS"); v != "" {
		conf.KafkaBrokers = splitAndTrim(v)
	}
	if v := os.Getenv("ADVERTO_KAFKA_CLIENT_ID"); v != "" {
		conf.KafkaClientID = v
	}
	if v := os.Getenv("ADVERTO_RABBITMQ_URL"); v != "" {
		conf.RabbitMQURL = v
	}
	if v := os.Getenv("ADVERTO_NATS_URL"); v != "" {
		conf.NATSURL = v
	}
	if v := os.Getenv("ADVERTO_DLQ_TOPIC"); v != "" {
		conf.DeadLetterTopic = v
	}
	if v := os.Getenv("ADVERTO_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			conf.MetricsEnabled = true
			conf.MetricsPort = port
		}
	}

	return &conf
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// NewLogger builds the process-wide JSON logger. ADVERTO_LOG_LEVEL accepts
// debug, info, warn, and error; unset means info.
func NewLogger(service string) loggingpkg.ServiceLogger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("ADVERTO_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := loggingpkg.NewSlogServiceLogger(slog.New(handler))
	return logger.With(loggingpkg.LogFields{"service": service})
}

// OpenPoolFromEnv connects to PostgreSQL when DATABASE_URL is set. A nil pool
// with a nil error means the service should fall back to its in-memory store.
func OpenPoolFromEnv(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, nil
	}
	return pgxpool.New(ctx, dsn)
}

// BuildDeadLetterSink builds the sink the worker records failures to: the
// configured dead-letter topic when one is set, otherwise a no-op.
func BuildDeadLetterSink(conf *configpkg.Config, publisher message.Publisher) (bus.DeadLetterSink, error) {
	if conf.DeadLetterTopic == "" {
		return bus.NopDeadLetterSink{}, nil
	}
	return bus.NewTopicDeadLetterSink(publisher, conf.DeadLetterTopic)
}

// RunWorker blocks the process on the consumer worker until SIGINT or
// SIGTERM, then lets the watermill router drain gracefully.
func RunWorker(worker *bus.Worker, logger loggingpkg.ServiceLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Worker starting", nil)
	if err := worker.Run(ctx); err != nil {
		return err
	}
	logger.Info("Worker stopped", nil)
	return nil
}
