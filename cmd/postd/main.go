// Command postd runs the post service: it owns the posts table, publishes
// PostCreated when a post is inserted, and aggregates the three validation
// results into the post's final status.
package main

import (
	"context"
	"os"

	"github.com/adverto/adverto/internal/bus"
	configpkg "github.com/adverto/adverto/internal/bus/config"
	loggingpkg "github.com/adverto/adverto/internal/bus/logging"
	"github.com/adverto/adverto/internal/events"
	"github.com/adverto/adverto/internal/postsvc"
	"github.com/adverto/adverto/internal/svcmain"
	transportpkg "github.com/adverto/adverto/transport"
	_ "github.com/adverto/adverto/transport/transports"
)

func main() {
	logger := svcmain.NewLogger("post-service")
	if err := run(logger); err != nil {
		logger.Error("Service failed", err, nil)
		os.Exit(1)
	}
}

func run(logger loggingpkg.ServiceLogger) error {
	ctx := context.Background()

	conf := svcmain.ConfigFromEnv(configpkg.Config{
		PubSubSystem:  "kafka",
		KafkaBrokers:  []string{"localhost:9092"},
		ConsumerGroup: "post-service",
		PublishTopic:  events.TopicPost,
		ConsumeTopics: []string{events.TopicCategory, events.TopicLocation, events.TopicPlan},
		AcceptEvents: []string{
			events.NameCategoryPathValid,
			events.NameCategoryPathInvalid,
			events.NameLocationValid,
			events.NameLocationInvalid,
			events.NameUserPlanValid,
			events.NameUserPlanInvalid,
		},
	})
	if err := conf.Validate(); err != nil {
		return err
	}
	logger.Info("Configuration loaded", loggingpkg.LogFields{"config": conf.String()})

	tr, err := transportpkg.Build(ctx, conf, loggingpkg.NewWatermillAdapter(logger))
	if err != nil {
		return err
	}

	var store postsvc.Store
	pool, err := svcmain.OpenPoolFromEnv(ctx)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
		pg := postsvc.NewPGStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pg
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store", nil)
		store = postsvc.NewMemoryStore()
	}

	publisher, err := bus.NewBusPublisher(tr.Publisher, conf.PublishTopic)
	if err != nil {
		return err
	}

	registry := bus.NewTypeRegistry()
	if err := events.RegisterPostServiceTypes(registry); err != nil {
		return err
	}

	table := bus.NewDispatchTable()
	svc := postsvc.NewService(store, publisher, logger)
	if err := svc.RegisterHandlers(table); err != nil {
		return err
	}

	deadLetters, err := svcmain.BuildDeadLetterSink(conf, tr.Publisher)
	if err != nil {
		return err
	}

	worker, err := bus.NewWorker(conf, logger, tr.Subscriber, registry, table, bus.WorkerOptions{
		DeadLetters: deadLetters,
	})
	if err != nil {
		return err
	}

	return svcmain.RunWorker(worker, logger)
}
