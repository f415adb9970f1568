// Command locationd runs the location service: it checks that a created
// post's province, district, and ward codes form a containment chain and
// publishes the verdict together with the display names.
package main

import (
	"context"
	"os"

	"github.com/adverto/adverto/internal/bus"
	configpkg "github.com/adverto/adverto/internal/bus/config"
	loggingpkg "github.com/adverto/adverto/internal/bus/logging"
	"github.com/adverto/adverto/internal/events"
	"github.com/adverto/adverto/internal/locationsvc"
	"github.com/adverto/adverto/internal/svcmain"
	transportpkg "github.com/adverto/adverto/transport"
	_ "github.com/adverto/adverto/transport/transports"
)

func main() {
	logger := svcmain.NewLogger("location-service")
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
		ConsumerGroup: "location-service",
		PublishTopic:  events.TopicLocation,
		ConsumeTopics: []string{events.TopicPost},
		AcceptEvents:  []string{events.NamePostCreated},
	})
	if err := conf.Validate(); err != nil {
		return err
	}
	logger.Info("Configuration loaded", loggingpkg.LogFields{"config": conf.String()})

	tr, err := transportpkg.Build(ctx, conf, loggingpkg.NewWatermillAdapter(logger))
	if err != nil {
		return err
	}

	var store locationsvc.Store
	pool, err := svcmain.OpenPoolFromEnv(ctx)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
		pg := locationsvc.NewPGStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pg
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store", nil)
		store = locationsvc.NewMemoryStore()
	}

	publisher, err := bus.NewBusPublisher(tr.Publisher, conf.PublishTopic)
	if err != nil {
		return err
	}

	registry := bus.NewTypeRegistry()
	if err := events.RegisterLocationServiceTypes(registry); err != nil {
		return err
	}

	table := bus.NewDispatchTable()
	svc := locationsvc.NewService(store, publisher, logger)
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
