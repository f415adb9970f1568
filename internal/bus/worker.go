package bus

import (
	"context"
	sterrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	configpkg "github.com/adverto/adverto/internal/bus/config"
	errspkg "github.com/adverto/adverto/internal/bus/errors"
	idspkg "github.com/adverto/adverto/internal/bus/ids"
	loggingpkg "github.com/adverto/adverto/internal/bus/logging"
	metadatapkg "github.com/adverto/adverto/internal/bus/metadata"
)

// Worker is the long-lived consumer loop a service runs exactly once per
// process. It subscribes to the configured topics under the service's
// consumer group, decodes each message, applies the acceptance filter, and
// dispatches accepted events to every registered handler.
//
// Per consumed message: Received -> Decoded -> (Accepted | Rejected-by-filter)
// -> Dispatched -> (HandledOk | HandlerFailed). Failed messages are recorded
// on the dead-letter sink and still acknowledged; there is no redelivery for
// handler failures.
type Worker struct {
	conf   *configpkg.Config
	logger loggingpkg.ServiceLogger

	registry *TypeRegistry
	table    *DispatchTable

	router        *message.Router
	ledger        ProcessedLedger
	deadLetters   DeadLetterSink
	metrics       *WorkerMetrics
	metricsServer *http.Server
	accept        map[string]struct{}
	tracer        trace.Tracer
}

// WorkerOptions holds the optional collaborators of a Worker. Zero values
// select the defaults: a bounded in-memory ledger, no dead-letter sink, and
// the global Prometheus registerer.
type WorkerOptions struct {
	Ledger            ProcessedLedger
	DeadLetters       DeadLetterSink
	MetricsRegisterer prometheus.Registerer
}

// NewWorker wires a consumer worker for the supplied configuration. Register
// handlers on the dispatch table before calling Run.
func NewWorker(
	conf *configpkg.Config,
	logger loggingpkg.ServiceLogger,
	subscriber message.Subscriber,
	registry *TypeRegistry,
	table *DispatchTable,
	opts WorkerOptions,
) (*Worker, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if subscriber == nil {
		return nil, errspkg.ErrSubscriberRequired
	}
	if registry == nil {
		return nil, errspkg.ErrRegistryRequired
	}
	if table == nil {
		return nil, errspkg.ErrDispatchTableRequired
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if conf.ConsumerGroup == "" {
		return nil, errspkg.ErrConsumerGroupNeeded
	}
	if len(conf.ConsumeTopics) == 0 {
		return nil, errspkg.ErrTopicRequired
	}

	w := &Worker{
		conf:        conf,
		logger:      logger,
		registry:    registry,
		table:       table,
		ledger:      opts.Ledger,
		deadLetters: opts.DeadLetters,
		tracer:      otel.Tracer("adverto/bus"),
	}
	if w.ledger == nil {
		w.ledger = NewMemoryLedger(0)
	}
	if w.deadLetters == nil {
		w.deadLetters = NopDeadLetterSink{}
	}
	if len(conf.AcceptEvents) > 0 {
		w.accept = make(map[string]struct{}, len(conf.AcceptEvents))
		for _, name := range conf.AcceptEvents {
			w.accept[name] = struct{}{}
		}
	}
	if conf.MetricsEnabled {
		registerer := opts.MetricsRegisterer
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		w.metrics = NewWorkerMetrics(registerer, conf.ConsumerGroup)
	}

	router, err := message.NewRouter(message.RouterConfig{}, loggingpkg.NewWatermillAdapter(logger))
	if err != nil {
		return nil, err
	}
	router.AddMiddleware(correlationIDMiddleware(), middleware.Recoverer)

	for _, topic := range conf.ConsumeTopics {
		router.AddNoPublisherHandler(
			fmt.Sprintf("%s:%s", conf.ConsumerGroup, topic),
			topic,
			subscriber,
			w.consume(topic),
		)
	}
	w.router = router

	logger.Info("Consumer worker configured", loggingpkg.LogFields{
		"consumer_group": conf.ConsumerGroup,
		"topics":         conf.ConsumeTopics,
		"accept_events":  conf.AcceptEvents,
	})

	return w, nil
}

// Run blocks consuming messages until the context is cancelled. Shutdown is
// graceful: polling stops, the in-flight handler finishes, and messages not
// yet handled are left unacknowledged for redelivery.
func (w *Worker) Run(ctx context.Context) error {
	if w.conf.MetricsEnabled && w.conf.MetricsPort > 0 {
		w.serveMetrics()
		defer w.closeMetrics()
	}
	return w.router.Run(ctx)
}

// Running closes once the worker has subscribed to all topics. Wait on it in
// tests before publishing.
func (w *Worker) Running() chan struct{} {
	return w.router.Running()
}

// Close stops the worker outside of context cancellation.
func (w *Worker) Close() error {
	w.closeMetrics()
	return w.router.Close()
}

func (w *Worker) serveMetrics() {
	addr := fmt.Sprintf(":%d", w.conf.MetricsPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}
	w.metricsServer = server

	w.logger.Info("Starting metrics server", loggingpkg.LogFields{"address": addr})
	go func() {
		if err := server.ListenAndServe(); err != nil && !sterrors.Is(err, http.ErrServerClosed) {
			w.logger.Error("Metrics server stopped", err, loggingpkg.LogFields{"address": addr})
		}
	}()
}

func (w *Worker) closeMetrics() {
	if w.metricsServer != nil {
		_ = w.metricsServer.Close()
	}
}

func (w *Worker) accepts(eventName string) bool {
	if w.accept == nil {
		return true
	}
	_, ok := w.accept[eventName]
	return ok
}

// consume builds the per-topic handler. Decode and handler failures are
// recorded on the dead-letter sink and acknowledged; returning nil keeps the
// broker from redelivering a message that will fail the same way again.
func (w *Worker) consume(topic string) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		w.metrics.Consumed(topic)

		typeName, payload, err := DecodeEnvelope(msg.Payload)
		if err != nil {
			w.deadLetter(msg, topic, DeadLetterReasonDecode, err)
			return nil
		}

		if !w.accepts(typeName) {
			w.metrics.Rejected(topic)
			w.logger.Debug("Event rejected by acceptance filter", loggingpkg.LogFields{
				"event": typeName,
				"topic": topic,
			})
			return nil
		}

		event, err := w.registry.Deserialize(typeName, payload)
		if err != nil {
			reason := DeadLetterReasonDecode
			if _, unknown := err.(*UnknownTypeError); unknown {
				reason = DeadLetterReasonUnknown
			}
			w.deadLetter(msg, topic, reason, err)
			return nil
		}

		if !w.ledger.MarkIfNew(event.EventID()) {
			w.logger.Debug("Duplicate delivery skipped", loggingpkg.LogFields{
				"event":    typeName,
				"event_id": event.EventID(),
			})
			return nil
		}

		ctx, span := w.tracer.Start(msg.Context(), "DispatchEvent",
			trace.WithAttributes(
				attribute.String("event.name", typeName),
				attribute.String("event.id", event.EventID()),
				attribute.String("topic", topic),
			))
		defer span.End()

		start := time.Now()
		if err := w.table.Dispatch(ctx, event); err != nil {
			span.RecordError(err)
			w.metrics.HandlerFailed(typeName)
			w.deadLetter(msg, topic, DeadLetterReasonHandler, err)
			return nil
		}

		w.metrics.Dispatched(typeName, time.Since(start).Seconds())
		return nil
	}
}

func (w *Worker) deadLetter(msg *message.Message, topic, reason string, cause error) {
	w.metrics.DeadLettered(topic, reason)
	w.logger.Error("Message dead-lettered", cause, loggingpkg.LogFields{
		"message_uuid": msg.UUID,
		"topic":        topic,
		"reason":       reason,
		"payload":      string(msg.Payload),
	})

	letter := DeadLetter{
		MessageID: msg.UUID,
		Topic:     topic,
		Payload:   append([]byte(nil), msg.Payload...),
		Metadata:  metadatapkg.FromWatermill(msg.Metadata),
		Reason:    reason,
		FailedAt:  time.Now().UTC(),
	}
	if cause != nil {
		letter.Cause = cause.Error()
	}

	if err := w.deadLetters.Record(msg.Context(), letter); err != nil {
		w.logger.Error("Dead-letter sink failed", err, loggingpkg.LogFields{
			"message_uuid": msg.UUID,
			"topic":        topic,
		})
	}
}

// correlationIDMiddleware injects a correlation id when the producer did not
// set one.
func correlationIDMiddleware() message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			if _, ok := msg.Metadata[MetadataKeyCorrelationID]; !ok {
				msg.Metadata[MetadataKeyCorrelationID] = idspkg.CreateULID()
			}
			return h(msg)
		}
	}
}
