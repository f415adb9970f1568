// Package adverto is a small integration event bus on top of Watermill,
// built for the classified-ads platform's choreography between the post,
// category, location, and plan services. Events travel as a JSON envelope
// carrying a registered type name plus the event payload; each service runs
// a Worker that subscribes to the topics it cares about, filters by event
// name, deserializes through a TypeRegistry, and fans the event out to every
// handler registered in its DispatchTable.
//
// The transport (Kafka, RabbitMQ, NATS, or in-memory Go channels) is chosen
// from Config at startup; the modular transport packages self-register, so a
// binary enables a transport by blank-importing it:
//
//	_ "github.com/adverto/adverto/transport/kafka"
//
// or pulls in all of them at once via transport/transports.
//
// Delivery is at-least-once. Workers never retry a failing message: decode
// failures, unknown event types, and handler errors are recorded to a
// DeadLetterSink and the message is acknowledged, keeping the topic moving.
// Redeliveries are absorbed by a ProcessedLedger keyed on event id, and the
// saga handlers themselves are written to be idempotent on top of that.
//
// See examples/saga for the whole validation choreography running in one
// process over the channel transport.
package adverto
