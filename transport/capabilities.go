package transport

// Capabilities describes the features supported by a transport backend. The
// worker's delivery assumptions (at-least-once, ordering only within a
// partition) can be checked against these at startup.
type Capabilities struct {
	// SupportsOrdering indicates messages within a partition/stream are
	// delivered in order. Ordering across topics is never guaranteed.
	SupportsOrdering bool

	// SupportsAck indicates explicit message acknowledgment.
	SupportsAck bool

	// SupportsNack indicates negative acknowledgment (redelivery).
	SupportsNack bool

	// SupportsPartitioning indicates consumer-group partition sharing.
	SupportsPartitioning bool

	// SupportsConsumerGroups indicates distinct services can each receive
	// every message while instances of one service share consumption.
	SupportsConsumerGroups bool

	// MaxMessageSize is the maximum message size in bytes (0 = unknown).
	MaxMessageSize int64

	// Name is the human-readable name of the transport.
	Name string
}

// SupportsReliableDelivery reports at-least-once semantics (ack + nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// Predefined capability sets for the built-in transports.
var (
	// ChannelCapabilities for the in-memory Go channel transport.
	ChannelCapabilities = Capabilities{
		Name:                   "channel",
		SupportsOrdering:       true,
		SupportsAck:            true,
		SupportsNack:           true,
		SupportsConsumerGroups: false,
	}

	// KafkaCapabilities for the Apache Kafka transport.
	KafkaCapabilities = Capabilities{
		Name:                   "kafka",
		SupportsOrdering:       true,
		SupportsAck:            true,
		SupportsNack:           false,
		SupportsPartitioning:   true,
		SupportsConsumerGroups: true,
		MaxMessageSize:         1048576,
	}

	// RabbitMQCapabilities for the RabbitMQ/AMQP transport.
	RabbitMQCapabilities = Capabilities{
		Name:                   "rabbitmq",
		SupportsOrdering:       true,
		SupportsAck:            true,
		SupportsNack:           true,
		SupportsConsumerGroups: true,
	}

	// NATSCapabilities for the NATS Core transport.
	NATSCapabilities = Capabilities{
		Name:                   "nats",
		SupportsOrdering:       false,
		SupportsAck:            false,
		SupportsNack:           false,
		SupportsConsumerGroups: true,
		MaxMessageSize:         1048576,
	}
)

// GetCapabilities returns the capabilities for a transport by name from the
// default registry.
func GetCapabilities(transportName string) Capabilities {
	return DefaultRegistry.GetCapabilities(transportName)
}
