package transport

// Capabilities describes how a broker behaves as a message queue. The queue
// client uses it to decide whether messages left on a queue between polls
// are still there on the next cycle.
type Capabilities struct {
	// Name is the transport name.
	Name string

	// SupportsAck indicates explicit acknowledgement; unacknowledged messages
	// are redelivered.
	SupportsAck bool

	// SupportsOrdering indicates messages on one queue are delivered in order.
	SupportsOrdering bool

	// Durable indicates messages published while no poller is connected are
	// kept until the next connection.
	Durable bool

	// PullBased indicates messages are fetched on demand instead of pushed.
	PullBased bool

	// RequiresListener indicates the subscriber runs a local server that the
	// broker pushes into.
	RequiresListener bool

	// MaxMessageSize is the maximum message size in bytes (0 = unlimited/unknown).
	MaxMessageSize int64
}

// SupportsReliableDelivery reports at-least-once delivery across reconnects.
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.Durable
}

// KeepsMessagesWhileDisconnected reports whether a poller that disconnects
// after every cycle can still see messages queued in between.
func (c Capabilities) KeepsMessagesWhileDisconnected() bool {
	return c.Durable && !c.RequiresListener
}

// Predefined capability sets for the built-in transports.
var (
	// ChannelCapabilities for the in-process Go channel transport.
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsAck:      true,
		SupportsOrdering: true,
		Durable:          true,
	}

	// KafkaCapabilities for Apache Kafka.
	KafkaCapabilities = Capabilities{
		Name:             "kafka",
		SupportsAck:      true,
		SupportsOrdering: true,
		Durable:          true,
		MaxMessageSize:   1048576,
	}

	// RabbitMQCapabilities for AMQP 0.9.1 brokers.
	RabbitMQCapabilities = Capabilities{
		Name:             "rabbitmq",
		SupportsAck:      true,
		SupportsOrdering: true,
		Durable:          true,
	}

	// NATSCapabilities for NATS Core. Subjects hold nothing for absent subscribers.
	NATSCapabilities = Capabilities{
		Name:           "nats",
		MaxMessageSize: 1048576,
	}

	// NATSJetStreamCapabilities for NATS JetStream pull consumers.
	NATSJetStreamCapabilities = Capabilities{
		Name:             "nats-jetstream",
		SupportsAck:      true,
		SupportsOrdering: true,
		Durable:          true,
		PullBased:        true,
		MaxMessageSize:   1048576,
	}

	// AWSCapabilities for SQS queues with SNS sinks.
	AWSCapabilities = Capabilities{
		Name:           "aws",
		SupportsAck:    true,
		Durable:        true,
		PullBased:      true,
		MaxMessageSize: 262144,
	}

	// HTTPCapabilities for HTTP push subscribers and webhook sinks.
	HTTPCapabilities = Capabilities{
		Name:             "http",
		RequiresListener: true,
	}

	// IOCapabilities for the JSON-lines spool file transport.
	IOCapabilities = Capabilities{
		Name:             "io",
		SupportsOrdering: true,
		Durable:          true,
	}
)

// GetCapabilities returns the capabilities registered for a transport name.
func GetCapabilities(transportName string) Capabilities {
	return DefaultRegistry.GetCapabilities(transportName)
}
