// Package transport defines the broker adapters the queue client and event
// sinks are built on. Each broker lives in its own sub-package and registers
// a Builder with the registry under its transport name.
package transport

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines a publisher and subscriber pair produced by a builder.
// Subscribers feed queue pollers; publishers feed event sinks.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Close closes both halves, returning the first error.
func (t Transport) Close() error {
	var firstErr error
	if t.Subscriber != nil {
		if err := t.Subscriber.Close(); err != nil {
			firstErr = err
		}
	}
	if t.Publisher != nil {
		if err := t.Publisher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Builder creates a transport from config.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Credentials are the user and password presented to the broker when a
// queue manager connection is opened.
type Credentials struct {
	User     string
	Password string
}

// IsZero reports whether no user was configured.
func (c Credentials) IsZero() bool {
	return c.User == ""
}

// Config provides the values transports need without depending on the
// config package.
type Config interface {
	// GetBroker returns the transport name.
	GetBroker() string
	GetCredentials() Credentials

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaConsumerGroup() string

	// AMQP
	GetAMQPURL() string

	// NATS and JetStream
	GetNATSURL() string
	GetJetStreamStream() string

	// HTTP
	GetHTTPListenAddress() string
	GetHTTPSinkURL() string

	// Spool file
	GetSpoolFile() string

	// AWS
	GetAWSRegion() string
	GetAWSAccountID() string
	GetAWSAccessKeyID() string
	GetAWSSecretAccessKey() string
	GetAWSEndpoint() string
}

// CapabilitiesProvider is implemented by transports that can report their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}
