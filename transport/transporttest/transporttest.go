// Package transporttest provides a static transport.Config and no-op broker
// halves for transport and queue client tests.
package transporttest

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/mqflow/transport"
)

// Config is a transport.Config backed by plain fields.
type Config struct {
	Broker             string
	Credentials        transport.Credentials
	KafkaBrokers       []string
	KafkaConsumerGroup string
	AMQPURL            string
	NATSURL            string
	JetStreamStream    string
	HTTPListenAddress  string
	HTTPSinkURL        string
	SpoolFile          string
	AWSRegion          string
	AWSAccountID       string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
}

var _ transport.Config = (*Config)(nil)

func (c *Config) GetBroker() string                     { return c.Broker }
func (c *Config) GetCredentials() transport.Credentials { return c.Credentials }
func (c *Config) GetKafkaBrokers() []string             { return c.KafkaBrokers }
func (c *Config) GetKafkaConsumerGroup() string         { return c.KafkaConsumerGroup }
func (c *Config) GetAMQPURL() string                    { return c.AMQPURL }
func (c *Config) GetNATSURL() string                    { return c.NATSURL }
func (c *Config) GetJetStreamStream() string            { return c.JetStreamStream }
func (c *Config) GetHTTPListenAddress() string          { return c.HTTPListenAddress }
func (c *Config) GetHTTPSinkURL() string                { return c.HTTPSinkURL }
func (c *Config) GetSpoolFile() string                  { return c.SpoolFile }
func (c *Config) GetAWSRegion() string                  { return c.AWSRegion }
func (c *Config) GetAWSAccountID() string               { return c.AWSAccountID }
func (c *Config) GetAWSAccessKeyID() string             { return c.AWSAccessKeyID }
func (c *Config) GetAWSSecretAccessKey() string         { return c.AWSSecretAccessKey }
func (c *Config) GetAWSEndpoint() string                { return c.AWSEndpoint }

// Publisher records published messages per topic.
type Publisher struct {
	mu        sync.Mutex
	Published map[string][]*message.Message
	Err       error
	Closed    bool
}

func (p *Publisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	if p.Published == nil {
		p.Published = make(map[string][]*message.Message)
	}
	p.Published[topic] = append(p.Published[topic], messages...)
	return nil
}

// Messages returns a copy of the messages published to topic.
func (p *Publisher) Messages(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*message.Message(nil), p.Published[topic]...)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// Subscriber returns an already closed channel for every topic.
type Subscriber struct {
	Closed bool
}

func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch := make(chan *message.Message)
	close(ch)
	return ch, nil
}

func (s *Subscriber) Close() error {
	s.Closed = true
	return nil
}
