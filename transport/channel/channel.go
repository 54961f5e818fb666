// Package channel provides an in-process queue transport on watermill's Go
// channel pub/sub. All connections in a process share one broker, so
// messages published to a queue stay there until some poller drains them.
package channel

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/drblury/mqflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "channel"

// Factory allows overriding the channel creation for testing.
var Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
	pubSub := gochannel.NewGoChannel(cfg, logger)
	return pubSub, pubSub
}

var (
	defaultMu     sync.Mutex
	defaultBroker *Broker
)

func init() {
	Register()
}

// Register registers the channel transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.ChannelCapabilities)
}

// Build returns a session on the process-wide broker. Closing the session
// leaves queued messages in place.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	broker := Default(logger)
	return transport.Transport{
		Publisher:  broker.Publisher(),
		Subscriber: broker.Session(),
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.ChannelCapabilities
}

// Default returns the process-wide broker, creating it on first use.
func Default(logger watermill.LoggerAdapter) *Broker {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBroker == nil {
		defaultBroker = NewBroker(logger)
	}
	return defaultBroker
}

// ResetDefault discards the process-wide broker.
func ResetDefault() {
	defaultMu.Lock()
	old := defaultBroker
	defaultBroker = nil
	defaultMu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

// Broker holds one long-lived subscription per queue. Sessions read from
// those subscriptions; a message taken by a session that ends before
// delivering it is nacked and redelivered to the next session.
type Broker struct {
	pub message.Publisher
	sub message.Subscriber

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queues map[string]<-chan *message.Message
}

// NewBroker creates a broker with persistent in-memory queues.
func NewBroker(logger watermill.LoggerAdapter) *Broker {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	pub, sub := Factory(gochannel.Config{Persistent: true}, logger)
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		pub:    pub,
		sub:    sub,
		ctx:    ctx,
		cancel: cancel,
		queues: make(map[string]<-chan *message.Message),
	}
}

// Publisher returns a publisher whose Close leaves the broker running.
func (b *Broker) Publisher() message.Publisher {
	return brokerPublisher{b: b}
}

// Session returns a subscriber bound to this broker.
func (b *Broker) Session() message.Subscriber {
	ctx, cancel := context.WithCancel(b.ctx)
	return &session{b: b, ctx: ctx, cancel: cancel}
}

// Close shuts the broker down and drops queued messages.
func (b *Broker) Close() error {
	b.cancel()
	return b.pub.Close()
}

func (b *Broker) queue(topic string) (<-chan *message.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[topic]; ok {
		return q, nil
	}
	q, err := b.sub.Subscribe(b.ctx, topic)
	if err != nil {
		return nil, err
	}
	b.queues[topic] = q
	return q, nil
}

type brokerPublisher struct {
	b *Broker
}

func (p brokerPublisher) Publish(topic string, messages ...*message.Message) error {
	// Registering the queue before publishing keeps the first message for
	// a topic in the long-lived subscription.
	if _, err := p.b.queue(topic); err != nil {
		return err
	}
	return p.b.pub.Publish(topic, messages...)
}

func (p brokerPublisher) Close() error { return nil }

type session struct {
	b      *Broker
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *session) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	q, err := s.b.queue(topic)
	if err != nil {
		return nil, err
	}

	out := make(chan *message.Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.ctx.Done():
				return
			case msg, ok := <-q:
				if !ok {
					return
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					msg.Nack()
					return
				case <-s.ctx.Done():
					msg.Nack()
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *session) Close() error {
	s.cancel()
	return nil
}
