// Package jetstream provides a NATS JetStream transport. Every polled queue
// is a subject in one work-queue stream, drained through a durable pull
// consumer so messages wait for the next poll cycle.
package jetstream

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"

	"github.com/drblury/mqflow/transport"
	natstransport "github.com/drblury/mqflow/transport/nats"
)

// TransportName is the name used to register this transport.
const TransportName = "nats-jetstream"

const (
	// DefaultStreamName is used when no stream is configured.
	DefaultStreamName = "MQFLOW"

	// DefaultMaxDeliver is the default max delivery attempts.
	DefaultMaxDeliver = 5

	// DefaultAckWait is the default ack wait timeout.
	DefaultAckWait = 30 * time.Second

	// DefaultFetchBatch is the number of messages requested per pull.
	DefaultFetchBatch = 10

	// HeaderMessageID carries the queue message id across the stream.
	HeaderMessageID = "mq_msg_id"
)

var ErrClosed = errors.New("jetstream: transport is closed")

// ConnectFactory allows overriding the NATS connection for testing.
var ConnectFactory = func(url string, options ...nats.Option) (*nats.Conn, error) {
	return nats.Connect(url, options...)
}

func init() {
	Register()
}

// Register registers the JetStream transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.NATSJetStreamCapabilities)
}

// Build creates a new JetStream transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	t, err := New(Config{
		URL:         cfg.GetNATSURL(),
		StreamName:  cfg.GetJetStreamStream(),
		Credentials: cfg.GetCredentials(),
	}, logger)
	if err != nil {
		return transport.Transport{}, err
	}

	return transport.Transport{
		Publisher:  t,
		Subscriber: t,
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.NATSJetStreamCapabilities
}

// Config holds JetStream-specific configuration.
type Config struct {
	URL         string
	Credentials transport.Credentials

	// StreamName is the stream holding every queue subject.
	StreamName string

	MaxDeliver int
	AckWait    time.Duration
	FetchBatch int
	Replicas   int

	// RetentionPolicy: "workqueue" (default), "limits" or "interest".
	RetentionPolicy string
}

func (c Config) withDefaults() Config {
	c.StreamName = cmp.Or(c.StreamName, DefaultStreamName)
	c.RetentionPolicy = cmp.Or(c.RetentionPolicy, "workqueue")
	if c.MaxDeliver <= 0 {
		c.MaxDeliver = DefaultMaxDeliver
	}
	if c.AckWait <= 0 {
		c.AckWait = DefaultAckWait
	}
	if c.FetchBatch <= 0 {
		c.FetchBatch = DefaultFetchBatch
	}
	if c.Replicas <= 0 {
		c.Replicas = 1
	}
	return c
}

// Transport implements Publisher and Subscriber for JetStream.
type Transport struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	config Config
	logger watermill.LoggerAdapter

	subMu         sync.Mutex
	subscriptions map[string]*nats.Subscription

	closedMu   sync.RWMutex
	closed     bool
	closedChan chan struct{}
}

// New connects to NATS and makes sure the stream exists.
func New(cfg Config, logger watermill.LoggerAdapter) (*Transport, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	nc, err := ConnectFactory(cfg.URL, natstransport.ConnectOptions(cfg.Credentials)...)
	if err != nil {
		return nil, fmt.Errorf("jetstream: connect: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: context: %w", err)
	}

	t := &Transport{
		nc:            nc,
		js:            js,
		config:        cfg,
		logger:        logger,
		subscriptions: make(map[string]*nats.Subscription),
		closedChan:    make(chan struct{}),
	}

	if err := t.ensureStream(); err != nil {
		nc.Close()
		return nil, err
	}

	return t, nil
}

func streamConfig(cfg Config) *nats.StreamConfig {
	streamCfg := &nats.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{cfg.StreamName + ".>"},
		MaxAge:   7 * 24 * time.Hour,
		Replicas: cfg.Replicas,
	}

	switch cfg.RetentionPolicy {
	case "interest":
		streamCfg.Retention = nats.InterestPolicy
	case "limits":
		streamCfg.Retention = nats.LimitsPolicy
	default:
		streamCfg.Retention = nats.WorkQueuePolicy
	}
	return streamCfg
}

func (t *Transport) ensureStream() error {
	streamCfg := streamConfig(t.config)
	if _, err := t.js.AddStream(streamCfg); err != nil {
		if _, err := t.js.UpdateStream(streamCfg); err != nil {
			return fmt.Errorf("jetstream: ensure stream %s: %w", streamCfg.Name, err)
		}
	}
	return nil
}

func (t *Transport) isClosed() bool {
	t.closedMu.RLock()
	defer t.closedMu.RUnlock()
	return t.closed
}

// Publish publishes messages onto the queue subject.
func (t *Transport) Publish(topic string, messages ...*message.Message) error {
	if t.isClosed() {
		return ErrClosed
	}

	subject := SubjectFor(t.config.StreamName, topic)
	for _, msg := range messages {
		if _, err := t.js.PublishMsg(FromWatermill(subject, msg)); err != nil {
			return fmt.Errorf("jetstream: publish to %s: %w", subject, err)
		}
	}
	return nil
}

// Subscribe pulls messages for topic through a durable consumer.
func (t *Transport) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if t.isClosed() {
		return nil, ErrClosed
	}

	subject := SubjectFor(t.config.StreamName, topic)
	durable := ConsumerFor(topic)

	consumerCfg := &nats.ConsumerConfig{
		Durable:       durable,
		FilterSubject: subject,
		AckPolicy:     nats.AckExplicitPolicy,
		MaxDeliver:    t.config.MaxDeliver,
		AckWait:       t.config.AckWait,
		DeliverPolicy: nats.DeliverAllPolicy,
	}
	if _, err := t.js.AddConsumer(t.config.StreamName, consumerCfg); err != nil {
		if _, err := t.js.UpdateConsumer(t.config.StreamName, consumerCfg); err != nil {
			return nil, fmt.Errorf("jetstream: consumer %s: %w", durable, err)
		}
	}

	sub, err := t.js.PullSubscribe(subject, durable, nats.Bind(t.config.StreamName, durable))
	if err != nil {
		return nil, fmt.Errorf("jetstream: subscribe %s: %w", subject, err)
	}

	t.subMu.Lock()
	if old, ok := t.subscriptions[topic]; ok {
		_ = old.Unsubscribe()
	}
	t.subscriptions[topic] = sub
	t.subMu.Unlock()

	output := make(chan *message.Message)
	go t.fetchMessages(ctx, sub, output, topic)
	return output, nil
}

func (t *Transport) fetchMessages(ctx context.Context, sub *nats.Subscription, output chan<- *message.Message, topic string) {
	defer close(output)

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.closedChan:
			return
		default:
		}

		msgs, err := sub.Fetch(t.config.FetchBatch, nats.MaxWait(time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				return
			}
			t.logger.Error("Failed to fetch messages", err, watermill.LogFields{"queue": topic})
			continue
		}

		for _, natsMsg := range msgs {
			wmMsg := ToWatermill(natsMsg)

			select {
			case output <- wmMsg:
			case <-ctx.Done():
				_ = natsMsg.Nak()
				return
			}

			select {
			case <-wmMsg.Acked():
				if err := natsMsg.Ack(); err != nil {
					t.logger.Error("Failed to ack", err, watermill.LogFields{"queue": topic})
				}
			case <-wmMsg.Nacked():
				if err := natsMsg.Nak(); err != nil {
					t.logger.Error("Failed to nak", err, watermill.LogFields{"queue": topic})
				}
			case <-ctx.Done():
				_ = natsMsg.Nak()
				return
			}
		}
	}
}

// Close unsubscribes every consumer and closes the connection.
func (t *Transport) Close() error {
	t.closedMu.Lock()
	if t.closed {
		t.closedMu.Unlock()
		return nil
	}
	t.closed = true
	close(t.closedChan)
	t.closedMu.Unlock()

	t.subMu.Lock()
	for _, sub := range t.subscriptions {
		_ = sub.Unsubscribe()
	}
	t.subscriptions = make(map[string]*nats.Subscription)
	t.subMu.Unlock()

	t.nc.Close()
	return nil
}

// SubjectFor returns the stream subject for a queue name. Blanks are not
// valid in subjects and become underscores.
func SubjectFor(stream, topic string) string {
	return stream + "." + strings.ReplaceAll(topic, " ", "_")
}

// ConsumerFor returns the durable consumer name for a queue. Durable names
// may not contain dots.
func ConsumerFor(topic string) string {
	return "mqflow_" + strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(topic)
}

// FromWatermill converts a watermill message into a NATS message for subject.
func FromWatermill(subject string, msg *message.Message) *nats.Msg {
	headers := nats.Header{}
	for k, v := range msg.Metadata {
		headers.Set(k, v)
	}
	headers.Set(HeaderMessageID, msg.UUID)
	headers.Set(nats.MsgIdHdr, msg.UUID)
	return &nats.Msg{Subject: subject, Data: msg.Payload, Header: headers}
}

// ToWatermill converts a fetched NATS message into a watermill message.
func ToWatermill(natsMsg *nats.Msg) *message.Message {
	msgID := cmp.Or(natsMsg.Header.Get(HeaderMessageID), natsMsg.Header.Get(nats.MsgIdHdr), watermill.NewUUID())
	wmMsg := message.NewMessage(msgID, natsMsg.Data)
	for k, v := range natsMsg.Header {
		if len(v) > 0 && k != nats.MsgIdHdr {
			wmMsg.Metadata.Set(k, v[0])
		}
	}
	return wmMsg
}
