package mqclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	loggingpkg "github.com/drblury/mqflow/internal/runtime/logging"
	"github.com/drblury/mqflow/transport"
)

const (
	// DefaultGetWait bounds how long one retrieval waits for a message.
	DefaultGetWait = 250 * time.Millisecond
	// DefaultStatusTopicPrefix is prepended to a channel name to form the
	// topic its status records are published on.
	DefaultStatusTopicPrefix = "mqflow.status."
)

// ErrConnectionClosed is returned when the broker closed a subscription.
var ErrConnectionClosed = errors.New("mqflow: subscription closed by broker")

// WatermillClient opens queue manager connections on a registered
// transport. Queues map to topics; status records are JSON messages on a
// per-channel status topic.
type WatermillClient struct {
	cfg      transport.Config
	registry *transport.Registry
	logger   loggingpkg.ServiceLogger

	getWait     time.Duration
	statusTopic string
}

// WatermillOption configures a WatermillClient.
type WatermillOption func(*WatermillClient)

// WithRegistry selects the transport registry. The default registry is
// used otherwise.
func WithRegistry(r *transport.Registry) WatermillOption {
	return func(c *WatermillClient) {
		c.registry = r
	}
}

// WithGetWait sets how long GetNext waits before reporting ErrNoMoreData.
func WithGetWait(d time.Duration) WatermillOption {
	return func(c *WatermillClient) {
		if d > 0 {
			c.getWait = d
		}
	}
}

// WithStatusTopicPrefix overrides DefaultStatusTopicPrefix.
func WithStatusTopicPrefix(prefix string) WatermillOption {
	return func(c *WatermillClient) {
		c.statusTopic = prefix
	}
}

// NewWatermillClient returns a client building transports from cfg.
func NewWatermillClient(cfg transport.Config, logger loggingpkg.ServiceLogger, opts ...WatermillOption) (*WatermillClient, error) {
	if cfg == nil {
		return nil, errspkg.ErrConfigRequired
	}
	c := &WatermillClient{
		cfg:         cfg,
		registry:    transport.DefaultRegistry,
		logger:      loggingpkg.OrDiscard(logger),
		getWait:     DefaultGetWait,
		statusTopic: DefaultStatusTopicPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StatusTopic returns the topic status records for channel are read from.
func (c *WatermillClient) StatusTopic(channel string) string {
	return c.statusTopic + channel
}

// Connect builds a fresh transport for manager. Credentials, when given,
// replace the configured ones for this connection only.
func (c *WatermillClient) Connect(ctx context.Context, manager string, creds transport.Credentials) (Connection, error) {
	if manager == "" {
		return nil, errspkg.ErrManagerRequired
	}

	logger := c.logger.With(loggingpkg.LogFields{"manager": manager, "broker": c.cfg.GetBroker()})
	cfg := credentialsConfig{Config: c.cfg, creds: creds}

	tr, err := c.registry.Build(ctx, cfg, loggingpkg.NewWatermillAdapter(logger))
	if err != nil {
		return nil, &TransportError{Op: "connect", Manager: manager, Err: err}
	}
	if tr.Subscriber == nil {
		_ = tr.Close()
		return nil, &TransportError{Op: "connect", Manager: manager, Err: errors.New("transport has no subscriber")}
	}

	connCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	logger.Debug("Connected to queue manager", nil)
	return &watermillConnection{
		client:    c,
		manager:   manager,
		logger:    logger,
		tr:        tr,
		ctx:       connCtx,
		cancel:    cancel,
		subs:      make(map[string]<-chan *message.Message),
		connected: true,
	}, nil
}

type credentialsConfig struct {
	transport.Config
	creds transport.Credentials
}

func (c credentialsConfig) GetCredentials() transport.Credentials {
	if c.creds.IsZero() {
		return c.Config.GetCredentials()
	}
	return c.creds
}

type watermillConnection struct {
	client  *WatermillClient
	manager string
	logger  loggingpkg.ServiceLogger
	tr      transport.Transport

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	subs      map[string]<-chan *message.Message
	connected bool
	closed    bool
}

func (c *watermillConnection) GetNext(ctx context.Context, target string) (*RawMessage, error) {
	msg, err := c.receive(ctx, "get", target, target)
	if err != nil {
		return nil, err
	}
	return NewRawMessage(msg), nil
}

func (c *watermillConnection) InquireStatus(ctx context.Context, target string) ([]StatusRecord, error) {
	topic := c.client.StatusTopic(target)

	var records []StatusRecord
	for {
		msg, err := c.receive(ctx, "inquire", target, topic)
		if errors.Is(err, ErrNoMoreData) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := DecodeStatusRecord(msg.Payload)
		if err != nil {
			c.logger.Warn("Skipping malformed status record", loggingpkg.LogFields{
				"target":     target,
				"message_id": msg.UUID,
				"error":      err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrStatusNotFound
	}
	return records, nil
}

// receive takes at most one message from topic. The message is acked as
// soon as it is handed out, so a retrieval is destructive.
func (c *watermillConnection) receive(ctx context.Context, op, target, topic string) (*message.Message, error) {
	ch, err := c.subscription(topic)
	if err != nil {
		return nil, &TransportError{Op: op, Manager: c.manager, Target: target, Err: err}
	}

	timer := time.NewTimer(c.client.getWait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrNoMoreData
	case msg, ok := <-ch:
		if !ok {
			c.markBroken(topic)
			return nil, &TransportError{Op: op, Manager: c.manager, Target: target, Err: ErrConnectionClosed}
		}
		msg.Ack()
		return msg, nil
	}
}

func (c *watermillConnection) subscription(topic string) (<-chan *message.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, ErrNotConnected
	}
	if ch, ok := c.subs[topic]; ok {
		return ch, nil
	}
	ch, err := c.tr.Subscriber.Subscribe(c.ctx, topic)
	if err != nil {
		return nil, err
	}
	c.subs[topic] = ch
	return ch, nil
}

func (c *watermillConnection) markBroken(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, topic)
	c.connected = false
}

func (c *watermillConnection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected = false
	if c.closed {
		return nil
	}
	c.closed = true
	c.subs = make(map[string]<-chan *message.Message)
	c.cancel()
	if err := c.tr.Close(); err != nil {
		return &TransportError{Op: "disconnect", Manager: c.manager, Err: err}
	}
	c.logger.Debug("Disconnected from queue manager", nil)
	return nil
}

func (c *watermillConnection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
