// Package http provides an HTTP transport. Its publisher forwards events to
// a collector endpoint; its subscriber accepts queue messages pushed to
// /<queue> on a local listener.
package http

import (
	"context"
	nethttp "net/http"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/mqflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "http"

// PublisherFactory allows overriding the publisher creation for testing.
var PublisherFactory = func(config http.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	return http.NewPublisher(config, logger)
}

// SubscriberFactory allows overriding the subscriber creation for testing.
var SubscriberFactory = func(addr string, config http.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	return http.NewSubscriber(addr, config, logger)
}

func init() {
	Register()
}

// Register registers the HTTP transport with the default registry.
func Register() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.HTTPCapabilities)
}

// Build creates a new HTTP transport.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	publisher, err := PublisherFactory(
		http.PublisherConfig{
			MarshalMessageFunc: MarshalMessageFunc(cfg.GetHTTPSinkURL(), cfg.GetCredentials()),
		},
		logger,
	)
	if err != nil {
		return transport.Transport{}, err
	}

	subscriber, err := SubscriberFactory(
		cfg.GetHTTPListenAddress(),
		http.SubscriberConfig{
			UnmarshalMessageFunc: http.DefaultUnmarshalMessageFunc,
		},
		logger,
	)
	if err != nil {
		_ = publisher.Close()
		return transport.Transport{}, err
	}

	return transport.Transport{
		Publisher:  publisher,
		Subscriber: &listeningSubscriber{Subscriber: subscriber, logger: logger},
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.HTTPCapabilities
}

// MarshalMessageFunc posts each message to baseURL/<topic>, authenticating
// with basic auth when creds are set.
func MarshalMessageFunc(baseURL string, creds transport.Credentials) http.MarshalMessageFunc {
	base := strings.TrimSuffix(baseURL, "/") + "/"
	return func(topic string, msg *message.Message) (*nethttp.Request, error) {
		req, err := http.DefaultMarshalMessageFunc(base+strings.TrimPrefix(topic, "/"), msg)
		if err != nil {
			return nil, err
		}
		if !creds.IsZero() {
			req.SetBasicAuth(creds.User, creds.Password)
		}
		return req, nil
	}
}

type httpServer interface {
	StartHTTPServer() error
}

// listeningSubscriber starts the HTTP listener after the first route has
// been registered.
type listeningSubscriber struct {
	message.Subscriber
	logger watermill.LoggerAdapter
	once   sync.Once
}

func (l *listeningSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch, err := l.Subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}
	l.once.Do(func() {
		server, ok := l.Subscriber.(httpServer)
		if !ok {
			return
		}
		go func() {
			if err := server.StartHTTPServer(); err != nil && err != nethttp.ErrServerClosed {
				l.logger.Error("Failed to start HTTP subscriber server", err, nil)
			}
		}()
	})
	return ch, nil
}
