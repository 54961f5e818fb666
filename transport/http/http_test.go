package http

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	watermillhttp "github.com/ThreeDotsLabs/watermill-http/v2/pkg/http"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/mqflow/transport"
	"github.com/drblury/mqflow/transport/transporttest"
)

func TestRegister(t *testing.T) {
	original := transport.DefaultRegistry
	defer func() { transport.DefaultRegistry = original }()

	transport.DefaultRegistry = transport.NewRegistry()
	Register()

	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "http", caps.Name)
	assert.True(t, caps.RequiresListener)
	assert.Equal(t, transport.HTTPCapabilities, Capabilities())
}

type startableSubscriber struct {
	transporttest.Subscriber
	started chan struct{}
}

func (s *startableSubscriber) StartHTTPServer() error {
	close(s.started)
	return nil
}

func swapFactories(t *testing.T) {
	t.Helper()
	originalPub := PublisherFactory
	originalSub := SubscriberFactory
	t.Cleanup(func() {
		PublisherFactory = originalPub
		SubscriberFactory = originalSub
	})
}

func TestBuild(t *testing.T) {
	t.Run("starts listener on first subscribe", func(t *testing.T) {
		swapFactories(t)

		pub := &transporttest.Publisher{}
		sub := &startableSubscriber{started: make(chan struct{})}
		PublisherFactory = func(config watermillhttp.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			assert.NotNil(t, config.MarshalMessageFunc)
			return pub, nil
		}
		SubscriberFactory = func(addr string, config watermillhttp.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			assert.Equal(t, ":8089", addr)
			return sub, nil
		}

		cfg := &transporttest.Config{HTTPListenAddress: ":8089", HTTPSinkURL: "http://collector:8088/services/collector"}
		tr, err := Build(context.Background(), cfg, watermill.NopLogger{})
		require.NoError(t, err)
		assert.Same(t, pub, tr.Publisher)

		_, err = tr.Subscriber.Subscribe(context.Background(), "ERRORS")
		require.NoError(t, err)
		<-sub.started

		_, err = tr.Subscriber.Subscribe(context.Background(), "EVENTS")
		require.NoError(t, err)
	})

	t.Run("returns publisher error", func(t *testing.T) {
		swapFactories(t)
		PublisherFactory = func(config watermillhttp.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return nil, errors.New("publisher error")
		}

		_, err := Build(context.Background(), &transporttest.Config{}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "publisher error")
	})

	t.Run("closes publisher on subscriber error", func(t *testing.T) {
		swapFactories(t)
		pub := &transporttest.Publisher{}
		PublisherFactory = func(config watermillhttp.PublisherConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
			return pub, nil
		}
		SubscriberFactory = func(addr string, config watermillhttp.SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
			return nil, errors.New("subscriber error")
		}

		_, err := Build(context.Background(), &transporttest.Config{}, watermill.NopLogger{})
		assert.ErrorContains(t, err, "subscriber error")
		assert.True(t, pub.Closed)
	})
}

func TestMarshalMessageFunc(t *testing.T) {
	marshal := MarshalMessageFunc("http://collector:8088/events/", transport.Credentials{User: "hec", Password: "token"})

	req, err := marshal("mq_errors", message.NewMessage("1", []byte(`host=qm1 line`)))
	require.NoError(t, err)
	assert.Equal(t, "http://collector:8088/events/mq_errors", req.URL.String())

	user, pass, ok := req.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "hec", user)
	assert.Equal(t, "token", pass)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "host=qm1 line", string(body))

	req, err = MarshalMessageFunc("http://collector", transport.Credentials{})("events", message.NewMessage("2", nil))
	require.NoError(t, err)
	_, _, ok = req.BasicAuth()
	assert.False(t, ok)
	assert.Equal(t, "http://collector/events", req.URL.String())
}
