package transport_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/mqflow/transport"
	"github.com/drblury/mqflow/transport/transporttest"
)

func okBuilder(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	return transport.Transport{
		Publisher:  &transporttest.Publisher{},
		Subscriber: &transporttest.Subscriber{},
	}, nil
}

func TestNewRegistry(t *testing.T) {
	reg := transport.NewRegistry()
	assert.NotNil(t, reg)
	assert.Empty(t, reg.Names())
}

func TestRegistry_Register(t *testing.T) {
	reg := transport.NewRegistry()
	reg.Register("test-transport", okBuilder)

	assert.True(t, reg.Has("test-transport"))
	assert.Contains(t, reg.Names(), "test-transport")
}

func TestRegistry_RegisterWithCapabilities(t *testing.T) {
	reg := transport.NewRegistry()
	reg.RegisterWithCapabilities("test-transport", okBuilder, transport.Capabilities{
		Name:        "test-transport",
		SupportsAck: true,
		Durable:     true,
	})

	caps := reg.GetCapabilities("test-transport")
	assert.Equal(t, "test-transport", caps.Name)
	assert.True(t, caps.SupportsReliableDelivery())
}

func TestRegistry_GetCapabilities_Unknown(t *testing.T) {
	caps := transport.NewRegistry().GetCapabilities("unknown")
	assert.Equal(t, "unknown", caps.Name)
	assert.False(t, caps.SupportsAck)
	assert.False(t, caps.Durable)
}

func TestRegistry_Build(t *testing.T) {
	reg := transport.NewRegistry()
	reg.Register("test-transport", okBuilder)

	tr, err := reg.Build(context.Background(), &transporttest.Config{Broker: "test-transport"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, tr.Publisher)
	assert.NotNil(t, tr.Subscriber)
}

func TestRegistry_Build_NilLoggerBecomesNop(t *testing.T) {
	reg := transport.NewRegistry()
	reg.Register("test-transport", func(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
		assert.NotNil(t, logger)
		return transport.Transport{}, nil
	})

	_, err := reg.Build(context.Background(), &transporttest.Config{Broker: "test-transport"}, nil)
	require.NoError(t, err)
}

func TestRegistry_Build_NilConfig(t *testing.T) {
	_, err := transport.NewRegistry().Build(context.Background(), nil, nil)
	assert.ErrorIs(t, err, transport.ErrConfigRequired)
}

func TestRegistry_Build_UnknownTransport(t *testing.T) {
	reg := transport.NewRegistry()
	reg.Register("kafka", okBuilder)

	_, err := reg.Build(context.Background(), &transporttest.Config{Broker: "ibmmq"}, nil)
	require.ErrorIs(t, err, transport.ErrUnknownTransport)
	assert.Contains(t, err.Error(), `"ibmmq"`)
	assert.Contains(t, err.Error(), "[kafka]")
}

func TestRegistry_Build_BuilderError(t *testing.T) {
	reg := transport.NewRegistry()
	expectedErr := errors.New("dial refused")
	reg.Register("failing-transport", func(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
		return transport.Transport{}, expectedErr
	})

	_, err := reg.Build(context.Background(), &transporttest.Config{Broker: "failing-transport"}, nil)
	require.ErrorIs(t, err, expectedErr)
	assert.Equal(t, "transport failing-transport: dial refused", err.Error())
}

func TestRegistry_NamesSorted(t *testing.T) {
	reg := transport.NewRegistry()
	reg.Register("rabbitmq", okBuilder)
	reg.Register("aws", okBuilder)
	reg.Register("kafka", okBuilder)

	assert.Equal(t, []string{"aws", "kafka", "rabbitmq"}, reg.Names())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := transport.NewRegistry()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				reg.Register("transport", okBuilder)
				reg.Has("transport")
				reg.Names()
				reg.GetCapabilities("transport")
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.True(t, reg.Has("transport"))
}

func TestPackageLevelRegisterWithCapabilities(t *testing.T) {
	transport.RegisterWithCapabilities("test-pkg-caps-transport", okBuilder, transport.Capabilities{
		Name:      "test-pkg-caps-transport",
		PullBased: true,
	})

	assert.True(t, transport.DefaultRegistry.Has("test-pkg-caps-transport"))
	assert.True(t, transport.GetCapabilities("test-pkg-caps-transport").PullBased)

	_, err := transport.Build(context.Background(), &transporttest.Config{Broker: "nonexistent"}, nil)
	assert.ErrorIs(t, err, transport.ErrUnknownTransport)
}
