package mqflow

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/mqflow/transport/channel"
)

func TestServiceOverDefaultChannelBroker(t *testing.T) {
	channel.ResetDefault()
	t.Cleanup(channel.ResetDefault)

	producer, err := NewProducer(channel.Default(nil).Publisher())
	require.NoError(t, err)
	require.NoError(t, producer.Put(context.Background(), "APP.IN", &RawMessage{
		Payload:    []byte("hello"),
		Descriptor: &Descriptor{Format: "MQSTR"},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		lines []string
	)
	collect := SinkFunc(func(_ context.Context, host, line string) error {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, host+" "+line)
		return nil
	})

	conf := &Config{
		Name:         "facade",
		Broker:       "channel",
		QueueManager: "QM1",
		Host:         "h1",
		Queues:       []string{"APP.IN"},
		HandlerArgs:  map[string]string{"include_mqmd": "true"},
	}
	svc, err := NewService(conf, NewSlogServiceLogger(slog.New(slog.DiscardHandler)), ctx, ServiceDependencies{
		Sink: collect,
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(lines) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.True(t, strings.HasPrefix(lines[0], "h1 "))
	assert.Contains(t, lines[0], `payload="hello"`)
	assert.Contains(t, lines[0], `Format="MQSTR"`)
}

func TestRetrieveExport(t *testing.T) {
	_, err := Retrieve(context.Background(), nil, RetrieveRequest{}, HandlerError, nil, nil)
	assert.ErrorIs(t, err, ErrNothingToRetrieve)
}

func TestConfigExports(t *testing.T) {
	assert.ErrorIs(t, ValidateConfig(nil), ErrConfigRequired)
	assert.Equal(t, []string{"A", "B"}, ParseList("A, B"))

	_, err := NewService(nil, DiscardLogger(), context.Background(), ServiceDependencies{})
	assert.ErrorIs(t, err, ErrConfigRequired)
}

func TestHandlerRegistryExport(t *testing.T) {
	names := NewHandlerRegistry().Names()
	for _, name := range []string{HandlerDefault, HandlerStatus, HandlerEvent, HandlerError} {
		assert.Contains(t, names, name)
	}
}

func TestExtractionExports(t *testing.T) {
	assert.Equal(t, 4, NormalizeLimit(3, 10))
	assert.Equal(t, "a.b", PrintableString("a\x00b"))

	rec := NewRecord(time.Time{}, "", "")
	rec.Add("k", "v")
	assert.Equal(t, `k="v"`, FormatRecord(rec))
	assert.Equal(t, "&lt;x&gt;", EscapeXML("<x>"))
}

func TestBuiltInTransportsRegistered(t *testing.T) {
	for _, name := range []string{"aws", "channel", "http", "io", "kafka", "nats", "nats-jetstream", "rabbitmq"} {
		assert.True(t, DefaultTransportRegistry.Has(name), name)
	}
	assert.Equal(t, "channel", GetCapabilities("channel").Name)
}

func TestEncodingExportAliases(t *testing.T) {
	payload := map[string]string{"hello": "world"}
	_, err := Marshal(payload)
	require.NoError(t, err)
	_, err = MarshalIndent(payload, "", "  ")
	require.NoError(t, err)
	require.NoError(t, Unmarshal([]byte(`{"hello":"world"}`), &payload))
}

func TestMetadataExport(t *testing.T) {
	md := NewMetadata("key", "value")
	assert.Equal(t, "value", md["key"])
}
