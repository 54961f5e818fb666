package sink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/transport/transporttest"
)

func TestStreamWriterWritesOneEnvelopePerLine(t *testing.T) {
	var buf bytes.Buffer
	w := NewStreamWriter(&buf)

	require.NoError(t, w.Emit(context.Background(), "h1", `queue="Q1" payload="a<b"`))
	require.NoError(t, w.WithStanza("mqinput://orders").Emit(context.Background(), "h2", "x=1"))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `<stream><event><data>queue=&quot;Q1&quot; payload=&quot;a&lt;b&quot;</data><host>h1</host></event></stream>`, lines[0])
	assert.Equal(t, `<stream><event stanza="mqinput://orders"><data>x=1</data><host>h2</host></event></stream>`, lines[1])
}

func TestStreamWriterStopsOnCancelledContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewStreamWriter(&buf).Emit(ctx, "h", "x=1"), context.Canceled)
	assert.Zero(t, buf.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStreamWriterWrapsWriteErrors(t *testing.T) {
	err := NewStreamWriter(failingWriter{}).Emit(context.Background(), "h", "x=1")
	assert.ErrorContains(t, err, "disk full")
}

func TestNewPublisherSinkValidates(t *testing.T) {
	_, err := NewPublisherSink(nil, "events", "")
	assert.ErrorIs(t, err, errspkg.ErrPublisherRequired)

	_, err = NewPublisherSink(&transporttest.Publisher{}, "", "")
	assert.ErrorIs(t, err, errspkg.ErrTopicRequired)
}

func TestPublisherSinkPublishesEnvelope(t *testing.T) {
	pub := &transporttest.Publisher{}
	s, err := NewPublisherSink(pub, "events", "")
	require.NoError(t, err)

	require.NoError(t, s.Emit(context.Background(), "h1", "x=1"))

	msgs := pub.Messages("events")
	require.Len(t, msgs, 1)
	assert.Equal(t, "<stream><event><data>x=1</data><host>h1</host></event></stream>", string(msgs[0].Payload))
	assert.Equal(t, "h1", msgs[0].Metadata.Get(MetadataKeyHost))
	assert.NotEmpty(t, msgs[0].UUID)
}

func TestPublisherSinkWrapsPublishError(t *testing.T) {
	pub := &transporttest.Publisher{Err: errors.New("broker down")}
	s, err := NewPublisherSink(pub, "events", "")
	require.NoError(t, err)

	assert.ErrorContains(t, s.Emit(context.Background(), "h", "x=1"), "broker down")
}

func TestMultiJoinsErrors(t *testing.T) {
	mem := &Memory{}
	failing := Func(func(context.Context, string, string) error { return errors.New("nope") })

	err := Multi{mem, failing}.Emit(context.Background(), "h", "x=1")
	assert.ErrorContains(t, err, "nope")
	assert.Equal(t, []Line{{Host: "h", Line: "x=1"}}, mem.Lines())

	mem.Reset()
	assert.Empty(t, mem.Lines())
}
