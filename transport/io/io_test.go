package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
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
	assert.Equal(t, "io", caps.Name)
	assert.True(t, caps.SupportsOrdering)
	assert.True(t, caps.Durable)
	assert.Equal(t, transport.IOCapabilities, Capabilities())
}

func TestBuild(t *testing.T) {
	spool := filepath.Join(t.TempDir(), "queue.spool")

	t.Run("creates transport with custom file", func(t *testing.T) {
		tr, err := Build(context.Background(), &transporttest.Config{SpoolFile: spool}, watermill.NopLogger{})
		require.NoError(t, err)
		assert.NotNil(t, tr.Publisher)
		assert.NotNil(t, tr.Subscriber)
	})

	t.Run("uses custom publisher factory", func(t *testing.T) {
		originalFactory := PublisherFactory
		defer func() { PublisherFactory = originalFactory }()

		pub := &transporttest.Publisher{}
		PublisherFactory = func(filePath string, logger watermill.LoggerAdapter) (message.Publisher, error) {
			assert.Equal(t, spool, filePath)
			return pub, nil
		}

		tr, err := Build(context.Background(), &transporttest.Config{SpoolFile: spool}, watermill.NopLogger{})
		require.NoError(t, err)
		assert.Same(t, pub, tr.Publisher)
	})
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublishSubscribeFiltersByQueue(t *testing.T) {
	spool := filepath.Join(t.TempDir(), "queue.spool")
	pub, err := PublisherFactory(spool, watermill.NopLogger{})
	require.NoError(t, err)

	first := message.NewMessage("1", []byte("<BLOB>48656C6C6F</BLOB>"))
	first.Metadata.Set("mq_format", "MQSTR")
	require.NoError(t, pub.Publish("ERRORS", first))
	require.NoError(t, pub.Publish("EVENTS", message.NewMessage("2", []byte("event"))))
	require.NoError(t, pub.Publish("ERRORS", message.NewMessage("3", []byte("second"))))

	sub, err := NewSubscriber(spool, watermill.NopLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := sub.Subscribe(ctx, "ERRORS")
	require.NoError(t, err)

	msg := receive(t, ch)
	assert.Equal(t, "1", msg.UUID)
	assert.Equal(t, "MQSTR", msg.Metadata.Get("mq_format"))
	msg.Ack()

	msg = receive(t, ch)
	assert.Equal(t, "3", msg.UUID)
	msg.Ack()
}

func TestNackRedeliversSameMessage(t *testing.T) {
	spool := filepath.Join(t.TempDir(), "queue.spool")
	pub, err := PublisherFactory(spool, nil)
	require.NoError(t, err)
	require.NoError(t, pub.Publish("Q", message.NewMessage("1", []byte("x"))))

	sub, err := NewSubscriber(spool, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := sub.Subscribe(ctx, "Q")
	require.NoError(t, err)

	msg := receive(t, ch)
	msg.Nack()
	again := receive(t, ch)
	assert.Equal(t, msg.UUID, again.UUID)
	again.Ack()
}

func TestOffsetsSurviveReconnect(t *testing.T) {
	spool := filepath.Join(t.TempDir(), "queue.spool")
	pub, err := PublisherFactory(spool, nil)
	require.NoError(t, err)
	require.NoError(t, pub.Publish("Q", message.NewMessage("1", []byte("one")), message.NewMessage("2", []byte("two"))))

	sub, err := NewSubscriber(spool, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := sub.Subscribe(ctx, "Q")
	require.NoError(t, err)
	msg := receive(t, ch)
	require.Equal(t, "1", msg.UUID)
	msg.Ack()

	require.Eventually(t, func() bool {
		_, err := os.Stat(spool + OffsetSuffix)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	sub2, err := NewSubscriber(spool, nil)
	require.NoError(t, err)
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	ch2, err := sub2.Subscribe(ctx2, "Q")
	require.NoError(t, err)
	msg = receive(t, ch2)
	assert.Equal(t, "2", msg.UUID)
	msg.Ack()
}

func TestPartialLineWaitsForCompletion(t *testing.T) {
	spool := filepath.Join(t.TempDir(), "queue.spool")
	require.NoError(t, os.WriteFile(spool, []byte(`{"uuid":"1","topic":"Q","payload":"eA=="`), 0600))

	sub, err := NewSubscriber(spool, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := sub.Subscribe(ctx, "Q")
	require.NoError(t, err)

	select {
	case <-ch:
		t.Fatal("partial line must not be delivered")
	case <-time.After(150 * time.Millisecond):
	}

	f, err := os.OpenFile(spool, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString("}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	msg := receive(t, ch)
	assert.Equal(t, "x", string(msg.Payload))
	msg.Ack()
}

func TestLoadOffsetsRejectsCorruptFile(t *testing.T) {
	spool := filepath.Join(t.TempDir(), "queue.spool")
	require.NoError(t, os.WriteFile(spool+OffsetSuffix, []byte("{not json"), 0600))

	_, err := NewSubscriber(spool, nil)
	assert.Error(t, err)
}
