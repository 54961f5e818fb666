package jetstream

import (
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/mqflow/transport"
)

func TestRegister(t *testing.T) {
	original := transport.DefaultRegistry
	defer func() { transport.DefaultRegistry = original }()

	transport.DefaultRegistry = transport.NewRegistry()
	Register()

	caps := transport.GetCapabilities(TransportName)
	assert.Equal(t, "nats-jetstream", caps.Name)
	assert.True(t, caps.PullBased)
	assert.True(t, caps.SupportsReliableDelivery())
	assert.Equal(t, transport.NATSJetStreamCapabilities, Capabilities())
}

func TestConfig_withDefaults(t *testing.T) {
	t.Run("empty config gets defaults", func(t *testing.T) {
		result := Config{}.withDefaults()

		assert.Equal(t, DefaultStreamName, result.StreamName)
		assert.Equal(t, "workqueue", result.RetentionPolicy)
		assert.Equal(t, DefaultMaxDeliver, result.MaxDeliver)
		assert.Equal(t, DefaultAckWait, result.AckWait)
		assert.Equal(t, DefaultFetchBatch, result.FetchBatch)
		assert.Equal(t, 1, result.Replicas)
	})

	t.Run("custom values preserved", func(t *testing.T) {
		cfg := Config{
			URL:             "nats://localhost:4222",
			StreamName:      "QM1",
			MaxDeliver:      2,
			AckWait:         time.Minute,
			FetchBatch:      1,
			Replicas:        3,
			RetentionPolicy: "limits",
		}
		assert.Equal(t, cfg, cfg.withDefaults())
	})
}

func TestStreamConfig(t *testing.T) {
	sc := streamConfig(Config{}.withDefaults())
	assert.Equal(t, "MQFLOW", sc.Name)
	assert.Equal(t, []string{"MQFLOW.>"}, sc.Subjects)
	assert.Equal(t, nats.WorkQueuePolicy, sc.Retention)

	assert.Equal(t, nats.InterestPolicy, streamConfig(Config{RetentionPolicy: "interest"}).Retention)
	assert.Equal(t, nats.LimitsPolicy, streamConfig(Config{RetentionPolicy: "limits"}).Retention)
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "MQFLOW.SYSTEM.ADMIN.CHANNEL.EVENT", SubjectFor("MQFLOW", "SYSTEM.ADMIN.CHANNEL.EVENT"))
	assert.Equal(t, "MQFLOW.MY_QUEUE", SubjectFor("MQFLOW", "MY QUEUE"))
	assert.Equal(t, "mqflow_SYSTEM_ADMIN_CHANNEL_EVENT", ConsumerFor("SYSTEM.ADMIN.CHANNEL.EVENT"))
}

func TestMessageConversion(t *testing.T) {
	msg := message.NewMessage("414d5120514d31", []byte("<BLOB>48656C6C6F</BLOB>"))
	msg.Metadata.Set("mq_format", "MQSTR")

	natsMsg := FromWatermill("MQFLOW.ERRORS", msg)
	assert.Equal(t, "MQFLOW.ERRORS", natsMsg.Subject)
	assert.Equal(t, "414d5120514d31", natsMsg.Header.Get(nats.MsgIdHdr))

	back := ToWatermill(natsMsg)
	assert.Equal(t, "414d5120514d31", back.UUID)
	assert.Equal(t, msg.Payload, back.Payload)
	assert.Equal(t, "MQSTR", back.Metadata.Get("mq_format"))
	assert.Empty(t, back.Metadata.Get(nats.MsgIdHdr))
}

func TestToWatermillGeneratesMissingID(t *testing.T) {
	back := ToWatermill(&nats.Msg{Data: []byte("x"), Header: nats.Header{}})
	assert.NotEmpty(t, back.UUID)
}

func TestNewReturnsConnectError(t *testing.T) {
	original := ConnectFactory
	defer func() { ConnectFactory = original }()

	ConnectFactory = func(url string, options ...nats.Option) (*nats.Conn, error) {
		assert.Len(t, options, 2)
		return nil, errors.New("no servers available")
	}

	_, err := New(Config{Credentials: transport.Credentials{User: "mqm"}}, watermill.NopLogger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jetstream: connect: no servers available")
}
