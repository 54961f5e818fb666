package transports

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drblury/mqflow/transport"
)

func TestBuiltInTransportsRegistered(t *testing.T) {
	for _, name := range []string{"aws", "channel", "http", "io", "kafka", "nats", "nats-jetstream", "rabbitmq"} {
		assert.True(t, transport.DefaultRegistry.Has(name), name)
		assert.Equal(t, name, transport.GetCapabilities(name).Name)
	}
}
