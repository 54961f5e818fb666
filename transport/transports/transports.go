// Package transports imports every built-in transport so they register with
// the default registry.
package transports

import (
	_ "github.com/drblury/mqflow/transport/aws"
	_ "github.com/drblury/mqflow/transport/channel"
	_ "github.com/drblury/mqflow/transport/http"
	_ "github.com/drblury/mqflow/transport/io"
	_ "github.com/drblury/mqflow/transport/jetstream"
	_ "github.com/drblury/mqflow/transport/kafka"
	_ "github.com/drblury/mqflow/transport/nats"
	_ "github.com/drblury/mqflow/transport/rabbitmq"
)
