/*
Package runtime wires the queue polling pipeline of mqflow together.

# Architecture Overview

An input is described by a config.Config. Service turns it into poller
groups: one group for all targets, or one per target when ProcessPerQueue is
set, each running NumberOfProcesses pollers. Every poller owns a handler
instance built from the handlers registry and shares the queue client, the
sink and the optional blob store of the service.

	queue client -> poller -> handler -> format.Record -> sink

# Package Structure

## Core Service (service.go)

The Service struct builds the queue client, sink, blob store and metrics,
starts the pollers under an errgroup and serves /metrics together with the
status endpoints of webui.go.

## Publishing (publisher.go)

Producer puts messages and status records onto a broker. The queue client
reads them back through the same transport.

## Retrieval (retrieve.go)

Retrieve re-runs the error and event extraction on an archived message file
or a blob store copy.

# Sub-packages

  - archive/: per-message files written by the error and event handlers
  - blobstore/: Redis backed store for payloads kept out of band
  - config/: input configuration with validation
  - describe/: symbolic names for numeric MQ constants
  - errors/: sentinel errors and error types
  - extract/: span location and payload transcoding
  - format/: key="value" records and sink envelopes
  - handlers/: the default, status, event and error handlers
  - ids/: ULID generation for message ids and liveness generations
  - jsoncodec/: JSON marshaling utilities
  - logging/: logger interface and adapters
  - metadata/: message metadata utilities
  - metrics/: per-target counters and their Prometheus collectors
  - mqclient/: queue manager client on top of a Watermill transport
  - mqmd/: the message descriptor carried as mq_* metadata
  - poller/: the poll-and-dispatch loop and liveness tokens
  - sink/: event line destinations

# Usage Example

	cfg := &mqflow.Config{
		Name:         "input1",
		Broker:       "nats",
		NATSURL:      "nats://localhost:4222",
		QueueManager: "QM1",
		Queues:       []string{"APP.EVENTS"},
		Handler:      "event",
		HandlerArgs:  map[string]string{"write_events": "true"},
	}

	svc, err := mqflow.NewService(cfg, logger, ctx, mqflow.ServiceDependencies{})
	if err != nil {
		return err
	}
	return svc.Start(ctx)
*/
package runtime
