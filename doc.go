// Package mqflow polls message queues and channel status on a queue manager
// and turns every message or status record into one key="value" event line.
// The queue manager is reached through a Watermill transport selected in
// Config (Kafka, RabbitMQ, AWS SNS/SQS, NATS, NATS JetStream, HTTP, I/O, or
// Go channels), so the same pipeline runs against a real broker in
// production and an in-memory broker in tests.
//
// A minimal setup fills Config, creates a Service with NewService and calls
// Start. The Service starts one or more pollers per input. Each poller
// connects, drains its targets through the configured handler, writes the
// resulting records to the sink and sleeps until the next cycle. Pollers of
// the same input coordinate through liveness tokens: starting a new
// generation makes the older one stop at its next check.
//
// # Handlers
//
// Four handlers ship with the package:
//   - default: one line per message with the payload and optional MQMD fields
//   - status: one line per channel status record, with symbolic values
//   - event: flattens monitoring event XML into fields and archives the event
//   - error: archives broker exception lists and extracts the embedded blob
//
// Handler options are given as key=value pairs in Config.HandlerArgs.
// Retrieve re-runs the error and event extraction on an archived message or
// a blob store copy.
//
// # Sinks
//
// By default event lines go to stdout wrapped in a <stream> envelope. Setting
// Config.SinkTopic publishes them through the broker instead.
//
// # Observability
//
// Logging goes through ServiceLogger, usually backed by log/slog. With
// Config.MetricsEnabled the pollers report Prometheus counters, and
// Config.MetricsPort exposes /metrics together with the /api/pollers and
// /api/targets status endpoints.
package mqflow
