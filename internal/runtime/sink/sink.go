// Package sink delivers formatted record lines to the log platform.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/internal/runtime/format"
	idspkg "github.com/drblury/mqflow/internal/runtime/ids"
)

// MetadataKeyHost carries the event host on published envelopes.
const MetadataKeyHost = "mqflow_host"

// Sink receives one formatted record line per call. Lines are unescaped;
// each sink applies its own envelope.
type Sink interface {
	Emit(ctx context.Context, host, line string) error
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, host, line string) error

func (f Func) Emit(ctx context.Context, host, line string) error {
	return f(ctx, host, line)
}

func envelope(stanza, host, line string) string {
	if stanza != "" {
		return format.StanzaEnvelope(stanza, host, line)
	}
	return format.Envelope(host, line)
}

// StreamWriter writes one stream envelope per line to w. It is safe for
// concurrent use by several pollers.
type StreamWriter struct {
	mu     sync.Mutex
	w      io.Writer
	stanza string
}

// NewStreamWriter returns a writer emitting single-instance envelopes.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WithStanza returns a writer on the same stream that tags events with stanza.
func (s *StreamWriter) WithStanza(stanza string) *StreamWriter {
	return &StreamWriter{w: s.w, stanza: stanza}
}

func (s *StreamWriter) Emit(ctx context.Context, host, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := envelope(s.stanza, host, line) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, out); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// PublisherSink publishes every envelope as a message on a broker topic.
type PublisherSink struct {
	publisher message.Publisher
	topic     string
	stanza    string
}

// NewPublisherSink returns a sink publishing to topic.
func NewPublisherSink(publisher message.Publisher, topic, stanza string) (*PublisherSink, error) {
	if publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	return &PublisherSink{publisher: publisher, topic: topic, stanza: stanza}, nil
}

func (p *PublisherSink) Emit(ctx context.Context, host, line string) error {
	msg := message.NewMessage(idspkg.CreateULID(), []byte(envelope(p.stanza, host, line)))
	msg.Metadata.Set(MetadataKeyHost, host)
	if ctx != nil {
		msg.SetContext(ctx)
	}
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", p.topic, err)
	}
	return nil
}

// Multi emits to every sink, joining their errors.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, host, line string) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, host, line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Line is one emitted record.
type Line struct {
	Host string
	Line string
}

// Memory keeps every emitted line. Used by tests and dry runs.
type Memory struct {
	mu    sync.Mutex
	lines []Line
}

func (m *Memory) Emit(ctx context.Context, host, line string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, Line{Host: host, Line: line})
	return nil
}

// Lines returns a copy of the emitted lines.
func (m *Memory) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Line(nil), m.lines...)
}

// Reset drops the emitted lines.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
}
