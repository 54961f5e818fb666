// Package mqclient is the queue client the pollers talk to: a connection
// per poller that yields one message or status query result at a time.
package mqclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ThreeDotsLabs/watermill/message"

	idspkg "github.com/drblury/mqflow/internal/runtime/ids"
	jsoncodec "github.com/drblury/mqflow/internal/runtime/jsoncodec"
	metadatapkg "github.com/drblury/mqflow/internal/runtime/metadata"
	"github.com/drblury/mqflow/internal/runtime/mqmd"
	"github.com/drblury/mqflow/transport"
)

var (
	// ErrNoMoreData ends the drain of a target. It is not a failure.
	ErrNoMoreData = errors.New("mqflow: no more messages available")
	// ErrUnknownObject is returned when the queried object does not exist.
	ErrUnknownObject = errors.New("mqflow: unknown object name")
	// ErrStatusNotFound is returned when a status query matched nothing.
	ErrStatusNotFound = errors.New("mqflow: no status found")
	// ErrNotConnected is returned by operations on a closed connection.
	ErrNotConnected = errors.New("mqflow: connection is not open")
)

// Client opens connections to a queue manager.
type Client interface {
	Connect(ctx context.Context, manager string, creds transport.Credentials) (Connection, error)
}

// Connection is owned by exactly one poller and never shared.
type Connection interface {
	// GetNext performs one retrieval from target, returning ErrNoMoreData
	// when the target is drained.
	GetNext(ctx context.Context, target string) (*RawMessage, error)
	// InquireStatus returns the current status records for target.
	InquireStatus(ctx context.Context, target string) ([]StatusRecord, error)
	Disconnect() error
	IsConnected() bool
}

// RawMessage is one retrieved message. It is handed to a single handler
// invocation and not modified afterwards.
type RawMessage struct {
	ID         string
	Payload    []byte
	Descriptor *mqmd.Descriptor
	Metadata   metadatapkg.Metadata
}

// NewRawMessage converts a watermill message, reading the descriptor from
// its mq_* metadata.
func NewRawMessage(msg *message.Message) *RawMessage {
	md := metadatapkg.FromWatermill(msg.Metadata)
	return &RawMessage{
		ID:         msg.UUID,
		Payload:    msg.Payload,
		Descriptor: mqmd.FromMetadata(md),
		Metadata:   md,
	}
}

// ToWatermill is the inverse of NewRawMessage, used to put messages onto a
// transport.
func (m *RawMessage) ToWatermill() *message.Message {
	id := m.ID
	if id == "" {
		id = idspkg.CreateULID()
	}
	md := m.Metadata.Clone()
	if m.Descriptor != nil {
		md = md.WithAll(m.Descriptor.Metadata())
	}
	msg := message.NewMessage(id, m.Payload)
	msg.Metadata = metadatapkg.ToWatermill(md)
	return msg
}

// StatusRecord is one status query result keyed by parameter code. Values
// are int64, string, []int64 or []string.
type StatusRecord map[int32]any

// DecodeStatusRecord parses a JSON object whose keys are decimal parameter
// codes.
func DecodeStatusRecord(payload []byte) (StatusRecord, error) {
	var raw map[string]any
	if err := jsoncodec.UnmarshalInt64(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status record: %w", err)
	}

	rec := make(StatusRecord, len(raw))
	for key, value := range raw {
		code, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("status record: parameter code %q: %w", key, err)
		}
		rec[int32(code)] = normalizeStatusValue(value)
	}
	return rec, nil
}

// Encode renders the record as the JSON object DecodeStatusRecord reads.
func (r StatusRecord) Encode() ([]byte, error) {
	raw := make(map[string]any, len(r))
	for code, value := range r {
		raw[strconv.FormatInt(int64(code), 10)] = value
	}
	return jsoncodec.Marshal(raw)
}

func normalizeStatusValue(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	ints := make([]int64, 0, len(list))
	strs := make([]string, 0, len(list))
	for _, item := range list {
		switch x := item.(type) {
		case int64:
			ints = append(ints, x)
		case string:
			strs = append(strs, x)
		}
	}
	switch {
	case len(ints) == len(list):
		return ints
	case len(strs) == len(list):
		return strs
	}
	return v
}

// TransportError is a connection level failure. Pollers tear the connection
// down and retry on the next cycle.
type TransportError struct {
	Op      string
	Manager string
	Target  string
	Err     error
}

func (e *TransportError) Error() string {
	where := e.Manager
	if e.Target != "" {
		where += "/" + e.Target
	}
	return fmt.Sprintf("mqflow: transport %s %s: %v", e.Op, where, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err carries a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
