package handlers

import (
	"encoding/hex"

	idspkg "github.com/drblury/mqflow/internal/runtime/ids"
	"github.com/drblury/mqflow/internal/runtime/mqclient"
	"github.com/drblury/mqflow/internal/runtime/mqmd"
)

// Request is one handler invocation: a retrieved message, or the status
// records of one channel, plus where they came from.
type Request struct {
	Host    string
	Manager string
	Target  string

	Message *mqclient.RawMessage
	Status  []mqclient.StatusRecord
}

// Descriptor returns the message descriptor, or nil when absent.
func (r Request) Descriptor() *mqmd.Descriptor {
	if r.Message == nil {
		return nil
	}
	return r.Message.Descriptor
}

// Get retrieves a message metadata value by key.
func (r Request) Get(key string) string {
	if r.Message == nil {
		return ""
	}
	return r.Message.Metadata[key]
}

// Payload returns the message body.
func (r Request) Payload() []byte {
	if r.Message == nil {
		return nil
	}
	return r.Message.Payload
}

// MessageKey names archive files: the hex message id from the descriptor,
// falling back to the hex of the transport id, then to a fresh ULID.
func (r Request) MessageKey() string {
	if id := r.Descriptor().MsgIDHex(); id != "" {
		return id
	}
	if r.Message != nil && r.Message.ID != "" {
		return hex.EncodeToString([]byte(r.Message.ID))
	}
	return idspkg.CreateULID()
}
