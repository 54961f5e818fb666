package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drblury/mqflow/internal/runtime/mqclient"
	"github.com/drblury/mqflow/internal/runtime/mqmd"
)

func TestMessageKey(t *testing.T) {
	withDescriptor := Request{Message: &mqclient.RawMessage{ID: "id-1", Descriptor: &mqmd.Descriptor{MsgID: []byte{0xc0, 0xff, 0xee}}}}
	assert.Equal(t, "c0ffee", withDescriptor.MessageKey())

	transportOnly := Request{Message: &mqclient.RawMessage{ID: "ab"}}
	assert.Equal(t, "6162", transportOnly.MessageKey())
}

func TestMessageKeyWithoutIDsIsUnique(t *testing.T) {
	anonymous := Request{Message: &mqclient.RawMessage{Payload: []byte("x")}}

	first, second := anonymous.MessageKey(), anonymous.MessageKey()
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	assert.NotEmpty(t, Request{}.MessageKey())
}
