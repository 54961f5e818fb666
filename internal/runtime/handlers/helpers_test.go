package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/drblury/mqflow/internal/runtime/logging/loggingtest"
	"github.com/drblury/mqflow/internal/runtime/metadata"
	"github.com/drblury/mqflow/internal/runtime/mqclient"
	"github.com/drblury/mqflow/internal/runtime/mqmd"
	"github.com/drblury/mqflow/internal/runtime/sink"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

const header = "[2024-05-06 07:08:09.000 +0000] host1 mqinput(test): "

type fixture struct {
	sink *sink.Memory
	log  *loggingtest.Recorder
	deps Deps
}

func newFixture() *fixture {
	mem := &sink.Memory{}
	log := loggingtest.New()
	return &fixture{
		sink: mem,
		log:  log,
		deps: Deps{
			Sink:     mem,
			Logger:   log,
			Source:   "mqinput(test)",
			Now:      func() time.Time { return fixedNow },
			Location: time.UTC,
		},
	}
}

func (f *fixture) lines(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, l := range f.sink.Lines() {
		require.Equal(t, "host1", l.Host)
		out = append(out, l.Line)
	}
	return out
}

func (f *fixture) only(t *testing.T) string {
	t.Helper()
	lines := f.lines(t)
	require.Len(t, lines, 1)
	return lines[0]
}

func newMessage(payload string, pairs ...string) *mqclient.RawMessage {
	md := metadata.New(pairs...)
	return &mqclient.RawMessage{
		ID:         "id-1",
		Payload:    []byte(payload),
		Descriptor: mqmd.FromMetadata(md),
		Metadata:   md,
	}
}

func queueRequest(target string, msg *mqclient.RawMessage) Request {
	return Request{Host: "host1", Manager: "QM1", Target: target, Message: msg}
}

func handle(t *testing.T, h Handler, req Request) {
	t.Helper()
	require.NoError(t, h.Handle(context.Background(), req))
}
