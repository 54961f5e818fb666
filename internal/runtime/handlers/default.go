package handlers

import (
	"context"

	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/internal/runtime/extract"
	loggingpkg "github.com/drblury/mqflow/internal/runtime/logging"
	"github.com/drblury/mqflow/internal/runtime/mqmd"
)

// DefaultPayloadLimit is the number of payload bytes kept by default.
const DefaultPayloadLimit = 1024

// DefaultOptions configure the default handler.
type DefaultOptions struct {
	// PayloadLimit keeps the first n payload bytes; zero or less keeps all.
	PayloadLimit     int
	IncludeMQMD      bool
	PrettyMQMD       bool
	UseMQMDPutTime   bool
	EncodePayload    extract.Encoding
	MQMDPrintable    bool
	PayloadPrintable bool
}

// ParseDefaultOptions reads payload_limit, include_mqmd, pretty_mqmd,
// use_mqmd_puttime, encode_payload, make_mqmd_printable and
// make_payload_printable.
func ParseDefaultOptions(o Options) (DefaultOptions, error) {
	p := optionParser{opts: o}
	opts := DefaultOptions{
		PayloadLimit:     p.int("payload_limit", DefaultPayloadLimit),
		IncludeMQMD:      p.bool("include_mqmd", false),
		PrettyMQMD:       p.bool("pretty_mqmd", false),
		UseMQMDPutTime:   p.bool("use_mqmd_puttime", false),
		EncodePayload:    p.encoding("encode_payload", extract.EncodingNone),
		MQMDPrintable:    p.bool("make_mqmd_printable", false),
		PayloadPrintable: p.bool("make_payload_printable", false),
	}
	return opts, p.err()
}

// DefaultHandler writes one record per message with the queue, optionally
// the descriptor, and the (truncated, encoded) payload.
type DefaultHandler struct {
	base
	opts DefaultOptions
}

// NewDefaultHandler builds a default handler.
func NewDefaultHandler(o Options, deps Deps) (*DefaultHandler, error) {
	if deps.Sink == nil {
		return nil, errspkg.ErrSinkRequired
	}
	opts, err := ParseDefaultOptions(o)
	if err != nil {
		return nil, err
	}
	return &DefaultHandler{base: newBase(NameDefault, KindQueue, deps), opts: opts}, nil
}

func (h *DefaultHandler) Handle(ctx context.Context, req Request) error {
	desc := req.Descriptor()

	ts := h.now()
	if h.opts.UseMQMDPutTime {
		if put, ok := desc.PutTimestamp(); ok {
			ts = put
		} else {
			h.logger(req).Debug("Message has no put time, using current time", nil)
		}
	}

	r := h.record(ts, req, "queue")
	if h.opts.IncludeMQMD && desc != nil {
		for _, f := range desc.Fields(mqmd.FieldOptions{Pretty: h.opts.PrettyMQMD, Printable: h.opts.MQMDPrintable}) {
			r.Add(f.Name, f.Value)
		}
	}
	r.Add("payload", h.payload(req))

	return h.emit(ctx, req, r)
}

func (h *DefaultHandler) payload(req Request) string {
	data := req.Payload()
	if h.opts.PayloadLimit > 0 && len(data) > h.opts.PayloadLimit {
		data = data[:h.opts.PayloadLimit]
	}

	if h.opts.EncodePayload != extract.EncodingNone {
		encoded, err := extract.Encode(data, h.opts.EncodePayload)
		if err == nil {
			return string(encoded)
		}
		h.logger(req).Warn("Failed to encode payload, writing it printable", loggingpkg.LogFields{"error": err.Error()})
		return extract.Printable(data)
	}
	if h.opts.PayloadPrintable {
		return extract.Printable(data)
	}
	return string(data)
}
