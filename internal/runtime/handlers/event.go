package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/drblury/mqflow/internal/runtime/archive"
	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/internal/runtime/extract"
	"github.com/drblury/mqflow/internal/runtime/format"
	loggingpkg "github.com/drblury/mqflow/internal/runtime/logging"
)

const (
	// DefaultEventsFolder is the archive root for broker events.
	DefaultEventsFolder = "/opt/splunk/esb/brokerevents"
	// EventFilePrefix and EventFileExt name archived events.
	EventFilePrefix = "BrokerEvent_"
	EventFileExt    = ".xml"

	// BitstreamOpen prefixes the opening tag of the captured message bytes;
	// the tag carries a wmb:encoding attribute.
	BitstreamOpen  = "<wmb:bitstream "
	BitstreamClose = "</wmb:bitstream>"
	eventMarker    = ":event"
)

// EventOptions configure the broker event handler.
type EventOptions struct {
	IncludeComplexTopLevel bool
	IncludeBitstream       bool
	BitstreamLimit         int
	DecodeBitstream        bool
	BitstreamCCSID         int
	WriteEvents            bool
	GzipEvents             bool
	EventsFolder           string
	UseEventTime           bool

	// ExcludeEvent and ExtractBitstream shape Retrieve results: the event
	// text is left out, and the bitstream is returned as its own field.
	ExcludeEvent     bool
	ExtractBitstream bool
}

// ParseEventOptions reads include_complex_top_level, include_bitstream,
// bitstream_limit, decode_bitstream, bitstream_ccsid, write_events,
// gzip_events, write_events_folder, use_event_time, exclude_event and
// extract_bitstream.
func ParseEventOptions(o Options) (EventOptions, error) {
	p := optionParser{opts: o}
	opts := EventOptions{
		IncludeComplexTopLevel: p.bool("include_complex_top_level", false),
		IncludeBitstream:       p.bool("include_bitstream", false),
		BitstreamLimit:         p.int("bitstream_limit", 0),
		DecodeBitstream:        p.bool("decode_bitstream", false),
		BitstreamCCSID:         p.int("bitstream_ccsid", extract.CCSIDUTF8),
		WriteEvents:            p.bool("write_events", true),
		GzipEvents:             p.bool("gzip_events", true),
		EventsFolder:           p.string("write_events_folder", DefaultEventsFolder),
		UseEventTime:           p.bool("use_event_time", true),
		ExcludeEvent:           p.bool("exclude_event", false),
		ExtractBitstream:       p.bool("extract_bitstream", false),
	}
	return opts, p.err()
}

// EventHandler writes one record per broker monitoring event, pulling the
// flow, node and application data out of the event document.
type EventHandler struct {
	base
	opts    EventOptions
	archive *archive.Writer
}

// NewEventHandler builds a broker event handler.
func NewEventHandler(o Options, deps Deps) (*EventHandler, error) {
	if deps.Sink == nil {
		return nil, errspkg.ErrSinkRequired
	}
	opts, err := ParseEventOptions(o)
	if err != nil {
		return nil, err
	}
	h := &EventHandler{base: newBase(NameEvent, KindQueue, deps), opts: opts}
	if opts.WriteEvents {
		h.archive = &archive.Writer{
			Root:   opts.EventsFolder,
			Prefix: EventFilePrefix,
			Ext:    EventFileExt,
			Gzip:   opts.GzipEvents,
			Now:    h.deps.Now,
		}
	}
	return h, nil
}

// EventRoot cuts everything before the element whose name ends in ":event".
func EventRoot(data string) string {
	i := strings.Index(data, eventMarker)
	if i < 0 {
		return data
	}
	start := strings.LastIndex(data[:i], "<")
	if start < 0 {
		return data
	}
	return data[start:]
}

func (h *EventHandler) Handle(ctx context.Context, req Request) error {
	log := h.logger(req)
	doc := EventRoot(string(req.Payload()))
	log.Debug("Processing broker event", loggingpkg.LogFields{"length": len(doc)})

	fileName := ""
	if h.archive != nil {
		name, err := h.archive.Write(req.Manager, req.Target, req.MessageKey(), []byte(doc))
		if err != nil {
			log.Error("Failed to write event message", err, nil)
		} else {
			fileName = name
		}
	}

	ts := h.now()
	fields, eventTime, err := h.parse(doc, log)
	if err != nil {
		log.Error("Failed to process broker event", err, nil)
		r := h.record(ts, req, "queue")
		if fileName != "" {
			r.Add("event_file_name", fileName)
		}
		r.Add("error", "Exception occurred while processing event. Exception Text: "+err.Error())
		return h.emit(ctx, req, r)
	}

	if h.opts.UseEventTime && !eventTime.IsZero() {
		ts = eventTime
	}
	r := h.record(ts, req, "queue")
	for _, f := range fields {
		r.Add(f.Name, f.Value)
	}
	if fileName != "" {
		r.Add("event_file_name", fileName)
	}
	return h.emit(ctx, req, r)
}

// parse extracts the record fields and creation time of one event.
func (h *EventHandler) parse(doc string, log loggingpkg.ServiceLogger) ([]format.Field, time.Time, error) {
	root, err := parseXML(doc)
	if err != nil {
		return nil, time.Time{}, err
	}

	var eventTime time.Time
	if created, ok := root.find("eventSequence").attr("creationTime"); ok {
		t, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			log.Warn("Ignoring malformed event creation time", loggingpkg.LogFields{"creation_time": created})
		} else {
			eventTime = t
		}
	}

	var fields []format.Field
	add := func(name, value string) {
		fields = append(fields, format.Field{Name: name, Value: value})
	}

	flow := root.find("messageFlowData")
	if v, ok := flow.child("broker").attr("name"); ok {
		add("broker", v)
	}
	if v, ok := flow.child("executionGroup").attr("name"); ok {
		add("execgroup", v)
	}
	if v, ok := flow.child("messageFlow").attr("name"); ok {
		add("flow", v)
	}
	if node := flow.child("node"); node != nil {
		for _, a := range [][2]string{{"nodeLabel", "node"}, {"nodeType", "node_type"}, {"terminal", "node_terminal"}} {
			if v, ok := node.attr(a[0]); ok {
				add(a[1], v)
			}
		}
	}

	for _, app := range root.findAll("applicationData") {
		for _, cc := range app.children {
			if cc.name != "complexContent" {
				continue
			}
			top, _ := cc.attr("elementName")
			for _, c := range cc.children {
				c.flatten(func(path []string, value string) {
					if !h.opts.IncludeComplexTopLevel && len(path) > 1 && path[0] == top {
						path = path[1:]
					}
					add(strings.Join(path, "."), value)
				})
			}
		}
		for _, sc := range app.children {
			if sc.name != "simpleContent" {
				continue
			}
			name, _ := sc.attr("name")
			value, ok := sc.attr("value")
			if ok && name != "" {
				add(name, strings.TrimSpace(value))
			}
		}
	}

	if h.opts.IncludeBitstream {
		if bs, ok := h.bitstream(doc, log); ok {
			add("bitstream", bs)
		}
	}
	return fields, eventTime, nil
}

func (h *EventHandler) bitstream(doc string, log loggingpkg.ServiceLogger) (string, bool) {
	return ExtractBitstream(doc, BitstreamOptions{
		Limit:  h.opts.BitstreamLimit,
		Decode: h.opts.DecodeBitstream,
		CCSID:  h.opts.BitstreamCCSID,
	}, log)
}

// BitstreamOptions drive ExtractBitstream.
type BitstreamOptions struct {
	Limit int
	// Decode applies the wmb:encoding attribute, then the code page and the
	// printable filter.
	Decode bool
	CCSID  int
}

// ExtractBitstream returns the wmb:bitstream content of an event document.
// An unterminated bitstream is logged and yields nothing.
func ExtractBitstream(doc string, opts BitstreamOptions, log loggingpkg.ServiceLogger) (string, bool) {
	b, err := extract.FindOpen(doc, BitstreamOpen, BitstreamClose)
	if errors.Is(err, extract.ErrUnterminated) {
		loggingpkg.OrDiscard(log).Warn("Malformed event, unterminated bitstream", loggingpkg.LogFields{"start_tag": BitstreamOpen, "end_tag": BitstreamClose})
	}
	if err != nil {
		return "", false
	}

	spec := extract.Spec{Limit: opts.Limit, Include: true}
	if opts.Decode {
		if enc, ok := extract.Attr(doc[b.TagStart:b.Start], "wmb:encoding"); ok {
			switch enc {
			case "base64Binary":
				spec.Decode = extract.EncodingBase64
			case "hexBinary":
				spec.Decode = extract.EncodingHex
			}
		}
		spec.CodePage = opts.CCSID
		spec.Printable = true
	}
	return extract.Transcode([]byte(doc), b, spec, log).Text, true
}
