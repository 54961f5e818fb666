package handlers

import (
	"context"
	"errors"

	"github.com/drblury/mqflow/internal/runtime/archive"
	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/internal/runtime/extract"
	loggingpkg "github.com/drblury/mqflow/internal/runtime/logging"
)

const (
	// DefaultErrorsFolder is the archive root for broker error messages.
	DefaultErrorsFolder = "/opt/splunk/esb/brokererrors"
	// ErrorFilePrefix and ErrorFileExt name archived error messages.
	ErrorFilePrefix = "BrokerError_"
	ErrorFileExt    = ".xml"

	BlobStart     = "<BLOB>"
	BlobEnd       = "</BLOB>"
	pdgHeaderOpen = "<xmlns:xsi>"
	pdgHeaderEnd  = "</xmlns:xsi>"
)

// ErrorOptions configure the broker error handler.
type ErrorOptions struct {
	// IncludeBlob keeps BlobLimit characters of the <BLOB> content in the
	// payload field; otherwise the blob is emptied.
	IncludeBlob bool
	BlobLimit   int
	// FixPDGHeader removes the <xmlns:xsi> elements some brokers emit.
	FixPDGHeader   bool
	ExcludePayload bool
	// ExtractBlob adds a blob field. It is implied by ConvertBlob.
	ExtractBlob      bool
	ExtractBlobLimit int
	ConvertBlob      extract.Encoding
	// BlobCCSID is the code page of the decoded blob. Zero uses the
	// message descriptor's CCSID.
	BlobCCSID     int
	MakePrintable bool

	WriteMessages  bool
	GzipMessages   bool
	MessagesFolder string

	// BlobStoreCollection, when set, resolves payloads referenced by the
	// mq_blob_ref metadata key from the Blob Store.
	BlobStoreCollection string
}

// ParseErrorOptions reads include_blob, blob_limit, fix_pdg_header,
// exclude_payload, extract_blob, extract_blob_limit, convert_blob,
// blob_ccsid, make_printable, write_messages, gzip_messages,
// write_messages_folder and blob_store_collection.
func ParseErrorOptions(o Options) (ErrorOptions, error) {
	p := optionParser{opts: o}
	opts := ErrorOptions{
		IncludeBlob:         p.bool("include_blob", false),
		BlobLimit:           p.int("blob_limit", 0),
		FixPDGHeader:        p.bool("fix_pdg_header", true),
		ExcludePayload:      p.bool("exclude_payload", false),
		ExtractBlob:         p.bool("extract_blob", false),
		ConvertBlob:         p.encoding("convert_blob", extract.EncodingNone),
		BlobCCSID:           p.int("blob_ccsid", 0),
		MakePrintable:       p.bool("make_printable", true),
		WriteMessages:       p.bool("write_messages", false),
		GzipMessages:        p.bool("gzip_messages", true),
		MessagesFolder:      p.string("write_messages_folder", DefaultErrorsFolder),
		BlobStoreCollection: p.string("blob_store_collection", ""),
	}
	opts.ExtractBlobLimit = p.int("extract_blob_limit", opts.BlobLimit)
	return opts, p.err()
}

// ErrorHandler writes one record per broker error message with the
// envelope text, its <BLOB> truncated, and optionally the decoded blob.
type ErrorHandler struct {
	base
	opts    ErrorOptions
	archive *archive.Writer
}

// NewErrorHandler builds a broker error handler. A Blob Store is required
// when blob_store_collection is set.
func NewErrorHandler(o Options, deps Deps) (*ErrorHandler, error) {
	if deps.Sink == nil {
		return nil, errspkg.ErrSinkRequired
	}
	opts, err := ParseErrorOptions(o)
	if err != nil {
		return nil, err
	}
	if opts.BlobStoreCollection != "" && deps.BlobStore == nil {
		return nil, errspkg.ErrBlobStoreRequired
	}

	h := &ErrorHandler{base: newBase(NameError, KindQueue, deps), opts: opts}
	if opts.WriteMessages {
		h.archive = &archive.Writer{
			Root:   opts.MessagesFolder,
			Prefix: ErrorFilePrefix,
			Ext:    ErrorFileExt,
			Gzip:   opts.GzipMessages,
			Now:    h.deps.Now,
		}
	}
	return h, nil
}

func (h *ErrorHandler) Handle(ctx context.Context, req Request) error {
	log := h.logger(req)
	r := h.record(h.now(), req, "queue")

	data := req.Payload()
	if ref := req.Get(MetadataKeyBlobRef); ref != "" && h.opts.BlobStoreCollection != "" {
		collection := h.opts.BlobStoreCollection
		if c := req.Get(MetadataKeyBlobCollection); c != "" {
			collection = c
		}
		r.Add("collection", collection).Add("blob_id", ref)

		fetched, err := h.deps.BlobStore.Fetch(ctx, collection, ref)
		if err != nil {
			log.Error("Failed to fetch message from blob store", err, loggingpkg.LogFields{"collection": collection, "blob_id": ref})
			r.Add("error", "Failed to fetch message from blob store: "+err.Error())
		} else {
			data = fetched
		}
	}

	if h.archive != nil {
		name, err := h.archive.Write(req.Manager, req.Target, req.MessageKey(), data)
		if err != nil {
			log.Error("Failed to write error message", err, nil)
		} else {
			r.Add("message_file_name", name)
		}
	}

	ccsid := h.opts.BlobCCSID
	if ccsid == 0 {
		ccsid = extract.CCSIDUTF8
		if desc := req.Descriptor(); desc != nil && desc.CodedCharSetID != 0 {
			ccsid = int(desc.CodedCharSetID)
		}
	}

	res := ExtractBlob(string(data), BlobOptions{
		IncludeBlob:  h.opts.IncludeBlob,
		BlobLimit:    h.opts.BlobLimit,
		FixPDGHeader: h.opts.FixPDGHeader,
		ExtractBlob:  h.opts.ExtractBlob || h.opts.ConvertBlob != extract.EncodingNone,
		ExtractLimit: h.opts.ExtractBlobLimit,
		Decode:       h.opts.ConvertBlob,
		CCSID:        ccsid,
		Printable:    h.opts.MakePrintable,
	}, log)

	if !h.opts.ExcludePayload {
		r.Add("payload", res.Payload)
	}
	if res.HasBlob {
		r.Add("blob", res.Blob)
	}
	return h.emit(ctx, req, r)
}

// BlobOptions drive ExtractBlob.
type BlobOptions struct {
	IncludeBlob  bool
	BlobLimit    int
	FixPDGHeader bool
	ExtractBlob  bool
	ExtractLimit int
	Decode       extract.Encoding
	CCSID        int
	Printable    bool
}

// BlobResult is the outcome of ExtractBlob.
type BlobResult struct {
	// Payload is the envelope with its blob truncated and header repaired.
	Payload string
	Blob    string
	HasBlob bool
}

// ExtractBlob applies the blob handling of the error handler to one
// envelope. A missing or unterminated <BLOB> leaves the payload untouched
// apart from the header repair and yields no blob; an unterminated one is
// logged as a malformed envelope.
func ExtractBlob(text string, opts BlobOptions, log loggingpkg.ServiceLogger) BlobResult {
	var res BlobResult
	log = loggingpkg.OrDiscard(log)

	b, err := extract.Find(text, BlobStart, BlobEnd)
	found := err == nil
	payload := text
	switch {
	case found:
		payload = extract.TruncateSpan(text, b, opts.BlobLimit, opts.IncludeBlob)
	case errors.Is(err, extract.ErrUnterminated):
		log.Warn("Malformed envelope, unterminated blob", loggingpkg.LogFields{"start_tag": BlobStart, "end_tag": BlobEnd})
	default:
		log.Debug("Envelope carries no blob", nil)
	}
	if opts.FixPDGHeader {
		payload = extract.StripSpans(payload, pdgHeaderOpen, pdgHeaderEnd)
	}
	res.Payload = payload

	if found && opts.ExtractBlob {
		out := extract.Transcode([]byte(text), b, extract.Spec{
			Limit:     opts.ExtractLimit,
			Include:   true,
			Decode:    opts.Decode,
			CodePage:  opts.CCSID,
			Printable: opts.Printable,
		}, log)
		res.Blob = out.Text
		res.HasBlob = true
	}
	return res
}
