package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drblury/mqflow/internal/runtime/archive"
	"github.com/drblury/mqflow/internal/runtime/blobstore"
	errspkg "github.com/drblury/mqflow/internal/runtime/errors"
	"github.com/drblury/mqflow/internal/runtime/extract"
	"github.com/drblury/mqflow/internal/runtime/format"
	"github.com/drblury/mqflow/internal/runtime/handlers"
	loggingpkg "github.com/drblury/mqflow/internal/runtime/logging"
)

// ErrNothingToRetrieve is returned when a request names neither an archive
// file nor a blob store document.
var ErrNothingToRetrieve = errors.New("mqflow: retrieve request names no stored message")

// RetrieveRequest names a message stored by the error or event handler.
// These are the message_file_name, collection and blob_id fields of the
// record the handler emitted. The blob store document wins when both are set.
type RetrieveRequest struct {
	MessageFile string
	Collection  string
	BlobID      string
}

// RetrieveResult holds the re-extracted parts of a stored message.
type RetrieveResult struct {
	// Payload is the envelope after blob truncation and header repair, or
	// the event document after bitstream truncation.
	Payload string
	// Excluded is set when exclude_payload (error) or exclude_event (event)
	// dropped the payload.
	Excluded bool
	Blob     string
	HasBlob  bool

	Bitstream    string
	HasBitstream bool
}

// Record renders the result as the fields added to a search result.
func (r RetrieveResult) Record() *format.Record {
	rec := format.NewRecord(time.Time{}, "", "")
	if !r.Excluded {
		rec.Add("payload", r.Payload)
	}
	if r.HasBlob {
		rec.Add("blob", r.Blob)
	}
	if r.HasBitstream {
		rec.Add("bitstream", r.Bitstream)
	}
	return rec
}

// Retrieve reads a stored message and re-runs the extraction of handler
// ("error" or "event") with args, the same option bag the handler takes.
// store may be nil when only archive files are read.
func Retrieve(ctx context.Context, store blobstore.Store, req RetrieveRequest, handler string, args map[string]string, log loggingpkg.ServiceLogger) (RetrieveResult, error) {
	log = loggingpkg.OrDiscard(log)

	data, err := load(ctx, store, req)
	if err != nil {
		return RetrieveResult{}, err
	}

	opts := handlers.NewOptions(handler, args)
	switch handler {
	case handlers.NameError:
		eo, err := handlers.ParseErrorOptions(opts)
		if err != nil {
			return RetrieveResult{}, errspkg.NewConfigValidationError(err)
		}
		return retrieveBlob(string(data), eo, log), nil
	case handlers.NameEvent:
		eo, err := handlers.ParseEventOptions(opts)
		if err != nil {
			return RetrieveResult{}, errspkg.NewConfigValidationError(err)
		}
		return retrieveBitstream(string(data), eo, log), nil
	}
	return RetrieveResult{}, errspkg.NewConfigValidationError(&errspkg.UnknownHandlerError{
		Name:       handler,
		Registered: []string{handlers.NameError, handlers.NameEvent},
	})
}

func load(ctx context.Context, store blobstore.Store, req RetrieveRequest) ([]byte, error) {
	switch {
	case req.Collection != "" && req.BlobID != "":
		if store == nil {
			return nil, errspkg.ErrBlobStoreRequired
		}
		data, err := store.Fetch(ctx, req.Collection, req.BlobID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch message from blob store: %w", err)
		}
		return data, nil
	case req.MessageFile != "":
		data, err := archive.Read(req.MessageFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read message file: %w", err)
		}
		return data, nil
	}
	return nil, ErrNothingToRetrieve
}

func retrieveBlob(text string, o handlers.ErrorOptions, log loggingpkg.ServiceLogger) RetrieveResult {
	ccsid := o.BlobCCSID
	if ccsid == 0 {
		ccsid = extract.CCSIDUTF8
	}
	res := handlers.ExtractBlob(text, handlers.BlobOptions{
		IncludeBlob:  o.IncludeBlob,
		BlobLimit:    o.BlobLimit,
		FixPDGHeader: o.FixPDGHeader,
		ExtractBlob:  o.ExtractBlob || o.ConvertBlob != extract.EncodingNone,
		ExtractLimit: o.ExtractBlobLimit,
		Decode:       o.ConvertBlob,
		CCSID:        ccsid,
		Printable:    o.MakePrintable,
	}, log)
	return RetrieveResult{
		Payload:  res.Payload,
		Excluded: o.ExcludePayload,
		Blob:     res.Blob,
		HasBlob:  res.HasBlob,
	}
}

// retrieveBitstream empties the bitstream of the event text unless
// include_bitstream keeps bitstream_limit characters of it. extract_bitstream
// adds the bitstream as its own field.
func retrieveBitstream(text string, o handlers.EventOptions, log loggingpkg.ServiceLogger) RetrieveResult {
	doc := handlers.EventRoot(text)
	out := RetrieveResult{Payload: doc, Excluded: o.ExcludeEvent}

	b, err := extract.FindOpen(doc, handlers.BitstreamOpen, handlers.BitstreamClose)
	if err == nil {
		out.Payload = extract.TruncateSpan(doc, b, o.BitstreamLimit, o.IncludeBitstream)
	}

	if o.ExtractBitstream {
		out.Bitstream, out.HasBitstream = handlers.ExtractBitstream(doc, handlers.BitstreamOptions{
			Limit:  o.BitstreamLimit,
			Decode: o.DecodeBitstream,
			CCSID:  o.BitstreamCCSID,
		}, log)
	} else if errors.Is(err, extract.ErrUnterminated) {
		log.Warn("Malformed event, unterminated bitstream", loggingpkg.LogFields{"start_tag": handlers.BitstreamOpen, "end_tag": handlers.BitstreamClose})
	}
	return out
}
