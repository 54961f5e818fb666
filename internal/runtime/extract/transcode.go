package extract

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/drblury/mqflow/internal/runtime/logging"
)

// Encoding names a binary-to-text encoding.
type Encoding string

const (
	EncodingNone   Encoding = ""
	EncodingHex    Encoding = "hex"
	EncodingBase64 Encoding = "base64"
)

// ErrUnknownEncoding is returned for encodings other than hex and base64.
var ErrUnknownEncoding = errors.New("extract: unknown encoding")

// ParseEncoding accepts the option spellings used by handlers and envelope
// attributes: hex, hexbinary, base64, base64binary, and none/false/"".
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "false":
		return EncodingNone, nil
	case "hex", "hexbinary":
		return EncodingHex, nil
	case "base64", "base64binary":
		return EncodingBase64, nil
	}
	return EncodingNone, fmt.Errorf("%w: %q", ErrUnknownEncoding, s)
}

// Encode renders b in the given encoding. EncodingNone returns b unchanged.
func Encode(b []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingNone:
		return b, nil
	case EncodingHex:
		out := make([]byte, hex.EncodedLen(len(b)))
		hex.Encode(out, b)
		return out, nil
	case EncodingBase64:
		out := make([]byte, base64.StdEncoding.EncodedLen(len(b)))
		base64.StdEncoding.Encode(out, b)
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(enc))
}

// Decode reverses Encode. ASCII whitespace inside the input is ignored.
func Decode(b []byte, enc Encoding) ([]byte, error) {
	if enc == EncodingNone {
		return b, nil
	}
	clean := bytes.Join(bytes.Fields(b), nil)
	switch enc {
	case EncodingHex:
		out := make([]byte, hex.DecodedLen(len(clean)))
		n, err := hex.Decode(out, clean)
		if err != nil {
			return nil, fmt.Errorf("extract: hex decode: %w", err)
		}
		return out[:n], nil
	case EncodingBase64:
		out := make([]byte, base64.StdEncoding.DecodedLen(len(clean)))
		n, err := base64.StdEncoding.Decode(out, clean)
		if err != nil {
			return nil, fmt.Errorf("extract: base64 decode: %w", err)
		}
		return out[:n], nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(enc))
}

// NormalizeLimit turns a requested truncation limit into the number of span
// units to keep. A limit of zero or less keeps the natural length; an odd
// limit is rounded up to the next even number; the result never exceeds
// natural.
func NormalizeLimit(limit, natural int) int {
	if natural < 0 {
		natural = 0
	}
	if limit <= 0 {
		return natural
	}
	if limit%2 != 0 {
		limit++
	}
	return min(limit, natural)
}

// Spec describes how to pull one sub-payload out of an envelope.
type Spec struct {
	Start string
	End   string
	// Limit truncates the span text before decoding. Zero keeps everything.
	Limit   int
	Include bool
	Decode  Encoding
	// CodePage is the CCSID the decoded bytes are interpreted in.
	CodePage  int
	Printable bool
}

// Result is the outcome of Transcode.
type Result struct {
	// Text is the field value.
	Text string
	// Bytes holds the truncated span, decoded when decoding succeeded.
	Bytes     []byte
	Decoded   bool
	Converted bool
	DecodeErr error
}

// Transcode slices the span at b out of raw, truncates it to the normalized
// limit, decodes it, converts it from an EBCDIC code page and finally
// sanitises it, each step as requested by spec. A decode failure is logged
// and the undecoded slice is kept as is: no code page conversion, only the
// printable filter.
func Transcode(raw []byte, b Bounds, spec Spec, log logging.ServiceLogger) Result {
	if b.Start < 0 || b.End > len(raw) || b.Start > b.End {
		return Result{}
	}
	span := raw[b.Start:b.End]
	span = span[:NormalizeLimit(spec.Limit, len(span))]

	res := Result{Bytes: span}
	if spec.Decode != EncodingNone {
		decoded, err := Decode(span, spec.Decode)
		if err != nil {
			logging.OrDiscard(log).Warn("Failed to decode span, keeping raw text", logging.LogFields{
				"encoding": string(spec.Decode),
				"length":   len(span),
				"error":    err.Error(),
			})
			res.DecodeErr = err
		} else {
			res.Bytes = decoded
			res.Decoded = true
		}
	}

	if spec.Decode == EncodingNone || res.Decoded {
		if text, ok := FromCodePage(res.Bytes, spec.CodePage); ok {
			res.Converted = true
			res.Text = text
			if spec.Printable {
				res.Text = PrintableString(text)
			}
			return res
		}
	}

	if spec.Printable {
		res.Text = Printable(res.Bytes)
	} else {
		res.Text = string(res.Bytes)
	}
	return res
}

// TranscodeString is Transcode over the first span of text matching spec's
// tags. It reports false when no complete span exists.
func TranscodeString(text string, spec Spec, log logging.ServiceLogger) (Result, bool) {
	b, ok := Locate(text, spec.Start, spec.End)
	if !ok {
		return Result{}, false
	}
	return Transcode([]byte(text), b, spec, log), true
}
