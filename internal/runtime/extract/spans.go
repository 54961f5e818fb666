// Package extract locates payload spans inside message envelopes and
// transcodes them into printable field values.
package extract

import (
	"errors"
	"strings"

	"github.com/drblury/mqflow/internal/runtime/logging"
)

var (
	// ErrNoSpan reports that the start tag does not occur.
	ErrNoSpan = errors.New("extract: no span")
	// ErrUnterminated reports a start tag without its end tag.
	ErrUnterminated = errors.New("extract: unterminated span")
)

// Bounds locates a span inside an envelope. Text[Start:End] is the span
// content; Text[TagStart:Start] is the opening tag.
type Bounds struct {
	TagStart int
	Start    int
	End      int
}

// Len is the natural span length.
func (b Bounds) Len() int {
	return b.End - b.Start
}

// FindSpans returns the text between every start/end tag pair, scanning left
// to right. An unterminated start tag is logged and skipped. firstOnly stops
// after the first span; reverse returns spans in reverse discovery order.
func FindSpans(text, start, end string, firstOnly, reverse bool, log logging.ServiceLogger) []string {
	if start == "" || end == "" {
		return nil
	}
	log = logging.OrDiscard(log)

	var spans []string
	pos := 0
	for pos < len(text) {
		i := strings.Index(text[pos:], start)
		if i < 0 {
			break
		}
		open := pos + i + len(start)
		j := strings.Index(text[open:], end)
		if j < 0 {
			log.Warn("Unterminated span in envelope", logging.LogFields{
				"start_tag": start,
				"end_tag":   end,
				"offset":    pos + i,
			})
			pos = open
			continue
		}

		span := text[open : open+j]
		if reverse {
			spans = append([]string{span}, spans...)
		} else {
			spans = append(spans, span)
		}
		if firstOnly {
			break
		}
		pos = open + j + len(end)
	}
	return spans
}

// Find returns the bounds of the first start..end span. It fails with
// ErrNoSpan when start is absent and ErrUnterminated when end does not follow.
func Find(text, start, end string) (Bounds, error) {
	if start == "" || end == "" {
		return Bounds{}, ErrNoSpan
	}
	i := strings.Index(text, start)
	if i < 0 {
		return Bounds{}, ErrNoSpan
	}
	open := i + len(start)
	j := strings.Index(text[open:], end)
	if j < 0 {
		return Bounds{}, ErrUnterminated
	}
	return Bounds{TagStart: i, Start: open, End: open + j}, nil
}

// FindOpen is Find for an opening tag that carries attributes: prefix
// matches the start of the tag (e.g. "<wmb:bitstream ") and the span begins
// after the next '>'. A tag missing its '>' is unterminated too.
func FindOpen(text, prefix, end string) (Bounds, error) {
	if prefix == "" || end == "" {
		return Bounds{}, ErrNoSpan
	}
	i := strings.Index(text, prefix)
	if i < 0 {
		return Bounds{}, ErrNoSpan
	}
	gt := strings.IndexByte(text[i+len(prefix):], '>')
	if gt < 0 {
		return Bounds{}, ErrUnterminated
	}
	open := i + len(prefix) + gt + 1
	j := strings.Index(text[open:], end)
	if j < 0 {
		return Bounds{}, ErrUnterminated
	}
	return Bounds{TagStart: i, Start: open, End: open + j}, nil
}

// Locate returns the bounds of the first complete start..end span.
func Locate(text, start, end string) (Bounds, bool) {
	b, err := Find(text, start, end)
	return b, err == nil
}

// LocateOpen reports the first complete span of FindOpen.
func LocateOpen(text, prefix, end string) (Bounds, bool) {
	b, err := FindOpen(text, prefix, end)
	return b, err == nil
}

// Attr returns the value of a double quoted attribute inside an opening tag.
func Attr(tag, name string) (string, bool) {
	key := name + `="`
	i := strings.Index(tag, key)
	if i < 0 {
		return "", false
	}
	rest := tag[i+len(key):]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

// StripSpans removes every complete start..end occurrence, tags included.
// An unterminated start tag ends the scan and the remainder is kept.
func StripSpans(text, start, end string) string {
	if start == "" || end == "" {
		return text
	}
	var sb strings.Builder
	rest := text
	for {
		i := strings.Index(rest, start)
		if i < 0 {
			break
		}
		j := strings.Index(rest[i+len(start):], end)
		if j < 0 {
			break
		}
		sb.WriteString(rest[:i])
		rest = rest[i+len(start)+j+len(end):]
	}
	sb.WriteString(rest)
	return sb.String()
}

// TruncateSpan rewrites the span at b in place: with include the content is
// cut to the normalized limit, otherwise it is emptied. Tags are kept.
func TruncateSpan(text string, b Bounds, limit int, include bool) string {
	keep := 0
	if include {
		keep = NormalizeLimit(limit, b.Len())
	}
	return text[:b.Start+keep] + text[b.End:]
}
