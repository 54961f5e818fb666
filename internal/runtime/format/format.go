// Package format serialises field records into single-line, escaped text
// events and wraps them in the ingestion stream envelope.
package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the layout of the record header timestamp.
const TimeLayout = "2006-01-02 15:04:05.000 -0700"

// ConstantPrefix marks textual constants that are written unquoted.
const ConstantPrefix = "MQ"

// Literal is written verbatim, without quoting or escaping.
type Literal string

// Field is one name/value pair of a record.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered set of fields plus an optional header. Fields keep
// their insertion order; adding a name twice keeps both.
type Record struct {
	Time   time.Time
	Host   string
	Source string

	fields []Field
}

// NewRecord returns an empty record with the given header.
func NewRecord(ts time.Time, host, source string) *Record {
	return &Record{Time: ts, Host: host, Source: source}
}

// Add appends a field.
func (r *Record) Add(name string, value any) *Record {
	r.fields = append(r.fields, Field{Name: name, Value: value})
	return r
}

// AddLiteral appends a field written exactly as raw.
func (r *Record) AddLiteral(name, raw string) *Record {
	return r.Add(name, Literal(raw))
}

// AddPair appends the two halves of a tuple as name_<suffix> fields.
func (r *Record) AddPair(name string, suffixes [2]string, first, second any) *Record {
	r.Add(name+"_"+suffixes[0], first)
	return r.Add(name+"_"+suffixes[1], second)
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Fields returns a copy of the fields in insertion order.
func (r *Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Lookup returns the value of the first field called name.
func (r *Record) Lookup(name string) (any, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Format renders r as one line: the header, when set, followed by the fields
// joined by single spaces. The line is not XML escaped; see Envelope.
func Format(r *Record) string {
	var sb strings.Builder

	var header []string
	if !r.Time.IsZero() {
		header = append(header, "["+r.Time.Format(TimeLayout)+"]")
	}
	if r.Host != "" {
		header = append(header, r.Host)
	}
	if r.Source != "" {
		header = append(header, r.Source+":")
	}
	sb.WriteString(strings.Join(header, " "))

	for _, f := range r.fields {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(f.Name)
		sb.WriteByte('=')
		sb.WriteString(renderValue(f.Value))
	}
	return sb.String()
}

// renderValue writes numbers, literals and MQ constants bare and quotes
// everything else.
func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return `""`
	case Literal:
		return string(x)
	case string:
		if strings.HasPrefix(x, ConstantPrefix) {
			return x
		}
		return quote(x)
	case []byte:
		return quote(string(x))
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case []int64:
		parts := make([]string, len(x))
		for i, n := range x {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return quote(strings.Join(parts, ","))
	case []string:
		return quote(strings.Join(x, ","))
	}
	return quote(fmt.Sprint(v))
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&apos;",
	"<", "&lt;",
	">", "&gt;",
	"\n", "",
	"\r", "",
)

// EscapeXML escapes the XML special characters of s and drops line breaks.
func EscapeXML(s string) string {
	return xmlReplacer.Replace(s)
}

// Envelope wraps line in the single-event stream envelope.
func Envelope(host, line string) string {
	return "<stream><event><data>" + EscapeXML(line) + "</data><host>" + EscapeXML(host) + "</host></event></stream>"
}

// StanzaEnvelope is Envelope for multi-instance inputs, tagging the event
// with its stanza.
func StanzaEnvelope(stanza, host, line string) string {
	return `<stream><event stanza="` + EscapeXML(stanza) + `"><data>` + EscapeXML(line) +
		"</data><host>" + EscapeXML(host) + "</host></event></stream>"
}
