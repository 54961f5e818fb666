// Package metadata holds the string headers that travel with a queue message:
// the mq_* descriptor fields plus anything the transport adds.
package metadata

import (
	"maps"
	"strconv"
	"strings"
)

// Metadata represents the headers carried alongside a queue message.
type Metadata map[string]string

// New constructs a Metadata map from alternating key/value pairs. A trailing
// key without a value is ignored.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}

// Clone returns a shallow copy. The copy of a nil map is empty, not nil.
func (m Metadata) Clone() Metadata {
	if len(m) == 0 {
		return Metadata{}
	}
	return maps.Clone(m)
}

// With returns a copy of m with key set to value.
func (m Metadata) With(key, value string) Metadata {
	out := m.Clone()
	out[key] = value
	return out
}

// WithAll returns a copy of m overlaid with entries.
func (m Metadata) WithAll(entries Metadata) Metadata {
	out := m.Clone()
	maps.Copy(out, entries)
	return out
}

// WithPrefix returns the entries whose key starts with prefix.
func (m Metadata) WithPrefix(prefix string) Metadata {
	out := Metadata{}
	for k, v := range m {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}

// Int returns the integer stored under key. Surrounding blanks are ignored.
func (m Metadata) Int(key string) (int64, bool) {
	raw, ok := m[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
