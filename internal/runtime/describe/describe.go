// Package describe maps numeric MQ envelope and status codes to their
// textual constant names.
package describe

import (
	"strconv"
	"strings"
)

// Table maps recognised numeric constants to their names.
type Table map[int64]string

// Describe returns the constant name for code, or code itself when the table
// does not know it.
func (t Table) Describe(code int64) any {
	if name, ok := t[code]; ok {
		return name
	}
	return code
}

// Text is Describe rendered as a string.
func (t Table) Text(code int64) string {
	if name, ok := t[code]; ok {
		return name
	}
	return strconv.FormatInt(code, 10)
}

// StringTable maps fixed width string constants (formats, structure ids) to
// their names. Keys are matched after trimming trailing blanks.
type StringTable map[string]string

// Describe returns the constant name for v, or v without trailing blanks.
func (t StringTable) Describe(v string) string {
	trimmed := strings.TrimRight(v, " \x00")
	if name, ok := t[trimmed]; ok {
		return name
	}
	return trimmed
}

// IsZero reports whether v holds the zero or default value of its field:
// nil, a zero number, a blank string, or a list whose elements are all zero.
// Two element tuples therefore count as zero only when both halves are.
func IsZero(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case int:
		return x == 0
	case int32:
		return x == 0
	case int64:
		return x == 0
	case float64:
		return x == 0
	case string:
		return strings.TrimSpace(strings.Trim(x, "\x00")) == ""
	case []byte:
		for _, b := range x {
			if b != 0 {
				return false
			}
		}
		return true
	case []int64:
		for _, n := range x {
			if n != 0 {
				return false
			}
		}
		return true
	case []string:
		for _, s := range x {
			if !IsZero(s) {
				return false
			}
		}
		return true
	}
	return false
}

// IncludeField reports whether a field holding v should be emitted.
func IncludeField(v any, includeZero bool) bool {
	return includeZero || !IsZero(v)
}
