package extract

import "strings"

// Placeholder replaces every unit outside the printable set.
const Placeholder = '.'

// isPrintable matches the C locale printable set: ASCII letters, digits,
// punctuation, space and the whitespace controls \t \n \r \v \f.
func isPrintable(r rune) bool {
	if r >= 0x20 && r <= 0x7e {
		return true
	}
	switch r {
	case '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Printable returns b with every non-printable byte replaced by '.'. The
// result has exactly len(b) bytes.
func Printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if isPrintable(rune(c)) {
			out[i] = c
		} else {
			out[i] = Placeholder
		}
	}
	return string(out)
}

// PrintableString is Printable for decoded text: every non-printable rune
// becomes a single '.'. Invalid UTF-8 bytes are replaced one for one.
func PrintableString(s string) string {
	return strings.Map(func(r rune) rune {
		if isPrintable(r) {
			return r
		}
		return Placeholder
	}, s)
}
