package extract

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Coded character set identifiers understood by the transcoder.
const (
	CCSID037  = 37
	CCSID500  = 500
	CCSIDUTF8 = 1208
)

// cp500 differs from cp037 in seven positions only.
var cp500Overrides = map[byte]rune{
	0x4A: '[',
	0x4F: '!',
	0x5A: ']',
	0x5F: '^',
	0xB0: '¢',
	0xBA: '¬',
	0xBB: '|',
}

// FromCodePage decodes b using the EBCDIC code page named by ccsid. It
// reports false, leaving b untouched, for any other CCSID.
func FromCodePage(b []byte, ccsid int) (string, bool) {
	switch ccsid {
	case CCSID037:
		out, err := charmap.CodePage037.NewDecoder().Bytes(b)
		if err != nil {
			return "", false
		}
		return string(out), true
	case CCSID500:
		var sb strings.Builder
		sb.Grow(len(b))
		for _, c := range b {
			if r, ok := cp500Overrides[c]; ok {
				sb.WriteRune(r)
				continue
			}
			sb.WriteRune(charmap.CodePage037.DecodeByte(c))
		}
		return sb.String(), true
	default:
		return "", false
	}
}
