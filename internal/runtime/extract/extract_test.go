package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/drblury/mqflow/internal/runtime/logging/loggingtest"
)

func TestPrintable(t *testing.T) {
	in := []byte("ok\x00\x01 tab\there\x7f\xff\n")
	out := Printable(in)

	assert.Equal(t, "ok.. tab\there..\n", out)
	assert.Len(t, out, len(in))
}

func TestPrintableIdempotent(t *testing.T) {
	inputs := [][]byte{
		nil,
		[]byte("plain text"),
		{0x00, 0x1f, 0x20, 0x7e, 0x7f, 0x80, 0xc3, 0xa9},
		[]byte("\v\f\r\n\t"),
	}
	for _, in := range inputs {
		once := Printable(in)
		assert.Equal(t, once, Printable([]byte(once)))
		assert.Equal(t, once, PrintableString(once))
	}
}

func TestPrintableStringPerRune(t *testing.T) {
	assert.Equal(t, "caf. .", PrintableString("café ¢"))
	assert.Equal(t, "a.b", PrintableString("a\xffb"))
}

func TestFindSpans(t *testing.T) {
	text := "<A>x</A><A>y</A>"

	assert.Equal(t, []string{"x", "y"}, FindSpans(text, "<A>", "</A>", false, false, nil))
	assert.Equal(t, []string{"y", "x"}, FindSpans(text, "<A>", "</A>", false, true, nil))
	assert.Equal(t, []string{"x"}, FindSpans(text, "<A>", "</A>", true, false, nil))
	assert.Empty(t, FindSpans("no tags", "<A>", "</A>", false, false, nil))
	assert.Empty(t, FindSpans(text, "", "</A>", false, false, nil))
}

func TestFindSpansUnterminated(t *testing.T) {
	rec := loggingtest.New()

	spans := FindSpans("<A>x", "<A>", "</A>", false, false, rec)

	assert.Empty(t, spans)
	warns := rec.Level("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, 0, warns[0].Fields["offset"])
}

func TestFindSpansToleratesNestedStart(t *testing.T) {
	spans := FindSpans("<A><A>inner</A>tail", "<A>", "</A>", false, false, nil)
	assert.Equal(t, []string{"<A>inner"}, spans)
}

func TestLocate(t *testing.T) {
	text := "head<BLOB>48656C6C6F</BLOB>tail"

	b, ok := Locate(text, "<BLOB>", "</BLOB>")
	require.True(t, ok)
	assert.Equal(t, "48656C6C6F", text[b.Start:b.End])
	assert.Equal(t, "<BLOB>", text[b.TagStart:b.Start])
	assert.Equal(t, 10, b.Len())

	_, ok = Locate("<BLOB>open", "<BLOB>", "</BLOB>")
	assert.False(t, ok)
	_, ok = Locate("nothing", "<BLOB>", "</BLOB>")
	assert.False(t, ok)
}

func TestLocateOpenAndAttr(t *testing.T) {
	text := `<wmb:event><wmb:bitstream wmb:encoding="hexBinary">4869</wmb:bitstream></wmb:event>`

	b, ok := LocateOpen(text, "<wmb:bitstream ", "</wmb:bitstream>")
	require.True(t, ok)
	assert.Equal(t, "4869", text[b.Start:b.End])

	enc, ok := Attr(text[b.TagStart:b.Start], "wmb:encoding")
	require.True(t, ok)
	assert.Equal(t, "hexBinary", enc)

	_, ok = Attr(`<x a="1">`, "b")
	assert.False(t, ok)
	_, ok = LocateOpen("<wmb:bitstream no close", "<wmb:bitstream ", "</wmb:bitstream>")
	assert.False(t, ok)
}

func TestFindTellsAbsentFromUnterminated(t *testing.T) {
	b, err := Find("a<BLOB>x</BLOB>", "<BLOB>", "</BLOB>")
	require.NoError(t, err)
	assert.Equal(t, 7, b.Start)

	_, err = Find("no blob here", "<BLOB>", "</BLOB>")
	assert.ErrorIs(t, err, ErrNoSpan)
	_, err = Find("<BLOB>4865", "<BLOB>", "</BLOB>")
	assert.ErrorIs(t, err, ErrUnterminated)
	_, err = Find("<BLOB></BLOB>", "", "</BLOB>")
	assert.ErrorIs(t, err, ErrNoSpan)
}

func TestFindOpenTellsAbsentFromUnterminated(t *testing.T) {
	const open, end = "<wmb:bitstream ", "</wmb:bitstream>"

	_, err := FindOpen("<wmb:event/>", open, end)
	assert.ErrorIs(t, err, ErrNoSpan)
	_, err = FindOpen(`<wmb:bitstream wmb:encoding="hexBinary"`, open, end)
	assert.ErrorIs(t, err, ErrUnterminated)
	_, err = FindOpen(`<wmb:bitstream wmb:encoding="hexBinary">4869`, open, end)
	assert.ErrorIs(t, err, ErrUnterminated)

	b, err := FindOpen(`<wmb:bitstream a="b">4869</wmb:bitstream>`, open, end)
	require.NoError(t, err)
	assert.Equal(t, 0, b.TagStart)
}

func TestStripSpans(t *testing.T) {
	text := "<m><xmlns:xsi>a</xmlns:xsi><b/><xmlns:xsi>c</xmlns:xsi></m>"
	assert.Equal(t, "<m><b/></m>", StripSpans(text, "<xmlns:xsi>", "</xmlns:xsi>"))

	unterminated := "<m><xmlns:xsi>a</m>"
	assert.Equal(t, unterminated, StripSpans(unterminated, "<xmlns:xsi>", "</xmlns:xsi>"))
}

func TestTruncateSpan(t *testing.T) {
	text := "<BLOB>0123456789</BLOB>"
	b, ok := Locate(text, "<BLOB>", "</BLOB>")
	require.True(t, ok)

	assert.Equal(t, "<BLOB>0123</BLOB>", TruncateSpan(text, b, 3, true))
	assert.Equal(t, text, TruncateSpan(text, b, 0, true))
	assert.Equal(t, "<BLOB></BLOB>", TruncateSpan(text, b, 4, false))
}

func TestNormalizeLimit(t *testing.T) {
	for n := 0; n <= 20; n += 2 {
		assert.Equal(t, n, NormalizeLimit(n, 20), "even limit %d", n)
	}
	for n := 1; n < 20; n += 2 {
		assert.Equal(t, n+1, NormalizeLimit(n, 20), "odd limit %d", n)
	}
	assert.Equal(t, 7, NormalizeLimit(7, 7))
	assert.Equal(t, 7, NormalizeLimit(100, 7))
	assert.Equal(t, 9, NormalizeLimit(0, 9))
	assert.Equal(t, 9, NormalizeLimit(-3, 9))
	assert.Equal(t, 0, NormalizeLimit(4, -1))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte{0x00, 0xff, 0x10, 'M', 'Q', 0x80, 0x7f}
	for _, enc := range []Encoding{EncodingNone, EncodingHex, EncodingBase64} {
		encoded, err := Encode(payload, enc)
		require.NoError(t, err)
		decoded, err := Decode(encoded, enc)
		require.NoError(t, err)
		assert.Equal(t, payload, decoded, "encoding %q", enc)
	}

	_, err := Encode(payload, "rot13")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestDecodeIgnoresWhitespace(t *testing.T) {
	out, err := Decode([]byte("SGVs\nbG8=\n"), EncodingBase64)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(out))

	_, err = Decode([]byte("zz"), EncodingHex)
	assert.Error(t, err)
}

func TestParseEncoding(t *testing.T) {
	cases := map[string]Encoding{
		"":             EncodingNone,
		"false":        EncodingNone,
		"hexBinary":    EncodingHex,
		"HEX":          EncodingHex,
		"base64Binary": EncodingBase64,
		" base64 ":     EncodingBase64,
	}
	for in, want := range cases {
		got, err := ParseEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseEncoding("uuencode")
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestFromCodePage(t *testing.T) {
	hello, err := charmap.CodePage037.NewEncoder().Bytes([]byte("Hello"))
	require.NoError(t, err)

	text, ok := FromCodePage(hello, CCSID037)
	require.True(t, ok)
	assert.Equal(t, "Hello", text)

	text, ok = FromCodePage(hello, CCSID500)
	require.True(t, ok)
	assert.Equal(t, "Hello", text)

	brackets := []byte{0x4A, 0x5A, 0x4F}
	text, _ = FromCodePage(brackets, CCSID500)
	assert.Equal(t, "[]!", text)
	text, _ = FromCodePage(brackets, CCSID037)
	assert.Equal(t, "¢!|", text)

	_, ok = FromCodePage(hello, CCSIDUTF8)
	assert.False(t, ok)
}

func TestTranscodeTruncatesBeforeDecode(t *testing.T) {
	text := "...<BLOB>48656C6C6F</BLOB>..."
	spec := Spec{
		Start:     "<BLOB>",
		End:       "</BLOB>",
		Limit:     4,
		Include:   true,
		Decode:    EncodingHex,
		CodePage:  CCSIDUTF8,
		Printable: true,
	}

	res, ok := TranscodeString(text, spec, nil)
	require.True(t, ok)
	assert.Equal(t, "He", res.Text)
	assert.True(t, res.Decoded)
	assert.False(t, res.Converted)
	assert.NoError(t, res.DecodeErr)
}

func TestTranscodeOddLimitRoundsUp(t *testing.T) {
	res, ok := TranscodeString("<BLOB>48656C6C6F</BLOB>", Spec{
		Start:  "<BLOB>",
		End:    "</BLOB>",
		Limit:  5,
		Decode: EncodingHex,
	}, nil)
	require.True(t, ok)
	assert.Equal(t, "Hel", res.Text)
}

func TestTranscodeEBCDIC(t *testing.T) {
	ebcdic, err := charmap.CodePage037.NewEncoder().Bytes([]byte("PAYLOAD"))
	require.NoError(t, err)
	hexText, err := Encode(ebcdic, EncodingHex)
	require.NoError(t, err)

	text := "<BLOB>" + strings.ToUpper(string(hexText)) + "</BLOB>"
	res, ok := TranscodeString(text, Spec{
		Start:     "<BLOB>",
		End:       "</BLOB>",
		Decode:    EncodingHex,
		CodePage:  CCSID037,
		Printable: true,
	}, nil)
	require.True(t, ok)
	assert.True(t, res.Converted)
	assert.Equal(t, "PAYLOAD", res.Text)
}

func TestTranscodeDecodeFailureKeepsRaw(t *testing.T) {
	rec := loggingtest.New()
	text := "<BLOB>not-hex!</BLOB>"
	b, _ := Locate(text, "<BLOB>", "</BLOB>")

	res := Transcode([]byte(text), b, Spec{Decode: EncodingHex}, rec)

	assert.Equal(t, "not-hex!", res.Text)
	assert.Error(t, res.DecodeErr)
	assert.False(t, res.Decoded)
	assert.Len(t, rec.Level("warn"), 1)
}

func TestTranscodeDecodeFailureSkipsCodePage(t *testing.T) {
	text := "<BLOB>not-hex!</BLOB>"
	b, _ := Locate(text, "<BLOB>", "</BLOB>")

	res := Transcode([]byte(text), b, Spec{Decode: EncodingHex, CodePage: CCSID500, Printable: true}, loggingtest.New())

	assert.Equal(t, "not-hex!", res.Text)
	assert.False(t, res.Converted)
	assert.Error(t, res.DecodeErr)
}

func TestTranscodePrintableBinary(t *testing.T) {
	raw := []byte("<B>\x00ab\x01</B>")
	b, _ := Locate(string(raw), "<B>", "</B>")

	res := Transcode(raw, b, Spec{Printable: true}, nil)
	assert.Equal(t, ".ab.", res.Text)
}

func TestTranscodeBadBounds(t *testing.T) {
	res := Transcode([]byte("abc"), Bounds{Start: 2, End: 10}, Spec{}, nil)
	assert.Equal(t, Result{}, res)
}
