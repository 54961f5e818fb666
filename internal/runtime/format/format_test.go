package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFields(t *testing.T) {
	r := NewRecord(time.Time{}, "", "").
		Add("queue_manager", "QM1").
		Add("queue", "ORDERS.IN").
		Add("Persistence", "MQPER_PERSISTENT").
		Add("Priority", int64(4)).
		Add("rate", 1.5).
		Add("payload", `say "hi" \o/`).
		AddLiteral("raw", `"already quoted"`)

	assert.Equal(t,
		`queue_manager="QM1" queue="ORDERS.IN" Persistence=MQPER_PERSISTENT Priority=4 rate=1.5 payload="say \"hi\" \\o/" raw="already quoted"`,
		Format(r))
	assert.Equal(t, 7, r.Len())
}

func TestFormatHeader(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123_000_000, time.FixedZone("", 2*3600))
	r := NewRecord(ts, "mqhost", "mqinput(42)").Add("queue", "Q1")

	assert.Equal(t, `[2024-03-09 14:05:07.123 +0200] mqhost mqinput(42): queue="Q1"`, Format(r))

	bare := NewRecord(ts, "", "")
	assert.Equal(t, "[2024-03-09 14:05:07.123 +0200]", Format(bare))
}

func TestFormatPreservesOrderAndDuplicates(t *testing.T) {
	r := &Record{}
	r.Add("b", 1).Add("a", 2).Add("b", 3)

	assert.Equal(t, "b=1 a=2 b=3", Format(r))
	v, ok := r.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestAddPair(t *testing.T) {
	r := &Record{}
	r.AddPair("network_time_indicator", [2]string{"short", "long"}, int64(10), int64(20))

	assert.Equal(t, "network_time_indicator_short=10 network_time_indicator_long=20", Format(r))
}

func TestRenderValueKinds(t *testing.T) {
	assert.Equal(t, `""`, renderValue(nil))
	assert.Equal(t, `"a,b"`, renderValue([]string{"a", "b"}))
	assert.Equal(t, `"1,2"`, renderValue([]int64{1, 2}))
	assert.Equal(t, `"bytes"`, renderValue([]byte("bytes")))
	assert.Equal(t, "true", renderValue(true))
	assert.Equal(t, "7", renderValue(int32(7)))
	assert.Equal(t, `"5s"`, renderValue(5*time.Second))
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "a &amp; b &lt;c&gt; &quot;d&quot; &apos;e&apos;", EscapeXML(`a & b <c> "d" 'e'`))
	assert.Equal(t, "line1line2", EscapeXML("line1\nline2\r"))
}

func TestEnvelopeIsSingleLineAndEscaped(t *testing.T) {
	r := (&Record{}).Add("payload", "<xml>\n&stuff</xml>")

	out := Envelope("host-1", Format(r))

	assert.Equal(t, `<stream><event><data>payload=&quot;&lt;xml&gt;&amp;stuff&lt;/xml&gt;&quot;</data><host>host-1</host></event></stream>`, out)
	assert.NotContains(t, out, "\n")
	inner := strings.TrimSuffix(strings.TrimPrefix(out, "<stream><event><data>"), "</data><host>host-1</host></event></stream>")
	assert.NotContains(t, inner, "<")
	assert.NotContains(t, inner, `"`)
}

func TestStanzaEnvelope(t *testing.T) {
	out := StanzaEnvelope("mqinput://orders", "h", "x=1")
	assert.Equal(t, `<stream><event stanza="mqinput://orders"><data>x=1</data><host>h</host></event></stream>`, out)
}
