package describe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableDescribe(t *testing.T) {
	assert.Equal(t, "MQCHS_RUNNING", MQCHS.Describe(3))
	assert.Equal(t, int64(42), MQCHS.Describe(42))
	assert.Equal(t, "MQPER_PERSISTENT", MQPER.Text(1))
	assert.Equal(t, "42", MQCHS.Text(42))
	assert.Equal(t, "-7", Table(nil).Text(-7))
}

func TestEveryTableFallsBackToNumber(t *testing.T) {
	tables := []Table{MQMD, MQRO, MQMT, MQEI, MQFB, MQENC, MQCCSI, MQPRI, MQPER, MQAT, MQMF, MQOL,
		MQCHS, MQCHSSTATE, MQCOMPRESS, MQMON, MQCHT, MQOT, MQCHSR, MQMCAS}
	for _, table := range tables {
		for code, name := range table {
			assert.Equal(t, name, table.Text(code))
		}
		assert.Equal(t, "123456789", table.Text(123456789))
	}
}

func TestStringTable(t *testing.T) {
	assert.Equal(t, "MQFMT_STRING", MQFMT.Describe("MQSTR   "))
	assert.Equal(t, "MQFMT_NONE", MQFMT.Describe("        "))
	assert.Equal(t, "CUSTOM", MQFMT.Describe("CUSTOM  "))
	assert.Equal(t, "MQMD_STRUC_ID", MQMDStrucID.Describe("MD  "))
}

func TestIsZero(t *testing.T) {
	zero := []any{nil, 0, int32(0), int64(0), 0.0, "", "   ", "\x00\x00", []byte{0, 0}, []int64{0, 0}, []int64{}, []string{"", " "}}
	for _, v := range zero {
		assert.True(t, IsZero(v), "%#v", v)
	}
	nonZero := []any{1, int64(-1), "MQ", []byte{0, 1}, []int64{0, 5}, []int64{3, 0}, []string{"a"}, struct{}{}}
	for _, v := range nonZero {
		assert.False(t, IsZero(v), "%#v", v)
	}
}

func TestIncludeField(t *testing.T) {
	assert.True(t, IncludeField(int64(0), true))
	assert.False(t, IncludeField(int64(0), false))
	assert.False(t, IncludeField([]int64{0, 0}, false))
	assert.True(t, IncludeField([]int64{0, 1}, false))
}

func TestStatusParam(t *testing.T) {
	p := StatusParam(ParamChannelStatus)
	assert.Equal(t, "channel_status", p.Name)
	assert.Equal(t, "MQCHS_RUNNING", p.Values.Describe(3))

	indicator := StatusParam(ParamNetworkTimeIndicator)
	assert.Equal(t, [2]string{"short", "long"}, indicator.Pair)

	unknown := StatusParam(9999)
	assert.Equal(t, "param_9999", unknown.Name)
	assert.Nil(t, unknown.Values)
}
