package metadata

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
)

func TestCloneDoesNotAlias(t *testing.T) {
	original := Metadata{"mq_format": "MQSTR", "mq_priority": "4"}
	clone := original.Clone()
	clone["mq_format"] = "changed"

	assert.Equal(t, "MQSTR", original["mq_format"])
	assert.Len(t, clone, len(original))
}

func TestCloneEmpty(t *testing.T) {
	var m Metadata
	cloned := m.Clone()
	assert.NotNil(t, cloned)
	assert.Empty(t, cloned)
}

func TestWithAndWithAll(t *testing.T) {
	base := Metadata{"mq_format": "MQSTR"}
	enriched := base.With("mq_blob_ref", "65f0c1a2b3c4d5e6f7a8b9c0")
	assert.Empty(t, base["mq_blob_ref"])
	assert.Equal(t, "65f0c1a2b3c4d5e6f7a8b9c0", enriched["mq_blob_ref"])

	merged := enriched.WithAll(Metadata{"mq_priority": "0"})
	assert.Equal(t, "0", merged["mq_priority"])
	assert.Equal(t, "MQSTR", merged["mq_format"])
}

func TestInt(t *testing.T) {
	md := Metadata{"mq_priority": " 4 ", "mq_format": "MQSTR"}

	n, ok := md.Int("mq_priority")
	assert.True(t, ok)
	assert.Equal(t, int64(4), n)

	_, ok = md.Int("mq_format")
	assert.False(t, ok)
	_, ok = md.Int("missing")
	assert.False(t, ok)
}

func TestWithPrefix(t *testing.T) {
	md := Metadata{"mq_format": "MQSTR", "mq_priority": "4", "_watermill_message_uuid": "x"}
	assert.Equal(t, Metadata{"mq_format": "MQSTR", "mq_priority": "4"}, md.WithPrefix("mq_"))
}

func TestNewPairs(t *testing.T) {
	md := New("key", "value", "another", "entry", "dangling")
	assert.Equal(t, Metadata{"key": "value", "another": "entry"}, md)
}

func TestToAndFromWatermill(t *testing.T) {
	md := Metadata{"source": "QM1"}
	wm := ToWatermill(md)
	assert.Equal(t, "QM1", wm["source"])
	wm["source"] = "mutation"
	assert.Equal(t, "QM1", md["source"])

	assert.Empty(t, ToWatermill(nil))

	back := FromWatermill(message.Metadata{"mq_format": "MQEVENT"})
	assert.Equal(t, "MQEVENT", back["mq_format"])
}

func TestFromWatermillEmpty(t *testing.T) {
	md := FromWatermill(nil)
	assert.NotNil(t, md)
	assert.Empty(t, md)
}
