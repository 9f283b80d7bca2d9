package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayloadAddsTimestamp(t *testing.T) {
	data := map[string]interface{}{"path": "a.md"}
	e := New(TypeFileUploaded, data)

	p := e.Payload()
	assert.Equal(t, "a.md", p["path"])
	assert.Equal(t, e.OccurredAt, p["occurred_at"])
	assert.NotContains(t, data, "occurred_at")
	assert.Equal(t, TypeFileUploaded, e.EventType())
}
