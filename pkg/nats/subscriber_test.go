package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pagpeter/obsidian-extensions/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.anki.notes_added", Subject(events.TypeNotesAdded))
}

func TestDecodeRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := events.BaseEvent{
		Type:       events.TypeCacheReady,
		Data:       map[string]interface{}{"cache": "cachedContents/1", "files": 3},
		OccurredAt: at,
	}
	data, err := json.Marshal(in.Payload())
	require.NoError(t, err)

	out, err := Decode(Subject(in.Type), data)
	require.NoError(t, err)
	assert.Equal(t, events.TypeCacheReady, out.EventType())
	assert.True(t, at.Equal(out.Timestamp()))
	assert.Equal(t, "cachedContents/1", out.Data["cache"])
	assert.Equal(t, float64(3), out.Data["files"])
	assert.NotContains(t, out.Data, "occurred_at")
}

func TestDecodeWithoutTimestamp(t *testing.T) {
	before := time.Now()
	out, err := Decode("events.custom", []byte(`{"k":"v"}`))
	require.NoError(t, err)
	assert.Equal(t, "custom", out.Type)
	assert.False(t, out.OccurredAt.Before(before))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("events.x", []byte("not json"))
	assert.Error(t, err)
}
