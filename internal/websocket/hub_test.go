package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/pkg/notice"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	hub, _ := startHub(t)
	a := NewClient(hub, nil, uuid.New())
	b := NewClient(hub, nil, uuid.New())
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))

	n := notice.New("Anki", notice.LevelSuccess, "Successfully synced %d Anki cards", 3)
	hub.Broadcast(context.Background(), n)

	for _, c := range []*Client{a, b} {
		var got struct {
			Type string        `json:"type"`
			Data notice.Notice `json:"data"`
		}
		require.NoError(t, json.Unmarshal(receive(t, c), &got))
		assert.Equal(t, "notice", got.Type)
		assert.Equal(t, n.ID, got.Data.ID)
		assert.Equal(t, "Successfully synced 3 Anki cards", got.Data.Message)
	}
	assert.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)
	c := NewClient(hub, nil, uuid.New())
	require.True(t, hub.Register(c))

	hub.Unregister(c)

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)
	slow := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte)}
	require.True(t, hub.Register(slow))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// Nobody reads slow.Send until the hub has given up on it.
	hub.Broadcast(context.Background(), notice.New("Copilot", notice.LevelInfo, "Uploaded a.md"))
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)

	_, ok := <-slow.Send
	assert.False(t, ok)
}

func TestHubStopsWithContext(t *testing.T) {
	hub, cancel := startHub(t)
	c := NewClient(hub, nil, uuid.New())
	require.True(t, hub.Register(c))

	cancel()

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.False(t, hub.Register(NewClient(hub, nil, uuid.New())))
	// Must not block once the hub is gone.
	hub.Broadcast(context.Background(), notice.New("Sokrates", notice.LevelInfo, "late"))
}
