// Package notice carries short user-facing status messages from the services
// to whatever front end is attached: the CLI prints them, the REST server
// pushes them to websocket clients.
package notice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const Topic = "notices"

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notice struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func New(source string, level Level, format string, args ...interface{}) Notice {
	return Notice{
		ID:        uuid.New(),
		Source:    source,
		Level:     level,
		Message:   fmt.Sprintf(format, args...),
		CreatedAt: time.Now(),
	}
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(n Notice) error
}

// Discard drops every notice.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Notice) error { return nil }

// Bus is an in-process notice bus on a watermill go channel. Notices
// published while nobody is subscribed are dropped. Publish returns once every
// subscriber has taken the notice, so subscribers see them in order.
type Bus struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func NewBus(log watermill.LoggerAdapter) *Bus {
	if log == nil {
		log = watermill.NopLogger{}
	}
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		}, log),
		topic: Topic,
	}
}

func (b *Bus) Publish(n Notice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	return b.pubSub.Publish(b.topic, message.NewMessage(n.ID.String(), payload))
}

// Subscribe streams notices until ctx is done or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Notice, error) {
	messages, err := b.pubSub.Subscribe(ctx, b.topic)
	if err != nil {
		return nil, err
	}

	out := make(chan Notice, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var n Notice
			if err := json.Unmarshal(msg.Payload, &n); err != nil {
				msg.Ack()
				continue
			}
			select {
			case out <- n:
			case <-ctx.Done():
				msg.Ack()
				return
			}
			msg.Ack()
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}
