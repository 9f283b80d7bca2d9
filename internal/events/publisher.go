package events

import (
	"context"

	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	pkgEvents "github.com/pagpeter/obsidian-extensions/pkg/events"

	"github.com/google/uuid"
)

// Publisher emits the domain events of the three plugins. Delivery failures
// are logged and never reach the caller.
type Publisher interface {
	PublishFileUploaded(ctx context.Context, path, name, fingerprint string)
	PublishCacheReady(ctx context.Context, cacheName, model string, files int, reused bool)
	PublishNotesAdded(ctx context.Context, deck string, files, notes int)
	PublishFeedbackReceived(ctx context.Context, id uuid.UUID, isValid bool, summary string)
}

type StreamPublisher struct {
	sink   pkgEvents.Sink
	logger logger.ILogger
}

// NewStreamPublisher publishes to sink. A nil sink turns every call into a
// no-op.
func NewStreamPublisher(sink pkgEvents.Sink, log logger.ILogger) *StreamPublisher {
	return &StreamPublisher{sink: sink, logger: log}
}

func (p *StreamPublisher) PublishFileUploaded(ctx context.Context, path, name, fingerprint string) {
	p.publish(ctx, pkgEvents.TypeFileUploaded, map[string]interface{}{
		"path":        path,
		"name":        name,
		"fingerprint": fingerprint,
	})
}

func (p *StreamPublisher) PublishCacheReady(ctx context.Context, cacheName, model string, files int, reused bool) {
	p.publish(ctx, pkgEvents.TypeCacheReady, map[string]interface{}{
		"cache":  cacheName,
		"model":  model,
		"files":  files,
		"reused": reused,
	})
}

func (p *StreamPublisher) PublishNotesAdded(ctx context.Context, deck string, files, notes int) {
	p.publish(ctx, pkgEvents.TypeNotesAdded, map[string]interface{}{
		"deck":  deck,
		"files": files,
		"notes": notes,
	})
}

func (p *StreamPublisher) PublishFeedbackReceived(ctx context.Context, id uuid.UUID, isValid bool, summary string) {
	p.publish(ctx, pkgEvents.TypeFeedbackReceived, map[string]interface{}{
		"feedback_id": id.String(),
		"is_valid":    isValid,
		"summary":     summary,
	})
}

func (p *StreamPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Publish(ctx, pkgEvents.New(eventType, data)); err != nil {
		p.logger.Error("Events", "Failed to publish event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
