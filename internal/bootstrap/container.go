package bootstrap

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/pagpeter/obsidian-extensions/internal/config"
	"github.com/pagpeter/obsidian-extensions/internal/controller"
	internalEvents "github.com/pagpeter/obsidian-extensions/internal/events"
	"github.com/pagpeter/obsidian-extensions/internal/handler"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/internal/repository"
	"github.com/pagpeter/obsidian-extensions/internal/repository/implementation"
	"github.com/pagpeter/obsidian-extensions/internal/repository/memory"
	"github.com/pagpeter/obsidian-extensions/internal/service"
	"github.com/pagpeter/obsidian-extensions/internal/websocket"
	"github.com/pagpeter/obsidian-extensions/pkg/anki"
	"github.com/pagpeter/obsidian-extensions/pkg/cachestore"
	"github.com/pagpeter/obsidian-extensions/pkg/copilot"
	"github.com/pagpeter/obsidian-extensions/pkg/events"
	"github.com/pagpeter/obsidian-extensions/pkg/gemini"
	pktNats "github.com/pagpeter/obsidian-extensions/pkg/nats"
	"github.com/pagpeter/obsidian-extensions/pkg/notice"
	"github.com/pagpeter/obsidian-extensions/pkg/sokrates"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Services. CopilotService is nil when no Gemini API key is configured.
	CopilotService  service.ICopilotService
	AnkiService     service.IAnkiService
	SokratesService service.ISokratesService

	// Controllers
	CopilotController  controller.ICopilotController
	AnkiController     controller.IAnkiController
	SokratesController controller.ISokratesController

	// Notices & WebSockets
	Notices       *notice.Bus
	NoticeHandler *handler.NoticeHandler
	WebSocketHub  *websocket.Hub

	closers []func()
}

// NewContainer wires every component. db, Redis and NATS are optional: without
// them feedback history lives in memory, the cache memo is per process and
// domain events are dropped.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger, busLogger watermill.LoggerAdapter) *Container {
	c := &Container{Logger: sysLogger}

	// 1. Notice bus
	c.Notices = notice.NewBus(busLogger)
	c.closers = append(c.closers, func() { _ = c.Notices.Close() })

	// 2. Infrastructure
	var sink events.Sink
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			sink = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}
	eventPublisher := internalEvents.NewStreamPublisher(sink, sysLogger)

	rdb := connectRedis(ctx, cfg.App.RedisURL)
	var memo cachestore.Store = cachestore.NewMemoryStore()
	if rdb != nil {
		memo = cachestore.NewRedisStore(rdb)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var feedbackRepo repository.FeedbackRepository
	if db != nil {
		feedbackRepo = implementation.NewFeedbackRepository(db)
	} else {
		log.Printf("[INFO] No database configured, Sokrates feedback history is kept in memory")
		feedbackRepo = memory.NewFeedbackRepository()
	}

	// 3. Services
	if cfg.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.APIKey)
		if err != nil {
			log.Printf("[WARN] Failed to create Gemini client: %v", err)
		} else {
			assistant := copilot.NewAssistant(geminiClient, geminiClient, geminiClient, sysLogger, copilot.Options{
				Model:        cfg.Gemini.Model,
				SystemPrompt: cfg.Gemini.SystemPrompt,
				PageSize:     cfg.Gemini.FilesPageSize,
				CacheTTL:     cfg.Gemini.CacheTTL,
			})
			c.CopilotService = service.NewCopilotService(
				assistant,
				memo,
				eventPublisher,
				c.Notices,
				sysLogger,
				cfg.Gemini.CacheTTL,
				cfg.Gemini.Files,
			)
			log.Printf("[INFO] Using Copilot model: %s", cfg.Gemini.Model)
		}
	} else {
		log.Printf("[WARN] GOOGLE_GEMINI_API_KEY is not set, Copilot is disabled")
	}

	c.AnkiService = service.NewAnkiService(
		anki.NewClient(cfg.Anki.ConnectURL),
		cfg.Anki.ModelName,
		cfg.Anki.ExportTag,
		eventPublisher,
		c.Notices,
		sysLogger,
	)

	c.SokratesService = service.NewSokratesService(
		sokrates.NewClient(cfg.Sokrates.Endpoint, cfg.Sokrates.Token),
		feedbackRepo,
		eventPublisher,
		c.Notices,
		sysLogger,
	)

	// 4. WebSocket hub and notice relay
	wsLogger := logger.NewIsolatedLogger(filepath.Join(filepath.Dir(cfg.App.LogFilePath), "notice.log"))
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)
	c.NoticeHandler = handler.NewNoticeHandler(c.Notices, c.WebSocketHub, cfg.App.APIToken, wsLogger)

	// 5. Controllers
	if c.CopilotService != nil {
		c.CopilotController = controller.NewCopilotController(c.CopilotService)
	}
	c.AnkiController = controller.NewAnkiController(c.AnkiService)
	c.SokratesController = controller.NewSokratesController(c.SokratesService)

	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
