package handler

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/serverutils"
	internalWS "github.com/pagpeter/obsidian-extensions/internal/websocket"
	"github.com/pagpeter/obsidian-extensions/pkg/notice"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// NoticeSource is the part of the notice bus the handler reads from.
type NoticeSource interface {
	Subscribe(ctx context.Context) (<-chan notice.Notice, error)
}

// NoticeHandler pushes service notices to websocket clients, the server-side
// counterpart of the toasts the plugins show.
type NoticeHandler struct {
	source NoticeSource
	hub    *internalWS.Hub
	token  string
	logger logger.ILogger
}

func NewNoticeHandler(source NoticeSource, hub *internalWS.Hub, token string, log logger.ILogger) *NoticeHandler {
	return &NoticeHandler{
		source: source,
		hub:    hub,
		token:  token,
		logger: log,
	}
}

// Forward relays bus notices to the hub until ctx is done.
func (h *NoticeHandler) Forward(ctx context.Context) error {
	notices, err := h.source.Subscribe(ctx)
	if err != nil {
		return err
	}
	for n := range notices {
		h.hub.Broadcast(ctx, n)
	}
	return nil
}

// ServeWs upgrades the connection. Browsers cannot set headers on a
// websocket handshake, so the token may also come as ?token=.
func (h *NoticeHandler) ServeWs(c *fiber.Ctx) error {
	if h.token != "" {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			tokenStr = strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(tokenStr), []byte(h.token)) != 1 {
			h.logger.Warn("NoticeHandler", "Invalid token in WS handshake", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	id := uuid.New()
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("NoticeHandler", "Starting WebSocket session", map[string]interface{}{"client_id": id})
		internalWS.ServeWs(h.hub, conn, id)
		h.logger.Info("NoticeHandler", "WebSocket session ended", map[string]interface{}{"client_id": id})
	})(c)
}

func (h *NoticeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/notices/ws", h.ServeWs)
}
