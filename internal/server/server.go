package server

import (
	"log"
	"net"
	"strings"

	"github.com/pagpeter/obsidian-extensions/internal/bootstrap"
	"github.com/pagpeter/obsidian-extensions/internal/config"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	// The Obsidian plugins call from the app:// origin.
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CorsAllowedOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Type",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Addr is the listen address. An empty host means loopback, never every
// interface.
func (s *Server) Addr() string {
	host := strings.TrimSpace(s.cfg.App.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, s.cfg.App.Port)
}

func (s *Server) Run() error {
	addr := s.Addr()
	if s.cfg.App.APIToken == "" && !isLoopback(addr) {
		log.Printf("[WARN] Listening on %s without APP_API_TOKEN, every route is open to the network", addr)
	}
	log.Printf("[INFO] Server is running on http://%s", addr)
	return s.app.Listen(addr)
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	api := app.Group("/api")
	guard := serverutils.TokenMiddleware(cfg.App.APIToken)

	if c.CopilotController != nil {
		c.CopilotController.RegisterRoutes(api, guard)
	}
	c.AnkiController.RegisterRoutes(api, guard)
	c.SokratesController.RegisterRoutes(api, guard)

	c.NoticeHandler.RegisterRoutes(api)

	api.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{
			"copilot": c.CopilotController != nil,
			"clients": c.WebSocketHub.ClientCount(),
		}))
	})
}
