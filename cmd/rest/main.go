package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pagpeter/obsidian-extensions/internal/bootstrap"
	"github.com/pagpeter/obsidian-extensions/internal/config"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/internal/server"
	"github.com/pagpeter/obsidian-extensions/internal/tracer"
	"github.com/pagpeter/obsidian-extensions/pkg/database"

	"github.com/ThreeDotsLabs/watermill"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Database (optional)
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment != "production")
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	// 4. Bootstrap Dependencies (Container)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	defer sysLogger.Sync()

	container := bootstrap.NewContainer(ctx, gormDB, cfg, sysLogger, watermill.NewStdLogger(false, false))
	defer container.Close()

	// 5. Start Background Services
	go container.WebSocketHub.Run(ctx)
	go func() {
		if err := container.NoticeHandler.Forward(ctx); err != nil {
			log.Printf("[WARN] Notice relay stopped: %v", err)
		}
	}()
	preloadRegistry(ctx, container)

	// 6. Initialize and run Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		log.Println("[INFO] Shutting down server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("[WARN] Server shutdown: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}

// preloadRegistry finishes before the server accepts requests, so no sync
// runs against an empty registry.
func preloadRegistry(ctx context.Context, c *bootstrap.Container) {
	if c.CopilotService == nil {
		return
	}
	c.CopilotService.Preload(ctx)
}
