package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pagpeter/obsidian-extensions/internal/bootstrap"
	"github.com/pagpeter/obsidian-extensions/internal/config"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/logger"
	"github.com/pagpeter/obsidian-extensions/pkg/database"
	"github.com/pagpeter/obsidian-extensions/pkg/notice"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

// app is one CLI invocation: the wired container plus a goroutine printing
// notices to stderr.
type app struct {
	cfg       *config.Config
	logger    *logger.ZapLogger
	container *bootstrap.Container

	stopNotices context.CancelFunc
	printed     chan struct{}
}

// newApp logs only to the log file so stdout carries answers and stderr
// carries notices.
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)

	var db *gorm.DB
	if cfg.Database.Connection != "" {
		conn, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		db = conn
	}

	a := &app{
		cfg:       cfg,
		logger:    sysLogger,
		container: bootstrap.NewContainer(ctx, db, cfg, sysLogger, nil),
		printed:   make(chan struct{}),
	}

	noticeCtx, cancel := context.WithCancel(ctx)
	a.stopNotices = cancel
	notices, err := a.container.Notices.Subscribe(noticeCtx)
	if err != nil {
		cancel()
		a.container.Close()
		return nil, err
	}
	go func() {
		defer close(a.printed)
		for n := range notices {
			printNotice(os.Stderr, n)
		}
	}()
	return a, nil
}

func (a *app) Close() {
	a.stopNotices()
	<-a.printed
	a.container.Close()
	_ = a.logger.Sync()
}

func printNotice(w io.Writer, n notice.Notice) {
	var c *color.Color
	switch n.Level {
	case notice.LevelSuccess:
		c = color.New(color.FgGreen)
	case notice.LevelError:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgCyan)
	}
	c.Fprintf(w, "[%s] %s\n", n.Source, n.Message)
}
