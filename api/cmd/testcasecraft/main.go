package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"testcasecraft/api/internal/app"
	"testcasecraft/api/internal/config"
	handle "testcasecraft/api/internal/handle"
	"testcasecraft/api/internal/httpserver"
)

func main() {
	cfg := config.Load()

	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8000"
	}

	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	h := handle.New(a.Service, a.Engines.Names(), logger, a.Ping())
	srv := httpserver.New(":"+cfg.Port, h.Routes())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpserver.Run(gctx, srv, logger) })
	g.Go(func() error { return a.PurgeLoop(gctx, 10*time.Minute, cfg.CacheTTL, logger) })

	logger.Info("testcasecraft started", "port", cfg.Port, "engines", a.Engines.Names(), "default", cfg.DefaultLLM)
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
