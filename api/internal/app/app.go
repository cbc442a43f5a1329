// Package app wires configuration into engines, cache and the matrix
// service shared by the HTTP and Telegram entry points.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"testcasecraft/api/internal/config"
	"testcasecraft/api/internal/llm"
	"testcasecraft/api/internal/llm/gemini"
	"testcasecraft/api/internal/llm/genaisdk"
	"testcasecraft/api/internal/llm/openai"
	"testcasecraft/api/internal/llm/vertex"
	"testcasecraft/api/internal/matrix"
	"testcasecraft/api/internal/store"
)

type App struct {
	Engines *llm.Engines
	Service *matrix.Service
	Cache   store.Cache
	// DB is nil when the in-memory cache is used.
	DB *sql.DB

	closers []func() error
}

// Engines registers every configured backend. Gemini and the unified
// SDK share GEMINI_API_KEY; vertex and gpt need their own settings.
func Engines(ctx context.Context, cfg *config.Config, log *slog.Logger) (*llm.Engines, []func() error) {
	engs := llm.NewEngines(cfg.DefaultLLM)
	engs.Register(gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel))
	engs.Register(genaisdk.New(cfg.GeminiAPIKey, cfg.GenAIModel))

	var closers []func() error
	if cfg.OpenAIAPIKey != "" {
		engs.Register(openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel))
	}
	if cfg.VertexProjectID != "" {
		v, err := vertex.New(ctx, cfg.VertexProjectID, cfg.VertexRegion, cfg.VertexModel)
		if err != nil {
			log.Warn("vertex engine disabled", "error", err)
		} else {
			engs.Register(v)
			closers = append(closers, v.Close)
		}
	}
	return engs, closers
}

// New builds the application. The Postgres cache is used when a DSN is
// configured, otherwise an in-process cache.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	engs, closers := Engines(ctx, cfg, log)
	if _, err := engs.Default(); err != nil {
		return nil, fmt.Errorf("DEFAULT_LLM: %w", err)
	}
	a := &App{Engines: engs, closers: closers}

	switch dsn := store.ResolveDSN(); {
	case cfg.CacheTTL <= 0:
		a.Cache = store.Nop{}
	case dsn != "":
		db, err := store.Open(ctx, dsn)
		if err != nil {
			a.Close()
			return nil, err
		}
		pg := store.NewPGCache(db, cfg.CacheTTL)
		if err := pg.Migrate(ctx); err != nil {
			db.Close()
			a.Close()
			return nil, fmt.Errorf("migrate cache: %w", err)
		}
		log.Info("db connected", "dsn", store.SafeDSNSummary(dsn))
		a.DB, a.Cache = db, pg
		a.closers = append(a.closers, db.Close)
	default:
		a.Cache = store.NewMemoryCache(cfg.CacheTTL)
	}

	a.Service = &matrix.Service{
		Engines: engs,
		Cache:   a.Cache,
		Policy: llm.Policy{
			Attempts: llm.DefaultAttempts,
			Wait:     cfg.RetryWait,
			Sleep:    llm.ContextSleep,
		},
		MaxDocChars: cfg.MaxDocChars,
		Log:         log,
	}
	return a, nil
}

// Ping checks the database; nil when there is none.
func (a *App) Ping() func(context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.PingContext
}

// PurgeLoop drops expired cache entries every interval until ctx ends.
func (a *App) PurgeLoop(ctx context.Context, every, ttl time.Duration, log *slog.Logger) error {
	if every <= 0 {
		every = 10 * time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		switch c := a.Cache.(type) {
		case *store.MemoryCache:
			if n := c.Purge(); n > 0 {
				log.Info("cache purged", "entries", n)
			}
		case *store.PGCache:
			n, err := c.PurgeOlderThan(ctx, ttl)
			if err != nil {
				log.Warn("cache purge failed", "error", err)
			} else if n > 0 {
				log.Info("cache purged", "rows", n)
			}
		}
	}
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
