package main

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"testcasecraft/api/internal/app"
	"testcasecraft/api/internal/config"
	handle "testcasecraft/api/internal/handle"
	"testcasecraft/api/internal/httpserver"
	"testcasecraft/api/internal/llm"
	"testcasecraft/api/internal/telegram"
)

func main() {
	cfg := config.Load()

	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8080"
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("missing required env TELEGRAM_BOT_TOKEN")
	}

	logger := config.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false

	def, _ := a.Engines.Default()
	r := &telegram.Router{
		Bot:         bot,
		Gen:         a.Service,
		EngManager:  llm.NewManager(def),
		EngineNames: a.Engines.Names(),
		Log:         logger,
	}

	// The HTTP surface shares the port with the webhook handler.
	mux := http.NewServeMux()
	handle.New(a.Service, a.Engines.Names(), logger, a.Ping()).Register(mux)

	g, gctx := errgroup.WithContext(ctx)
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		updates, err := setupWebhook(bot, mux, webhookURL, logger)
		if err != nil {
			log.Fatal(err)
		}
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case upd := <-updates:
					r.HandleUpdate(gctx, upd)
				}
			}
		})
	} else {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("delete webhook", "error", err)
		}
		g.Go(func() error {
			telegram.RunPolling(gctx, bot, logger, func(upd tgbotapi.Update) { r.HandleUpdate(gctx, upd) })
			return nil
		})
	}

	srv := httpserver.New("0.0.0.0:"+cfg.Port, handle.RequestLog(logger, mux))
	g.Go(func() error { return httpserver.Run(gctx, srv, logger) })
	g.Go(func() error { return a.PurgeLoop(gctx, 10*time.Minute, cfg.CacheTTL, logger) })

	logger.Info("bot started", "account", bot.Self.UserName, "webhook", cfg.WebhookURL != "")
	err = g.Wait()
	r.Wait()
	if err != nil {
		log.Fatal(err)
	}
}

// setupWebhook registers the webhook on a secret path derived from the
// token and mounts its handler on mux.
func setupWebhook(bot *tgbotapi.BotAPI, mux *http.ServeMux, baseURL string, logger *slog.Logger) (tgbotapi.UpdatesChannel, error) {
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return nil, err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return nil, err
	}

	updates := make(chan tgbotapi.Update, bot.Buffer)
	mux.HandleFunc(path, webhookHandler(bot, updates, logger))
	return updates, nil
}

type updateDecoder interface {
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// webhookHandler queues decoded updates. A request whose context ends
// before the update is queued gets 503 so Telegram redelivers it.
func webhookHandler(dec updateDecoder, updates chan<- tgbotapi.Update, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		upd, err := dec.HandleUpdate(req)
		if err != nil {
			logger.Warn("webhook update", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		select {
		case updates <- *upd:
		case <-req.Context().Done():
			logger.Warn("webhook update dropped", "update_id", upd.UpdateID, "error", req.Context().Err())
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
}

// shortHash is only required to be stable for a given token.
func shortHash(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}
