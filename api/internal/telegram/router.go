package telegram

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"testcasecraft/api/internal/llm"
	"testcasecraft/api/internal/matrix"
)

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Generator runs the matrix pipeline and resolves engines for /engine.
type Generator interface {
	Generate(ctx context.Context, req matrix.Request) (matrix.Outcome, error)
	Engine(llmName, model string) (llm.Engine, error)
}

type Router struct {
	Bot        Bot
	Gen        Generator
	EngManager *llm.Manager
	// EngineNames is shown by /engine.
	EngineNames []string
	Log         *slog.Logger

	// Download fetches a Telegram file URL; nil uses a plain HTTP GET.
	Download func(ctx context.Context, url string) ([]byte, error)

	wg sync.WaitGroup
}

func (r *Router) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case msg.Document != nil:
		r.acceptDocument(ctx, *msg)
	default:
		r.send(msg.Chat.ID, "Send me a BRD as a PDF document and I will reply with a QA test case matrix. /options shows the current settings.")
	}
}

// Wait blocks until running generations finish.
func (r *Router) Wait() { r.wg.Wait() }

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().Warn("telegram send failed", "chat", chatID, "error", err)
	}
}
