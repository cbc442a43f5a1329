package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Poller is the long-polling part of *tgbotapi.BotAPI.
type Poller interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

// RetryDelayFromError honours Telegram's "retry after N" hint on 429 and
// backs off a little on network timeouts.
func RetryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && tgErr.RetryAfter > 0 {
		return time.Duration(tgErr.RetryAfter) * time.Second
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

// RunPolling long-polls until ctx is done. Errors never stop the loop.
func RunPolling(ctx context.Context, bot Poller, log *slog.Logger, handle func(tgbotapi.Update)) {
	if log == nil {
		log = slog.Default()
	}
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(RetryDelayFromError(err), baseDelay), maxDelay)
			log.Warn("polling error", "error", err, "retryIn", d)
			if !sleep(ctx, d) {
				return
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 && !sleep(ctx, 200*time.Millisecond) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
