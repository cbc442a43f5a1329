package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"testcasecraft/api/internal/prompt"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID

	o, ok := applyCallback(cid, cb.Data)
	if !ok {
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(cid, cb.Message.MessageID, optionsText(o), optionsKeyboard(o))
	if _, err := r.Bot.Send(edit); err != nil {
		r.log().Warn("telegram edit failed", "chat", cid, "error", err)
	}
}

// applyCallback updates the chat's options from keyboard data.
func applyCallback(chatID int64, data string) (prompt.Options, bool) {
	switch {
	case strings.HasPrefix(data, cbDepth):
		d, err := prompt.ParseDepth(strings.TrimPrefix(data, cbDepth))
		if err != nil {
			return prompt.Options{}, false
		}
		return updateOptions(chatID, func(o *prompt.Options) { o.Depth = d }), true
	case strings.HasPrefix(data, cbStyle):
		f, err := prompt.ParseFramework(strings.TrimPrefix(data, cbStyle))
		if err != nil {
			return prompt.Options{}, false
		}
		return updateOptions(chatID, func(o *prompt.Options) { o.Framework = f }), true
	case strings.HasPrefix(data, cbFocus):
		fs, err := prompt.ParseFocus([]string{strings.TrimPrefix(data, cbFocus)})
		if err != nil || len(fs) != 1 {
			return prompt.Options{}, false
		}
		return updateOptions(chatID, func(o *prompt.Options) { o.Focus = toggleFocus(o.Focus, fs[0]) }), true
	case data == cbNeg:
		return updateOptions(chatID, func(o *prompt.Options) { o.IncludeNegative = !o.IncludeNegative }), true
	case data == cbEdge:
		return updateOptions(chatID, func(o *prompt.Options) { o.IncludeEdge = !o.IncludeEdge }), true
	}
	return prompt.Options{}, false
}

func toggleFocus(focus []string, f string) []string {
	out := focus[:0]
	found := false
	for _, s := range focus {
		if s == f {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, f)
	}
	return out
}
