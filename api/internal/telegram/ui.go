package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"testcasecraft/api/internal/prompt"
)

const (
	cbDepth = "opt:depth:"
	cbStyle = "opt:style:"
	cbFocus = "opt:focus:"
	cbNeg   = "opt:neg"
	cbEdge  = "opt:edge"
)

func mark(on bool) string {
	if on {
		return "✅ "
	}
	return ""
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func optionsText(o prompt.Options) string {
	focus := strings.Join(o.Focus, ", ")
	if focus == "" {
		focus = "none"
	}
	return fmt.Sprintf("Current options:\nDepth: %s\nFormat: %s\nFocus: %s\nNegative cases: %s\nEdge cases: %s",
		o.Depth, o.Framework, focus, onOff(o.IncludeNegative), onOff(o.IncludeEdge))
}

func hasFocus(o prompt.Options, f string) bool {
	for _, s := range o.Focus {
		if s == f {
			return true
		}
	}
	return false
}

// optionsKeyboard renders the inline settings keyboard with the current
// choices ticked.
func optionsKeyboard(o prompt.Options) tgbotapi.InlineKeyboardMarkup {
	var depth []tgbotapi.InlineKeyboardButton
	for _, d := range prompt.Depths {
		depth = append(depth, tgbotapi.NewInlineKeyboardButtonData(mark(o.Depth == d)+string(d), cbDepth+string(d)))
	}
	style := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(mark(o.Framework == prompt.FrameworkManual)+"Manual", cbStyle+"manual"),
		tgbotapi.NewInlineKeyboardButtonData(mark(o.Framework == prompt.FrameworkBDD)+"BDD", cbStyle+"bdd"),
	)
	var focus []tgbotapi.InlineKeyboardButton
	for _, f := range prompt.FocusAreas {
		focus = append(focus, tgbotapi.NewInlineKeyboardButtonData(mark(hasFocus(o, f))+f, cbFocus+f))
	}
	toggles := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(mark(o.IncludeNegative)+"Negative", cbNeg),
		tgbotapi.NewInlineKeyboardButtonData(mark(o.IncludeEdge)+"Edge", cbEdge),
	)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(depth...),
		style,
		tgbotapi.NewInlineKeyboardRow(focus[:2]...),
		tgbotapi.NewInlineKeyboardRow(focus[2:]...),
		toggles,
	)
}
