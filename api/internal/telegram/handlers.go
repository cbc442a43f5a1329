package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"testcasecraft/api/internal/prompt"
)

const helpText = `Send a BRD (business requirements document) as a PDF file and I will generate a QA test case matrix.

Settings:
/options – show and change options
/depth Standard|Detailed|Exhaustive
/style manual|bdd
/focus UI/UX,Security,API/Backend,Performance (or "none")
/negative on|off
/edge on|off
/engine <name> [model]
/health – service check`

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "health":
		r.send(cid, "✅ OK")
	case "options":
		r.sendOptions(cid)
	case "depth":
		d, err := prompt.ParseDepth(args)
		if err != nil {
			r.send(cid, "Usage: /depth Standard|Detailed|Exhaustive")
			return
		}
		o := updateOptions(cid, func(o *prompt.Options) { o.Depth = d })
		r.send(cid, "✅ Depth: "+string(o.Depth))
	case "style":
		f, err := prompt.ParseFramework(args)
		if err != nil {
			r.send(cid, "Usage: /style manual|bdd")
			return
		}
		o := updateOptions(cid, func(o *prompt.Options) { o.Framework = f })
		r.send(cid, "✅ Format: "+string(o.Framework))
	case "focus":
		r.handleFocusCommand(cid, args)
	case "negative":
		r.handleToggleCommand(cid, args, "negative", func(o *prompt.Options, v bool) { o.IncludeNegative = v })
	case "edge":
		r.handleToggleCommand(cid, args, "edge", func(o *prompt.Options, v bool) { o.IncludeEdge = v })
	case "engine":
		r.handleEngineCommand(cid, args)
	default:
		r.send(cid, "Unknown command. /start lists what I can do.")
	}
}

func (r *Router) sendOptions(chatID int64) {
	o := getOptions(chatID)
	msg := tgbotapi.NewMessage(chatID, optionsText(o))
	msg.ReplyMarkup = optionsKeyboard(o)
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().Warn("telegram send failed", "chat", chatID, "error", err)
	}
}

func (r *Router) handleFocusCommand(chatID int64, args string) {
	if args == "" {
		r.send(chatID, "Usage: /focus UI/UX,Security,API/Backend,Performance (or /focus none)")
		return
	}
	var focus []string
	if !strings.EqualFold(args, "none") {
		var err error
		if focus, err = prompt.ParseFocus([]string{args}); err != nil {
			r.send(chatID, "❌ "+err.Error())
			return
		}
	}
	o := updateOptions(chatID, func(o *prompt.Options) { o.Focus = focus })
	if len(o.Focus) == 0 {
		r.send(chatID, "✅ Focus cleared")
		return
	}
	r.send(chatID, "✅ Focus: "+strings.Join(o.Focus, ", "))
}

func (r *Router) handleToggleCommand(chatID int64, args, name string, set func(*prompt.Options, bool)) {
	var v bool
	switch strings.ToLower(args) {
	case "on", "yes", "true", "1":
		v = true
	case "off", "no", "false", "0":
		v = false
	default:
		r.send(chatID, "Usage: /"+name+" on|off")
		return
	}
	updateOptions(chatID, func(o *prompt.Options) { set(o, v) })
	r.send(chatID, "✅ "+strings.ToUpper(name[:1])+name[1:]+" cases: "+onOff(v))
}

// handleEngineCommand switches the chat's engine.
//
//	/engine gemini [model]
//	/engine genai [model]
//	/engine vertex [model]
//	/engine gpt [model]
func (r *Router) handleEngineCommand(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		cur := "default"
		if r.EngManager != nil {
			if e := r.EngManager.Get(chatID); e != nil {
				cur = e.Name() + " (" + e.Model() + ")"
			}
		}
		r.send(chatID, "Current engine: "+cur+"\nAvailable: "+strings.Join(r.EngineNames, " | ")+"\nUsage: /engine <name> [model]")
		return
	}
	var model string
	if len(fields) > 1 {
		model = fields[1]
	}
	eng, err := r.Gen.Engine(fields[0], model)
	if err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}
	if r.EngManager != nil {
		r.EngManager.Set(chatID, eng)
	}
	r.send(chatID, "✅ Engine: "+eng.Name()+" ("+eng.Model()+")")
}
