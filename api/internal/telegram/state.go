package telegram

import (
	"sync"

	"testcasecraft/api/internal/prompt"
)

var (
	chatOptions sync.Map // chatID -> prompt.Options
	inflight    sync.Map // chatID -> struct{}, one generation per chat
)

func getOptions(chatID int64) prompt.Options {
	if v, ok := chatOptions.Load(chatID); ok {
		return v.(prompt.Options)
	}
	return prompt.DefaultOptions()
}

// updateOptions applies fn to a copy of the chat's options and stores it.
func updateOptions(chatID int64, fn func(o *prompt.Options)) prompt.Options {
	o := getOptions(chatID)
	o.Focus = append([]string(nil), o.Focus...)
	fn(&o)
	chatOptions.Store(chatID, o)
	return o
}
