package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func webhookRequest(ctx context.Context, body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/webhook/x", strings.NewReader(body)).WithContext(ctx)
}

func TestWebhookHandler_QueuesUpdate(t *testing.T) {
	updates := make(chan tgbotapi.Update, 1)
	h := webhookHandler(&tgbotapi.BotAPI{}, updates, discardLogger())

	rec := httptest.NewRecorder()
	h(rec, webhookRequest(context.Background(), `{"update_id":42,"message":{"message_id":1,"chat":{"id":7},"text":"/start"}}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, updates, 1)
	assert.Equal(t, 42, (<-updates).UpdateID)
}

func TestWebhookHandler_ReturnsWhenNobodyConsumes(t *testing.T) {
	updates := make(chan tgbotapi.Update)
	h := webhookHandler(&tgbotapi.BotAPI{}, updates, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	h(rec, webhookRequest(ctx, `{"update_id":43}`))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebhookHandler_BadBody(t *testing.T) {
	updates := make(chan tgbotapi.Update, 1)
	h := webhookHandler(&tgbotapi.BotAPI{}, updates, discardLogger())

	rec := httptest.NewRecorder()
	h(rec, webhookRequest(context.Background(), `not json`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, updates)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "cbf29ce484222325", shortHash(""))
	assert.Len(t, shortHash("123456:ABC-token"), 16)
	assert.Equal(t, shortHash("123456:ABC-token"), shortHash("123456:ABC-token"))
	assert.NotEqual(t, shortHash("a"), shortHash("b"))
}
