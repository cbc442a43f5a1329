package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"testcasecraft/api/internal/llm"
	"testcasecraft/api/internal/matrix"
	"testcasecraft/api/internal/util"
)

const (
	// Bot API download limit.
	maxFileBytes      = 20 << 20
	generationTimeout = 180 * time.Second
	previewRunes      = 3500
)

var errFileTooLarge = errors.New("file is larger than 20 MB")

func isPDFDocument(d *tgbotapi.Document) bool {
	if strings.EqualFold(d.MimeType, util.MimePDF) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(d.FileName), ".pdf")
}

func (r *Router) acceptDocument(ctx context.Context, msg tgbotapi.Message) {
	cid := msg.Chat.ID
	doc := msg.Document
	if !isPDFDocument(doc) {
		r.send(cid, "Please send the BRD as a PDF file.")
		return
	}
	if doc.FileSize > maxFileBytes {
		r.send(cid, "The file is too large: bots can download up to 20 MB.")
		return
	}
	if _, busy := inflight.LoadOrStore(cid, struct{}{}); busy {
		r.send(cid, "Still working on your previous document, please wait.")
		return
	}
	name := doc.FileName
	if name == "" {
		name = "document.pdf"
	}
	r.send(cid, "📄 "+name+" received. Analyzing and generating the matrix, this can take a minute…")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer inflight.Delete(cid)
		r.processDocument(ctx, cid, doc.FileID)
	}()
}

func (r *Router) processDocument(ctx context.Context, chatID int64, fileID string) {
	log := r.log().With("chat", chatID)
	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.SendError(chatID, fmt.Errorf("get file: %w", err))
		return
	}
	dl := r.Download
	if dl == nil {
		dl = download
	}
	data, err := dl(ctx, url)
	if errors.Is(err, errFileTooLarge) {
		r.send(chatID, "The file is too large: bots can download up to 20 MB.")
		return
	}
	if err != nil {
		r.SendError(chatID, fmt.Errorf("download: %w", err))
		return
	}
	if !util.IsPDF(data) {
		r.send(chatID, "This file does not look like a PDF.")
		return
	}

	req := matrix.Request{PDF: data, Options: getOptions(chatID)}
	if r.EngManager != nil {
		if eng := r.EngManager.Get(chatID); eng != nil {
			req.LLMName, req.Model = eng.Name(), eng.Model()
		}
	}
	out, err := r.Gen.Generate(ctx, req)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	if !out.OK() {
		log.Warn("generate failed", "kind", out.Kind, "attempts", out.Attempts, "error", out.Err)
		r.send(chatID, failureText(out.Result))
		return
	}
	log.Info("generate ok", "engine", out.Engine, "model", out.Model, "cached", out.Cached)
	r.SendResult(chatID, out)
}

func failureText(res llm.Result) string {
	switch res.Kind {
	case llm.KindRateLimited:
		return "⚠️ Quota limit reached. Please wait a minute and send the document again."
	case llm.KindContentBlocked:
		return "⚠️ The model declined to answer for this document (content blocked)."
	case llm.KindEmptyResponse:
		return "⚠️ The model returned an empty response. Try again or change /options."
	}
	return fmt.Sprintf("❌ Generation failed: %v", res.Err)
}

// SendResult posts a preview and attaches the matrix as .md, plus .xlsx
// when the table converts.
func (r *Router) SendResult(chatID int64, out matrix.Outcome) {
	text := out.Text
	if utf8.RuneCountInString(text) > previewRunes {
		text = string([]rune(text)[:previewRunes]) + "…"
	}
	var note []string
	if out.Truncated {
		note = append(note, "document was truncated")
	}
	if len(out.FailedPages) > 0 {
		note = append(note, fmt.Sprintf("%d page(s) could not be read", len(out.FailedPages)))
	}
	head := "📊 Generated Test Matrix"
	if len(note) > 0 {
		head += " (" + strings.Join(note, "; ") + ")"
	}
	r.send(chatID, head+"\n\n"+text)

	r.sendFile(chatID, matrix.FormatMarkdown.FileName(), []byte(out.Text))

	var buf bytes.Buffer
	if err := matrix.WriteXLSX(&buf, out.Text); err != nil {
		r.log().Info("xlsx export skipped", "chat", chatID, "error", err)
		return
	}
	r.sendFile(chatID, matrix.FormatXLSX.FileName(), buf.Bytes())
}

func (r *Router) sendFile(chatID int64, name string, b []byte) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: b})
	if _, err := r.Bot.Send(doc); err != nil {
		r.log().Warn("telegram send document failed", "chat", chatID, "file", name, "error", err)
	}
}

func (r *Router) SendError(chatID int64, err error) {
	r.log().Warn("document processing failed", "chat", chatID, "error", err)
	r.send(chatID, fmt.Sprintf("❌ %v", err))
}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		// the URL carries the bot token
		var uerr *neturl.Error
		if errors.As(err, &uerr) {
			return nil, uerr.Err
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFileBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxFileBytes {
		return nil, errFileTooLarge
	}
	return b, nil
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
