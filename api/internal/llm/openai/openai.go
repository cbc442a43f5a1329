package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"testcasecraft/api/internal/llm"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Engine talks to the OpenAI chat completions endpoint.
type Engine struct {
	APIKey  string
	BaseURL string
	model   string
	httpc   *http.Client
}

func New(key, model string) *Engine {
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		BaseURL: defaultBaseURL,
		model:   strings.TrimSpace(model),
		httpc:   &http.Client{Timeout: 120 * time.Second},
	}
}

func (e *Engine) Name() string  { return "gpt" }
func (e *Engine) Model() string { return e.model }

func (e *Engine) WithModel(model string) llm.Engine {
	cp := *e
	cp.model = strings.TrimSpace(model)
	return &cp
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
			Refusal string  `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (e *Engine) Generate(ctx context.Context, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY is empty")
	}
	body := map[string]any{
		"model": e.model,
		"messages": []any{
			map[string]any{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}

	url := strings.TrimRight(e.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return "", &llm.HTTPStatusError{Provider: "openai", Code: resp.StatusCode, Body: strings.TrimSpace(string(x))}
	}

	var raw chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("openai: decode: %w", err)
	}
	return llm.ExtractText(candidateText(raw))
}

func candidateText(raw chatResponse) llm.CandidateText {
	if len(raw.Choices) == 0 {
		return llm.CandidateText{}
	}
	c := raw.Choices[0]
	if c.Message.Refusal != "" || c.FinishReason == "content_filter" {
		return llm.CandidateText{}
	}
	out := llm.CandidateText{Candidates: len(raw.Choices), HasContent: c.Message.Content != nil}
	if c.Message.Content != nil && *c.Message.Content != "" {
		out.Parts = []string{*c.Message.Content}
	}
	return out
}
