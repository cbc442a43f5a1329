// Package genaisdk adapts the unified Google Gen AI SDK to llm.Engine.
package genaisdk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"testcasecraft/api/internal/llm"
)

type Engine struct {
	APIKey string
	model  string
}

func New(apiKey, model string) *Engine {
	return &Engine{APIKey: strings.TrimSpace(apiKey), model: strings.TrimSpace(model)}
}

func (e *Engine) Name() string  { return "genai" }
func (e *Engine) Model() string { return e.model }

func (e *Engine) WithModel(model string) llm.Engine {
	cp := *e
	cp.model = strings.TrimSpace(model)
	return &cp
}

func (e *Engine) Generate(ctx context.Context, prompt string) (string, error) {
	if e.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  e.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("genai: new client: %w", err)
	}

	resp, err := cl.Models.GenerateContent(ctx, e.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	})
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}
	if len(resp.Candidates) == 0 && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", llm.Blocked(fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
	}
	return llm.ExtractText(candidateText(resp))
}

func candidateText(resp *genai.GenerateContentResponse) llm.CandidateText {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return llm.CandidateText{}
	}
	c := resp.Candidates[0]
	out := llm.CandidateText{Candidates: len(resp.Candidates), HasContent: c.Content != nil}
	if c.Content == nil {
		return out
	}
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		if p.Text != "" {
			out.Parts = append(out.Parts, p.Text)
		}
	}
	return out
}
