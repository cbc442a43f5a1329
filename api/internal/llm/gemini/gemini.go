package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"testcasecraft/api/internal/llm"
)

// Engine calls the Gemini API with an API key through generative-ai-go.
type Engine struct {
	APIKey string
	model  string
	opts   []option.ClientOption
}

func New(apiKey, model string, opts ...option.ClientOption) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
		opts:   opts,
	}
}

func (e *Engine) Name() string  { return "gemini" }
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
	opts := append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.opts...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("gemini: new client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0.2),
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", llm.Blocked(err)
		}
		return "", fmt.Errorf("gemini generate: %w", err)
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
		if t, ok := p.(genai.Text); ok {
			out.Parts = append(out.Parts, string(t))
		}
	}
	return out
}

func ptrFloat32(v float32) *float32 { return &v }
