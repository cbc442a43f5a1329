package vertex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"testcasecraft/api/internal/llm"
)

// Engine calls Gemini through Vertex AI using application default
// credentials. One client is shared by all models derived via WithModel.
type Engine struct {
	client *genai.Client
	model  string
}

// New creates a Vertex AI client for the given project and region.
func New(ctx context.Context, projectID, region, model string) (*Engine, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex: projectID and region cannot be empty")
	}
	cl, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Engine{client: cl, model: strings.TrimSpace(model)}, nil
}

func (e *Engine) Name() string  { return "vertex" }
func (e *Engine) Model() string { return e.model }

func (e *Engine) WithModel(model string) llm.Engine {
	return &Engine{client: e.client, model: strings.TrimSpace(model)}
}

func (e *Engine) Generate(ctx context.Context, prompt string) (string, error) {
	m := e.client.GenerativeModel(e.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.2),
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return "", llm.Blocked(err)
		}
		return "", fmt.Errorf("vertex generate: %w", err)
	}
	return llm.ExtractText(candidateText(resp))
}

func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
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
