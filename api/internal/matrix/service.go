package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"testcasecraft/api/internal/llm"
	"testcasecraft/api/internal/logx"
	"testcasecraft/api/internal/pdftext"
	"testcasecraft/api/internal/prompt"
	"testcasecraft/api/internal/store"
)

// DefaultMaxDocChars is the document budget sent to the model.
const DefaultMaxDocChars = 12000

// ErrBadInput marks request problems (unreadable PDF, unknown engine).
var ErrBadInput = errors.New("bad input")

// Request is one generation.
type Request struct {
	PDF     []byte
	Options prompt.Options
	LLMName string
	// Model overrides the engine's configured model when the engine
	// supports it.
	Model string
}

// Outcome is the result of Service.Generate. Result carries either the
// markdown or the classified failure.
type Outcome struct {
	llm.Result
	Cached      bool
	Engine      string
	Model       string
	Truncated   bool
	PageCount   int
	FailedPages []int
}

// Service runs extract → truncate → prompt → cache → model.
type Service struct {
	Engines     *llm.Engines
	Cache       store.Cache
	Policy      llm.Policy
	MaxDocChars int
	Log         *slog.Logger
}

func (s *Service) logger(ctx context.Context) *slog.Logger {
	return logx.From(ctx, s.Log)
}

// Engine resolves llmName and applies a model override.
func (s *Service) Engine(llmName, model string) (llm.Engine, error) {
	eng, err := s.Engines.GetEngine(llmName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	if model == "" || model == eng.Model() {
		return eng, nil
	}
	sw, ok := eng.(llm.ModelSwitcher)
	if !ok {
		return nil, fmt.Errorf("%w: engine %s does not support model override", ErrBadInput, eng.Name())
	}
	return sw.WithModel(model), nil
}

// Generate extracts the PDF and runs GenerateText on it. A non-nil error
// wraps ErrBadInput; model failures are reported in Outcome.
func (s *Service) Generate(ctx context.Context, req Request) (Outcome, error) {
	doc, err := pdftext.FromBytes(req.PDF, s.logger(ctx))
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	out, err := s.GenerateText(ctx, doc.Content, req)
	out.PageCount = doc.PageCount
	out.FailedPages = doc.FailedPages
	return out, err
}

// GenerateText runs the pipeline on already extracted document text.
func (s *Service) GenerateText(ctx context.Context, docText string, req Request) (Outcome, error) {
	eng, err := s.Engine(req.LLMName, req.Model)
	if err != nil {
		return Outcome{}, err
	}
	limit := s.MaxDocChars
	if limit <= 0 {
		limit = DefaultMaxDocChars
	}
	text, truncated := pdftext.Truncate(docText, limit)

	out := Outcome{Engine: eng.Name(), Model: eng.Model(), Truncated: truncated}
	log := s.logger(ctx).With("engine", out.Engine, "model", out.Model)

	cache := s.Cache
	if cache == nil {
		cache = store.Nop{}
	}
	key := store.Key(text, req.Options.Key(), out.Engine, out.Model)
	if e, ok, err := cache.Get(ctx, key); err != nil {
		log.Warn("cache lookup failed", "error", err)
	} else if ok {
		log.Info("cache hit")
		out.Result = llm.Result{Text: e.Markdown}
		out.Cached = true
		return out, nil
	}

	p := s.Policy
	if p.Logger == nil {
		p.Logger = log
	}
	out.Result = llm.Generate(ctx, eng, prompt.Build(req.Options, text), p)
	if !out.OK() {
		return out, nil
	}
	if err := cache.Put(ctx, key, store.Entry{Markdown: out.Text, Engine: out.Engine, Model: out.Model}); err != nil {
		log.Warn("cache store failed", "error", err)
	}
	return out, nil
}
