package matrix

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testcasecraft/api/internal/llm"
	"testcasecraft/api/internal/pdftext/pdftest"
	"testcasecraft/api/internal/prompt"
	"testcasecraft/api/internal/store"
)

type fakeEngine struct {
	name, model string

	mu      sync.Mutex
	replies []reply
	prompts []string
}

type reply struct {
	text string
	err  error
}

func (f *fakeEngine) Name() string  { return f.name }
func (f *fakeEngine) Model() string { return f.model }

func (f *fakeEngine) Generate(_ context.Context, p string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	if len(f.replies) == 0 {
		return "| ID | Desc |\n|---|---|\n| 1 | ok |", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r.text, r.err
}

func (f *fakeEngine) WithModel(m string) llm.Engine {
	return &fakeEngine{name: f.name, model: m}
}

func (f *fakeEngine) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type noopClock struct{ n int }

func (c *noopClock) sleep(context.Context, time.Duration) error { c.n++; return nil }

func newService(eng llm.Engine, cache store.Cache) (*Service, *noopClock) {
	engs := llm.NewEngines(eng.Name())
	engs.Register(eng)
	clk := &noopClock{}
	return &Service{
		Engines: engs,
		Cache:   cache,
		Policy:  llm.Policy{Attempts: 3, Wait: 5 * time.Second, Sleep: clk.sleep},
	}, clk
}

func TestGenerateText_Success(t *testing.T) {
	eng := &fakeEngine{name: "gemini", model: "gemini-2.5-flash"}
	svc, _ := newService(eng, store.NewMemoryCache(time.Hour))

	out, err := svc.GenerateText(context.Background(), "Users log in.", Request{Options: prompt.DefaultOptions()})
	require.NoError(t, err)

	require.True(t, out.OK())
	assert.Contains(t, out.Text, "| 1 | ok |")
	assert.Equal(t, "gemini", out.Engine)
	assert.Equal(t, "gemini-2.5-flash", out.Model)
	assert.False(t, out.Cached)
	assert.False(t, out.Truncated)
	require.Len(t, eng.prompts, 1)
	assert.Contains(t, eng.prompts[0], "BRD CONTENT:\nUsers log in.")
}

func TestGenerateText_TruncatesDocument(t *testing.T) {
	eng := &fakeEngine{name: "gemini", model: "m"}
	svc, _ := newService(eng, nil)
	svc.MaxDocChars = 10

	out, err := svc.GenerateText(context.Background(), strings.Repeat("x", 25), Request{Options: prompt.DefaultOptions()})
	require.NoError(t, err)

	assert.True(t, out.Truncated)
	assert.Contains(t, eng.prompts[0], "BRD CONTENT:\n"+strings.Repeat("x", 10)+"\n")
	assert.NotContains(t, eng.prompts[0], strings.Repeat("x", 11))
}

func TestGenerateText_CacheHitWithinTTL(t *testing.T) {
	eng := &fakeEngine{name: "gemini", model: "m"}
	svc, _ := newService(eng, store.NewMemoryCache(time.Hour))
	req := Request{Options: prompt.DefaultOptions()}

	first, err := svc.GenerateText(context.Background(), "doc", req)
	require.NoError(t, err)
	second, err := svc.GenerateText(context.Background(), "doc", req)
	require.NoError(t, err)

	assert.Equal(t, 1, eng.calls())
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
}

func TestGenerateText_CacheExpiry(t *testing.T) {
	eng := &fakeEngine{name: "gemini", model: "m"}
	svc, _ := newService(eng, store.NewMemoryCache(time.Nanosecond))
	req := Request{Options: prompt.DefaultOptions()}

	_, err := svc.GenerateText(context.Background(), "doc", req)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	out, err := svc.GenerateText(context.Background(), "doc", req)
	require.NoError(t, err)

	assert.Equal(t, 2, eng.calls())
	assert.False(t, out.Cached)
}

func TestGenerateText_OptionsChangeKey(t *testing.T) {
	eng := &fakeEngine{name: "gemini", model: "m"}
	svc, _ := newService(eng, store.NewMemoryCache(time.Hour))

	o := prompt.DefaultOptions()
	_, _ = svc.GenerateText(context.Background(), "doc", Request{Options: o})
	o.Depth = prompt.DepthExhaustive
	_, _ = svc.GenerateText(context.Background(), "doc", Request{Options: o})

	assert.Equal(t, 2, eng.calls())
}

func TestGenerateText_FailuresAreNotCached(t *testing.T) {
	eng := &fakeEngine{name: "gemini", model: "m", replies: []reply{
		{err: errors.New("connection reset")},
	}}
	svc, _ := newService(eng, store.NewMemoryCache(time.Hour))
	req := Request{Options: prompt.DefaultOptions()}

	out, err := svc.GenerateText(context.Background(), "doc", req)
	require.NoError(t, err)
	assert.False(t, out.OK())
	assert.Equal(t, llm.KindProvider, out.Kind)

	out, err = svc.GenerateText(context.Background(), "doc", req)
	require.NoError(t, err)
	assert.True(t, out.OK())
	assert.False(t, out.Cached)
	assert.Equal(t, 2, eng.calls())
}

func TestGenerateText_RateLimitedAfterThreeAttempts(t *testing.T) {
	rl := errors.New("googleapi: Error 429: Resource has been exhausted")
	eng := &fakeEngine{name: "gemini", model: "m", replies: []reply{{err: rl}, {err: rl}, {err: rl}}}
	svc, clk := newService(eng, nil)

	out, err := svc.GenerateText(context.Background(), "doc", Request{Options: prompt.DefaultOptions()})
	require.NoError(t, err)

	assert.Equal(t, llm.KindRateLimited, out.Kind)
	assert.Equal(t, 3, eng.calls())
	assert.Equal(t, 2, clk.n)
}

func TestGenerateText_UnknownEngine(t *testing.T) {
	svc, _ := newService(&fakeEngine{name: "gemini", model: "m"}, nil)

	_, err := svc.GenerateText(context.Background(), "doc", Request{LLMName: "claude"})
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestGenerateText_ModelOverride(t *testing.T) {
	svc, _ := newService(&fakeEngine{name: "gemini", model: "gemini-2.5-flash"}, nil)

	out, err := svc.GenerateText(context.Background(), "doc", Request{Model: "gemini-2.5-pro", Options: prompt.DefaultOptions()})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", out.Model)
}

func TestGenerate_NotAPDF(t *testing.T) {
	svc, _ := newService(&fakeEngine{name: "gemini", model: "m"}, nil)

	_, err := svc.Generate(context.Background(), Request{PDF: []byte("hello")})
	assert.ErrorIs(t, err, ErrBadInput)
}

func TestGenerate_BlankPDFStillSendsPrompt(t *testing.T) {
	eng := &fakeEngine{name: "gemini", model: "gemini-2.5-flash"}
	svc, _ := newService(eng, nil)

	out, err := svc.Generate(context.Background(), Request{PDF: pdftest.Build(pdftest.Page{}), Options: prompt.DefaultOptions()})
	require.NoError(t, err)

	require.True(t, out.OK())
	assert.Equal(t, 1, out.PageCount)
	assert.Empty(t, out.FailedPages)
	require.Equal(t, 1, eng.calls())
	assert.True(t, strings.HasSuffix(eng.prompts[0], "BRD CONTENT:\n\n"), eng.prompts[0])
}

func TestGenerate_PDFTextReachesPrompt(t *testing.T) {
	eng := &fakeEngine{name: "gemini", model: "gemini-2.5-flash"}
	svc, _ := newService(eng, nil)

	pdf := pdftest.Build(pdftest.Page{Text: "Users reset passwords by email", Font: pdftest.CID})
	out, err := svc.Generate(context.Background(), Request{PDF: pdf, Options: prompt.DefaultOptions()})
	require.NoError(t, err)

	require.True(t, out.OK())
	require.Equal(t, 1, eng.calls())
	assert.True(t, strings.HasSuffix(eng.prompts[0], "BRD CONTENT:\nUsers reset passwords by email\n\n"), eng.prompts[0])
}
