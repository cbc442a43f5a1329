package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Engine is a hosted text-generation backend.
type Engine interface {
	Name() string
	Model() string
	// Generate sends one prompt and returns the model text. Implementations
	// return *Error for content blocks and empty responses.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ModelSwitcher is implemented by engines that can serve another model
// with the same credentials. The receiver is left unchanged.
type ModelSwitcher interface {
	WithModel(model string) Engine
}

// Engines is the set of configured backends addressed by llm_name.
type Engines struct {
	def string
	m   map[string]Engine
}

func NewEngines(defaultName string) *Engines {
	return &Engines{def: strings.ToLower(strings.TrimSpace(defaultName)), m: map[string]Engine{}}
}

// Register adds an engine under its Name(). Nil engines are ignored.
func (e *Engines) Register(eng Engine) {
	if eng == nil {
		return
	}
	e.m[eng.Name()] = eng
}

// GetEngine resolves llm_name; empty means the default engine.
func (e *Engines) GetEngine(llmName string) (Engine, error) {
	name := strings.ToLower(strings.TrimSpace(llmName))
	if name == "" {
		name = e.def
	}
	if name == "openai" {
		name = "gpt"
	}
	if eng, ok := e.m[name]; ok {
		return eng, nil
	}
	return nil, fmt.Errorf("unknown llm_name %q; use one of: %s", llmName, strings.Join(e.Names(), ", "))
}

func (e *Engines) Default() (Engine, error) { return e.GetEngine("") }

// Names lists registered engines in stable order.
func (e *Engines) Names() []string {
	out := make([]string, 0, len(e.m))
	for k := range e.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Manager keeps a per-chat engine choice on top of the default.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}
