package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedEngine struct {
	scriptedEngine
	name string
}

func (n *namedEngine) Name() string { return n.name }

func TestEngines_GetEngine(t *testing.T) {
	engs := NewEngines("gemini")
	engs.Register(&namedEngine{name: "gemini"})
	engs.Register(&namedEngine{name: "gpt"})
	engs.Register(nil)

	def, err := engs.GetEngine("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", def.Name())

	gpt, err := engs.GetEngine(" OpenAI ")
	require.NoError(t, err)
	assert.Equal(t, "gpt", gpt.Name())

	_, err = engs.GetEngine("deepseek")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini, gpt")
	assert.Equal(t, []string{"gemini", "gpt"}, engs.Names())
}

func TestManager_PerChatOverride(t *testing.T) {
	def := &namedEngine{name: "gemini"}
	other := &namedEngine{name: "gpt"}
	m := NewManager(def)

	assert.Equal(t, "gemini", m.Get(1).Name())
	m.Set(1, other)
	assert.Equal(t, "gpt", m.Get(1).Name())
	assert.Equal(t, "gemini", m.Get(2).Name())
}
