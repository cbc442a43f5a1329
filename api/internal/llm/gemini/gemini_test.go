package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testcasecraft/api/internal/llm"
)

func TestCandidateText(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		_, err := llm.ExtractText(candidateText(nil))
		assert.Equal(t, llm.KindContentBlocked, llm.Classify(err))
	})
	t.Run("candidate without content", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}
		_, err := llm.ExtractText(candidateText(resp))
		assert.Equal(t, llm.KindEmptyResponse, llm.Classify(err))
	})
	t.Run("text parts only", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("| ID | Desc |\n"),
				&genai.Blob{MIMEType: "image/png", Data: []byte{1}},
				genai.Text("| 1 | Login |"),
			}},
		}}}
		got, err := llm.ExtractText(candidateText(resp))
		require.NoError(t, err)
		assert.Equal(t, "| ID | Desc |\n| 1 | Login |", got)
	})
}

func TestEngine_WithModelLeavesReceiver(t *testing.T) {
	e := New(" key ", "gemini-2.5-flash")
	other := e.WithModel("gemini-2.5-pro")

	assert.Equal(t, "gemini-2.5-flash", e.Model())
	assert.Equal(t, "gemini-2.5-pro", other.Model())
	assert.Equal(t, "gemini", other.Name())
	assert.Equal(t, "key", e.APIKey)
}

func TestEngine_MissingKey(t *testing.T) {
	_, err := New("", "m").Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, llm.KindProvider, llm.Classify(err))
}
