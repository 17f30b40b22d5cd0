package gemini

import (
	"context"
	"testing"

	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider(config.GeminiConfig{})
	assert.Equal(t, "gemini", p.Name())
	assert.Equal(t, defaultModel, p.model)
	assert.False(t, p.IsConfigured())
}

func TestProvider_Unconfigured(t *testing.T) {
	p := NewProvider(config.GeminiConfig{})

	_, err := p.Stream(context.Background(), "sys", "hi")
	assert.ErrorIs(t, err, domain.ErrUpstream)

	_, err = p.Complete(context.Background(), "sys", "hi")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestTextOf(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hel"), genai.Text("lo")}},
		}},
	}
	assert.Equal(t, "Hello", textOf(resp))
	assert.Empty(t, textOf(&genai.GenerateContentResponse{}))
	assert.Empty(t, textOf(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}
