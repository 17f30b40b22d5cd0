// Package deepseek configures the OpenAI-compatible DeepSeek endpoint.
package deepseek

import (
	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm/openai"
)

const (
	defaultModel   = "deepseek-chat"
	defaultBaseURL = "https://api.deepseek.com/v1"
)

// NewProvider creates a new DeepSeek provider
func NewProvider(cfg config.DeepSeekConfig) *openai.Provider {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return openai.NewCompatible("deepseek", cfg.APIKey, model, baseURL)
}
