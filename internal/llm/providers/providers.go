// Package providers builds the single completion gateway selected by configuration.
package providers

import (
	"fmt"

	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm/anthropic"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm/deepseek"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm/gemini"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm/ollama"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm/openai"
	"github.com/rs/zerolog/log"
)

// New returns the gateway named by cfg.Provider
func New(cfg config.LLMConfig) (llm.Gateway, error) {
	var gateway llm.Gateway
	var keyMissing bool

	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		gateway = openai.NewProvider(cfg.OpenAI)
		keyMissing = cfg.OpenAI.APIKey == ""
	case config.ProviderOllama:
		gateway = ollama.NewProvider(cfg.Ollama)
	case config.ProviderGemini:
		gateway = gemini.NewProvider(cfg.Gemini)
		keyMissing = cfg.Gemini.APIKey == ""
	case config.ProviderAnthropic:
		gateway = anthropic.NewProvider(cfg.Anthropic)
		keyMissing = cfg.Anthropic.APIKey == ""
	case config.ProviderDeepSeek:
		gateway = deepseek.NewProvider(cfg.DeepSeek)
		keyMissing = cfg.DeepSeek.APIKey == ""
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}

	if keyMissing {
		log.Warn().Str("provider", gateway.Name()).Msg("API key is empty, upstream calls will be rejected")
	}
	log.Info().Str("provider", gateway.Name()).Msg("Completion gateway ready")

	return gateway, nil
}
