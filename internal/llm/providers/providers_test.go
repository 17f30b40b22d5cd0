package providers_test

import (
	"testing"

	"github.com/Lsoni680/ai-chatbot-new/internal/config"
	"github.com/Lsoni680/ai-chatbot-new/internal/llm/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, name := range []string{
		config.ProviderOpenAI,
		config.ProviderOllama,
		config.ProviderGemini,
		config.ProviderAnthropic,
		config.ProviderDeepSeek,
	} {
		t.Run(name, func(t *testing.T) {
			gateway, err := providers.New(config.LLMConfig{Provider: name})
			require.NoError(t, err)
			assert.Equal(t, name, gateway.Name())
		})
	}

	_, err := providers.New(config.LLMConfig{Provider: "cohere"})
	assert.Error(t, err)
}
