package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	for _, providerType := range []string{"gemini", "google", "openai", "anthropic"} {
		p, err := NewLLMProvider(providerType, "key", "", "model")
		require.NoError(t, err, providerType)
		assert.NotNil(t, p, providerType)
	}
}

func TestNewLLMProviderUnsupported(t *testing.T) {
	_, err := NewLLMProvider("cohere", "key", "", "model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}
