package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-discovery/internal/config"
)

func TestNewEmbedder_ProviderSelection(t *testing.T) {
	ollamaCfg := &config.LLMConfig{
		Provider: "ollama",
		BaseURL:  "http://localhost:11434",
		Model:    "nomic-embed-text",
	}
	embedder, err := NewEmbedder(ollamaCfg)
	require.NoError(t, err)
	assert.NotNil(t, embedder)

	// empty provider defaults to ollama
	ollamaCfg.Provider = ""
	embedder, err = NewEmbedder(ollamaCfg)
	require.NoError(t, err)
	assert.NotNil(t, embedder)

	openaiCfg := &config.LLMConfig{
		Provider: "openai",
		BaseURL:  "https://api.openai.com/v1",
		Key:      "test-key",
		Model:    "text-embedding-3-small",
	}
	embedder, err = NewEmbedder(openaiCfg)
	require.NoError(t, err)
	assert.NotNil(t, embedder)
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder(&config.LLMConfig{Provider: "qdrant"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qdrant")
}
