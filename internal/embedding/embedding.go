package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"contract-discovery/internal/config"
	"contract-discovery/internal/models"
)

// NewEmbedder selects the embedding backend from config. An empty
// provider defaults to ollama.
func NewEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaEmbedder(cfg)
	case "openai":
		return NewOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}

// NewOpenAIEmbedder creates an embedder backed by an OpenAI-compatible API
func NewOpenAIEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// NewOllamaEmbedder creates an embedder backed by a local ollama server
func NewOllamaEmbedder(cfg *config.LLMConfig) (*embeddings.EmbedderImpl, error) {
	log.Debug().Str("base_url", cfg.BaseURL).Str("model", cfg.Model).Msg("Initializing ollama embedder")

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm)
}

// EmbedChunks generates an embedding per chunk. Chunk order is preserved
// so stored vectors line up with the chunk metadata.
func EmbedChunks(ctx context.Context, embedder *embeddings.EmbedderImpl, filename string, chunks []models.Chunk) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		log.Info().Str("filename", filename).Msg("No chunks to embed")
		return nil, nil
	}

	chunkEmbeddings := make([]models.ChunkEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := embedder.EmbedQuery(ctx, chunk.Content)
		if err != nil {
			return nil, err
		}
		chunkEmbeddings = append(chunkEmbeddings, models.ChunkEmbedding{
			Content:        chunk.Content,
			Embedding:      vector,
			SourceFilename: filename,
			Page:           chunk.Page,
			ChunkID:        i + 1,
			ChunkType:      chunk.ChunkType,
			ClauseNumber:   chunk.ClauseNumber,
		})
	}
	return chunkEmbeddings, nil
}

// EmbedQuery embeds a single piece of text
func EmbedQuery(ctx context.Context, embedder *embeddings.EmbedderImpl, text string) ([]float32, error) {
	return embedder.EmbedQuery(ctx, text)
}
