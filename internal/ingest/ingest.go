package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"contract-discovery/internal/chromemdb"
	"contract-discovery/internal/chunker"
	"contract-discovery/internal/embedding"
	"contract-discovery/internal/extractor"
	"contract-discovery/internal/helper"
	"contract-discovery/internal/models"
)

// Service runs the ingestion pipelines: legal documents through the
// extract/chunk/embed/store chain, and contract notices into the
// contracts collection for match scoring.
type Service struct {
	chunker  *chunker.Chunker
	embedder *embeddings.EmbedderImpl
	vectors  *chromemdb.VectorDBManager
}

func NewService(ch *chunker.Chunker, embedder *embeddings.EmbedderImpl, vectors *chromemdb.VectorDBManager) *Service {
	return &Service{chunker: ch, embedder: embedder, vectors: vectors}
}

// DocumentStats summarises one document ingestion run
type DocumentStats struct {
	DocumentID string
	Filename   string
	Chunks     int
	Duration   time.Duration
}

// ProcessDocument extracts text from the file, chunks it, embeds every
// chunk and stores the results in the documents collection. Chunk IDs
// are derived from the content hash, so re-ingesting the same file
// overwrites its previous chunks instead of duplicating them.
func (s *Service) ProcessDocument(ctx context.Context, filePath string) (*DocumentStats, error) {
	start := time.Now()
	filename := filepath.Base(filePath)

	text, err := extractor.ExtractText(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", filename, err)
	}

	documentID := helper.DocumentID(text)
	chunks := s.chunker.ChunkDocument(text, map[string]string{
		"filename":    filename,
		"document_id": documentID,
	})
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no usable chunks in %s", filename)
	}

	chunkEmbeddings, err := embedding.EmbedChunks(ctx, s.embedder, filename, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %s: %w", filename, err)
	}

	docs := make([]chromem.Document, 0, len(chunkEmbeddings))
	for _, ce := range chunkEmbeddings {
		docs = append(docs, chromem.Document{
			ID:      fmt.Sprintf("%s-%d", documentID, ce.ChunkID),
			Content: ce.Content,
			Metadata: map[string]string{
				"filename":      ce.SourceFilename,
				"document_id":   documentID,
				"page":          strconv.Itoa(ce.Page),
				"chunk_type":    ce.ChunkType,
				"clause_number": ce.ClauseNumber,
			},
			Embedding: ce.Embedding,
		})
	}
	if err := s.vectors.AddDocuments(ctx, chromemdb.CollectionDocuments, docs); err != nil {
		return nil, err
	}

	stats := &DocumentStats{
		DocumentID: documentID,
		Filename:   filename,
		Chunks:     len(docs),
		Duration:   time.Since(start),
	}
	log.Info().
		Str("document_id", documentID).
		Str("filename", filename).
		Int("chunks", stats.Chunks).
		Dur("duration", stats.Duration).
		Msg("Ingested document")
	return stats, nil
}

// StoreContracts embeds each contract's title and description and writes
// the vectors to the contracts collection, assigning vector IDs as it
// goes. Returns the contracts with their VectorID set.
func (s *Service) StoreContracts(ctx context.Context, contracts []models.Contract) ([]models.Contract, error) {
	docs := make([]chromem.Document, 0, len(contracts))
	for i := range contracts {
		contract := &contracts[i]
		text := contract.Title
		if contract.Description != "" {
			text += "\n\n" + contract.Description
		}

		vector, err := s.embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed contract %s: %w", contract.NoticeID, err)
		}

		vectorID, err := helper.GenerateUUID()
		if err != nil {
			return nil, err
		}
		contract.VectorID = vectorID
		contract.Embedding = vector

		docs = append(docs, chromem.Document{
			ID:      vectorID,
			Content: text,
			Metadata: map[string]string{
				"notice_id": contract.NoticeID,
				"buyer":     contract.BuyerName,
				"region":    contract.Region,
			},
			Embedding: vector,
		})
	}
	if len(docs) == 0 {
		return contracts, nil
	}

	if err := s.vectors.AddDocuments(ctx, chromemdb.CollectionContracts, docs); err != nil {
		return nil, err
	}
	log.Info().Int("contracts", len(docs)).Msg("Stored contract embeddings")
	return contracts, nil
}

// SearchDocuments runs a similarity query over the ingested documents
func (s *Service) SearchDocuments(ctx context.Context, query string, topK int) ([]chromem.Result, error) {
	vector, err := embedding.EmbedQuery(ctx, s.embedder, query)
	if err != nil {
		return nil, err
	}
	return s.vectors.Query(ctx, chromemdb.CollectionDocuments, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       topK,
	})
}
