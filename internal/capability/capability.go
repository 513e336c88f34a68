package capability

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"

	"contract-discovery/internal/chromemdb"
	"contract-discovery/internal/db"
	"contract-discovery/internal/helper"
)

// Store keeps company capabilities in sync between the relational store
// and the vector store so the match scorer can resolve their embeddings.
type Store struct {
	db       *bun.DB
	vectors  *chromemdb.VectorDBManager
	embedder *embeddings.EmbedderImpl
}

func NewStore(database *bun.DB, vectors *chromemdb.VectorDBManager, embedder *embeddings.EmbedderImpl) *Store {
	return &Store{db: database, vectors: vectors, embedder: embedder}
}

// Add embeds a new capability, stores the vector and records the vector
// reference on the capability row.
func (s *Store) Add(ctx context.Context, firmID string, capability *db.CompanyCapability) error {
	vectorID, err := s.storeVector(ctx, firmID, capability.CapabilityText, capability.Category)
	if err != nil {
		return err
	}
	capability.VectorID = vectorID

	if err := db.AddCapability(ctx, s.db, capability); err != nil {
		// Roll back the vector so a failed insert leaves nothing behind
		if cleanupErr := s.vectors.Delete(ctx, chromemdb.CollectionCapabilities, vectorID); cleanupErr != nil {
			log.Warn().Err(cleanupErr).Str("vector_id", vectorID).Msg("Failed to clean up orphaned capability vector")
		}
		return err
	}

	log.Info().Int64("capability_id", capability.ID).Str("vector_id", vectorID).Msg("Added capability")
	return nil
}

// Update re-embeds the capability text. The new vector record is written
// first and the stored reference swapped only after the write succeeds,
// so a partial failure never leaves the row pointing at a missing vector.
// The old record is removed last.
func (s *Store) Update(ctx context.Context, firmID string, capability *db.CompanyCapability, text string) error {
	newVectorID, err := s.storeVector(ctx, firmID, text, capability.Category)
	if err != nil {
		return fmt.Errorf("failed to store new capability vector: %w", err)
	}

	oldVectorID := capability.VectorID
	capability.CapabilityText = text
	capability.VectorID = newVectorID

	if err := db.UpdateCapability(ctx, s.db, capability); err != nil {
		capability.VectorID = oldVectorID
		if cleanupErr := s.vectors.Delete(ctx, chromemdb.CollectionCapabilities, newVectorID); cleanupErr != nil {
			log.Warn().Err(cleanupErr).Str("vector_id", newVectorID).Msg("Failed to clean up unused capability vector")
		}
		return err
	}

	if oldVectorID != "" {
		if err := s.vectors.Delete(ctx, chromemdb.CollectionCapabilities, oldVectorID); err != nil {
			// The swap already happened; the stale vector is unreferenced
			log.Warn().Err(err).Str("vector_id", oldVectorID).Msg("Failed to delete superseded capability vector")
		}
	}
	return nil
}

// SyncAll embeds every capability of the firm that has no vector
// reference yet. Returns the number synced; individual failures are
// logged and skipped.
func (s *Store) SyncAll(ctx context.Context, firmID string) (int, error) {
	capabilities, err := db.CapabilitiesWithoutVector(ctx, s.db, firmID)
	if err != nil {
		return 0, err
	}

	synced := 0
	for i := range capabilities {
		capability := &capabilities[i]
		vectorID, err := s.storeVector(ctx, firmID, capability.CapabilityText, capability.Category)
		if err != nil {
			log.Error().Err(err).Int64("capability_id", capability.ID).Msg("Failed to sync capability")
			continue
		}
		capability.VectorID = vectorID
		if err := db.UpdateCapability(ctx, s.db, capability); err != nil {
			log.Error().Err(err).Int64("capability_id", capability.ID).Msg("Failed to record capability vector id")
			continue
		}
		synced++
	}

	log.Info().Int("synced", synced).Int("total", len(capabilities)).Msg("Synced capabilities to vector store")
	return synced, nil
}

func (s *Store) storeVector(ctx context.Context, firmID, text, category string) (string, error) {
	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return "", err
	}

	vectorID, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}

	doc := chromem.Document{
		ID:      vectorID,
		Content: text,
		Metadata: map[string]string{
			"firm_id":  firmID,
			"category": category,
		},
		Embedding: vector,
	}
	if err := s.vectors.AddDocuments(ctx, chromemdb.CollectionCapabilities, []chromem.Document{doc}); err != nil {
		return "", err
	}
	return vectorID, nil
}
