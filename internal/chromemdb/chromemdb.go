package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"contract-discovery/internal/config"
)

// Collection names used by the platform. Contracts and capabilities are
// kept apart so capability lookups never leak into contract search.
const (
	CollectionContracts    = "contracts"
	CollectionCapabilities = "capabilities"
	CollectionDocuments    = "legal_documents"
)

const compress = false

// VectorDBManager encapsulates the chromem-go database operations for all
// platform collections. It also serves as the VectorLookup collaborator
// the match pipeline uses to resolve stored embeddings.
type VectorDBManager struct {
	db            *chromem.DB
	dbPath        string
	compress      bool
	encryptionKey string
}

// NewVectorDBManager initializes a new vector database manager
func NewVectorDBManager(cfg config.VectorConfig) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &VectorDBManager{
		db:            db,
		dbPath:        cfg.Path,
		compress:      compress,
		encryptionKey: cfg.EncryptionKey,
	}, nil
}

func (m *VectorDBManager) collection(name string) (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection %s: %w", name, err)
	}
	return c, nil
}

// AddDocuments stores pre-embedded documents in the named collection
func (m *VectorDBManager) AddDocuments(ctx context.Context, collectionName string, docs []chromem.Document) error {
	c, err := m.collection(collectionName)
	if err != nil {
		return err
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query performs a similarity search against the named collection
func (m *VectorDBManager) Query(ctx context.Context, collectionName string, opts chromem.QueryOptions) ([]chromem.Result, error) {
	if opts.QueryText == "" && opts.QueryEmbedding == nil {
		return nil, fmt.Errorf("either query text or embedding must be provided")
	}
	c, err := m.collection(collectionName)
	if err != nil {
		return nil, err
	}
	results, err := c.QueryWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

// Vector retrieves the stored embedding for a point ID. Implements the
// VectorLookup interface used by the match pipeline.
func (m *VectorDBManager) Vector(ctx context.Context, collectionName, id string) ([]float32, error) {
	c, err := m.collection(collectionName)
	if err != nil {
		return nil, err
	}
	doc, err := c.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s from %s: %w", id, collectionName, err)
	}
	return doc.Embedding, nil
}

// Delete removes points by ID from the named collection
func (m *VectorDBManager) Delete(ctx context.Context, collectionName string, ids ...string) error {
	c, err := m.collection(collectionName)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", collectionName, err)
	}
	return nil
}

// Count reports how many points the named collection holds
func (m *VectorDBManager) Count(collectionName string) (int, error) {
	c, err := m.collection(collectionName)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

// Export writes an encrypted snapshot of a collection to the db path
func (m *VectorDBManager) Export(ctx context.Context, collectionName string) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if m.dbPath == "" {
		return fmt.Errorf("db path is required")
	}

	filePath := m.dbPath + "/" + collectionName + ".chromem"
	log.Debug().Str("collection", collectionName).Str("file", filePath).Msg("Exporting collection")
	if err := m.db.ExportToFile(filePath, m.compress, m.encryptionKey, collectionName); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import restores collections from a previously exported snapshot
func (m *VectorDBManager) Import(ctx context.Context, filePath string) error {
	if err := m.db.ImportFromFile(filePath, m.encryptionKey); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	return nil
}
