package models

// Chunk type labels attached to every chunk the chunker emits.
const (
	ChunkTypeClause   = "clause"
	ChunkTypeFallback = "fallback"
)

// Chunk represents a segment of a legal document with its page metadata
type Chunk struct {
	Content      string
	ChunkType    string
	Page         int
	ClauseNumber string
	Metadata     map[string]string
}

// ChunkEmbedding pairs a chunk with its embedding vector for storage
type ChunkEmbedding struct {
	Content        string
	Embedding      []float32
	SourceFilename string
	Page           int
	ChunkID        int
	ChunkType      string
	ClauseNumber   string
}
