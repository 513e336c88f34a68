package chunker

import (
	"strings"

	"github.com/rs/zerolog/log"

	"contract-discovery/internal/config"
	"contract-discovery/internal/models"
)

// Chunks shorter than this are treated as false-positive boundary hits
// (e.g. a stray numeral) and dropped.
const discardThreshold = 50

// Chunker splits legal documents into chunks along clause and section
// boundaries, falling back to sentence-based chunking for unstructured
// text. Chunking is deterministic and never fails: malformed or empty
// input yields no chunks.
type Chunker struct {
	maxChunkSize     int
	minChunkSize     int
	overlapSentences int
}

func New(cfg config.ChunkerConfig) *Chunker {
	c := &Chunker{
		maxChunkSize:     cfg.MaxChunkSize,
		minChunkSize:     cfg.MinChunkSize,
		overlapSentences: cfg.OverlapSentences,
	}
	if c.maxChunkSize <= 0 {
		c.maxChunkSize = 800
	}
	if c.minChunkSize <= 0 {
		c.minChunkSize = 100
	}
	if c.overlapSentences < 0 {
		c.overlapSentences = 0
	}
	return c
}

// ChunkDocument splits the text into page-annotated chunks. The page map
// is built first, against the original text, so every page lookup uses
// offsets into the unmodified document.
func (c *Chunker) ChunkDocument(text string, baseMetadata map[string]string) []models.Chunk {
	pageMap := BuildPageMap(text)

	chunks := c.chunkByClauses(text, baseMetadata, pageMap)
	if len(chunks) == 0 || c.poorlyStructured(chunks) {
		log.Info().Str("filename", baseMetadata["filename"]).Msg("Using fallback chunking")
		return c.chunkBySentences(text, baseMetadata, pageMap)
	}

	log.Info().Str("filename", baseMetadata["filename"]).Int("chunks", len(chunks)).Msg("Used clause-based chunking")
	return chunks
}

// chunkByClauses extracts chunks between consecutive structural
// boundaries. Returns nil when no boundaries are found so the caller can
// fall back.
func (c *Chunker) chunkByClauses(text string, metadata map[string]string, pageMap PageMap) []models.Chunk {
	boundaries := findBoundaries(text)
	if len(boundaries) == 0 {
		return nil
	}

	var chunks []models.Chunk
	for i, b := range boundaries {
		end := len(text)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].offset
		}

		chunkText := strings.TrimSpace(text[b.offset:end])
		if len(chunkText) < discardThreshold {
			continue
		}

		if len(chunkText) > c.maxChunkSize {
			chunks = append(chunks, c.splitLargeChunk(chunkText, metadata, models.ChunkTypeClause, pageMap, b.offset)...)
			continue
		}

		chunks = append(chunks, models.Chunk{
			Content:      chunkText,
			ChunkType:    models.ChunkTypeClause,
			Page:         pageMap.PageFor(b.offset),
			ClauseNumber: extractClauseNumber(chunkText),
			Metadata:     copyMetadata(metadata),
		})
	}
	return chunks
}

// chunkBySentences is the fallback for unstructured documents: accumulate
// sentences until the size limit, then emit and carry over the last
// overlapSentences sentences as a continuity seed.
func (c *Chunker) chunkBySentences(text string, metadata map[string]string, pageMap PageMap) []models.Chunk {
	var chunks []models.Chunk
	var current []string
	currentLength := 0
	position := 0

	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		page := pageMap.PageFor(position)

		if currentLength+len(sentence) > c.maxChunkSize && len(current) > 0 {
			chunks = append(chunks, models.Chunk{
				Content:   strings.Join(current, " "),
				ChunkType: models.ChunkTypeFallback,
				Page:      page,
				Metadata:  copyMetadata(metadata),
			})
			if len(current) > c.overlapSentences {
				current = append([]string(nil), current[len(current)-c.overlapSentences:]...)
			} else {
				current = nil
			}
			currentLength = 0
			for _, s := range current {
				currentLength += len(s)
			}
		}

		current = append(current, sentence)
		currentLength += len(sentence)
		position += len(sentence) + 1
	}

	if len(current) > 0 {
		chunks = append(chunks, models.Chunk{
			Content:   strings.Join(current, " "),
			ChunkType: models.ChunkTypeFallback,
			Page:      pageMap.PageFor(position),
			Metadata:  copyMetadata(metadata),
		})
	}
	return chunks
}

// splitLargeChunk splits an oversized chunk at sentence boundaries. Each
// sub-chunk's page comes from its own absolute offset in the original
// document, not from the parent chunk.
func (c *Chunker) splitLargeChunk(text string, metadata map[string]string, chunkType string, pageMap PageMap, startPosition int) []models.Chunk {
	var subChunks []models.Chunk
	var current []string
	currentLength := 0
	currentStart := startPosition
	relativePosition := 0

	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		// Absolute offset of this sentence in the original document, so
		// each sub-chunk resolves its page from its own start rather than
		// inheriting the parent chunk's page.
		absolutePosition := startPosition + relativePosition

		if currentLength+len(sentence) > c.maxChunkSize && len(current) > 0 {
			subChunks = append(subChunks, models.Chunk{
				Content:   strings.Join(current, " "),
				ChunkType: chunkType,
				Page:      pageMap.PageFor(currentStart),
				Metadata:  copyMetadata(metadata),
			})
			current = []string{sentence}
			currentLength = len(sentence)
			currentStart = absolutePosition
		} else {
			if len(current) == 0 {
				currentStart = absolutePosition
			}
			current = append(current, sentence)
			currentLength += len(sentence)
		}

		relativePosition += len(sentence) + 1
	}

	if len(current) > 0 {
		subChunks = append(subChunks, models.Chunk{
			Content:   strings.Join(current, " "),
			ChunkType: chunkType,
			Page:      pageMap.PageFor(currentStart),
			Metadata:  copyMetadata(metadata),
		})
	}
	return subChunks
}

// poorlyStructured reports whether the clause-based result is too sparse
// to be useful: fewer than 2 chunks, or an average chunk length below the
// minimum threshold.
func (c *Chunker) poorlyStructured(chunks []models.Chunk) bool {
	if len(chunks) < 2 {
		return true
	}
	total := 0
	for _, chunk := range chunks {
		total += len(chunk.Content)
	}
	return total/len(chunks) < c.minChunkSize
}

// splitSentences splits on '.', '!' or '?' followed by whitespace. The
// terminator stays with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if isSpace(text[i+1]) {
				sentences = append(sentences, text[start:i+1])
				j := i + 1
				for j < len(text) && isSpace(text[j]) {
					j++
				}
				start = j
				i = j - 1
			}
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func copyMetadata(metadata map[string]string) map[string]string {
	copied := make(map[string]string, len(metadata))
	for k, v := range metadata {
		copied[k] = v
	}
	return copied
}
