package model

import (
	"time"

	"github.com/google/uuid"
)

// SearchStrategy identifies which retrieval stage produced a result. Boost
// stages tag results with the name of the rule that fired, e.g. "salary_specific".
type SearchStrategy string

const (
	StrategyVector   SearchStrategy = "vector"
	StrategyText     SearchStrategy = "text"
	StrategyFallback SearchStrategy = "fallback"
)

// Chunk represents a contiguous slice of a document's extracted text.
// ChunkIndex is 0-based and contiguous within a document.
type Chunk struct {
	ID            int64     `json:"id"`
	DocumentID    int64     `json:"document_id"`
	DocumentRID   uuid.UUID `json:"document_rid"`
	ChunkIndex    int       `json:"chunk_index"`
	Content       string    `json:"content"`
	ContentLength int       `json:"content_length"`
	Embedding     []float32 `json:"embedding,omitempty"`
	Metadata      Metadata  `json:"metadata,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
}

// SearchResult is a transient value produced by the retrieval engine for a
// single query. It is never persisted.
type SearchResult struct {
	ChunkID       int64          `json:"chunk_id"`
	DocumentID    int64          `json:"document_id"`
	ChunkIndex    int            `json:"chunk_index"`
	Content       string         `json:"content"`
	ContentLength int            `json:"content_length"`
	Similarity    float64        `json:"similarity"`
	Strategy      SearchStrategy `json:"strategy"`
}

// ResultFromChunk converts a retrieved chunk into a search result with the
// given similarity and strategy tag.
func ResultFromChunk(chunk *Chunk, similarity float64, strategy SearchStrategy) *SearchResult {
	return &SearchResult{
		ChunkID:       chunk.ID,
		DocumentID:    chunk.DocumentID,
		ChunkIndex:    chunk.ChunkIndex,
		Content:       chunk.Content,
		ContentLength: chunk.ContentLength,
		Similarity:    similarity,
		Strategy:      strategy,
	}
}
