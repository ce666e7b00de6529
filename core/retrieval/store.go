package retrieval

import (
	"github.com/vmaslov/docqa/model"
)

// ChunkStore is the read path the retrieval engine needs from persistence.
// Implementations must be safe for concurrent use.
type ChunkStore interface {
	// SearchBySimilarity returns up to limit chunks matching the filter,
	// ordered by cosine similarity to the embedding, with Similarity set.
	SearchBySimilarity(embedding []float32, filter model.ChunkFilter, limit int) ([]*model.Chunk, error)
	// SearchByKeywords returns up to limit chunks matching the filter whose
	// content contains any of the keywords. Candidates are selected longest
	// content first when hits exceed the limit; ranking is left to the caller.
	SearchByKeywords(keywords []string, filter model.ChunkFilter, limit int) ([]*model.Chunk, error)
	// SelectChunksByDocument returns all chunks of a document, ordered
	// ascending by index.
	SelectChunksByDocument(documentID int64) ([]*model.Chunk, error)
	// SelectChunksByIndexRange returns the chunks of a document whose index
	// lies in [minIndex, maxIndex], ordered ascending by index.
	SelectChunksByIndexRange(documentID int64, minIndex, maxIndex int) ([]*model.Chunk, error)
	// SelectDocument returns document metadata by ID.
	SelectDocument(id int64) (*model.Document, error)
}
