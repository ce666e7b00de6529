package model

// SearchConfig represents configuration for a retrieval query
type SearchConfig struct {
	// Maximum number of ranked results to return
	Limit int `json:"limit"`
	// Minimum cosine similarity for vector stage hits
	MinSimilarity float64 `json:"min_similarity,omitempty"`
	// Number of neighboring chunks pulled on each side during context expansion
	ContextRadius int `json:"context_radius,omitempty"`
	// Number of best chunks handed to the answer composer
	TopChunks int `json:"top_chunks,omitempty"`
	// Maximum number of attachable files in an answer
	MaxFiles int `json:"max_files,omitempty"`
}

// DefaultSearchConfig returns a sensible default configuration
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		Limit:         15,
		MinSimilarity: 0.25,
		ContextRadius: 3,
		TopChunks:     10,
		MaxFiles:      5,
	}
}

// ChunkFilter narrows a chunk store query. A zero value means no filtering.
type ChunkFilter struct {
	// Only chunks of documents with this processing status
	Status ProcessingStatus `json:"status,omitempty"`
	// Content length band, exclusive bounds; 0 disables the bound
	MinContentLength int `json:"min_content_length,omitempty"`
	MaxContentLength int `json:"max_content_length,omitempty"`
	// Exclude chunks containing any of these markers (case-insensitive)
	ExcludeMarkers []string `json:"exclude_markers,omitempty"`
	// Require chunks to contain all of these markers (case-insensitive)
	RequireMarkers []string `json:"require_markers,omitempty"`
	// Only chunks with a stored embedding vector
	RequireEmbedding bool `json:"require_embedding,omitempty"`
}

// CompletedFilter returns a filter for chunks of completed documents with the
// given content length band and exclusion markers.
func CompletedFilter(minLen, maxLen int, exclude []string) ChunkFilter {
	return ChunkFilter{
		Status:           StatusCompleted,
		MinContentLength: minLen,
		MaxContentLength: maxLen,
		ExcludeMarkers:   exclude,
	}
}
