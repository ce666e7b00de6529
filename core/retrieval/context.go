package retrieval

import (
	"strings"

	"github.com/vmaslov/docqa/model"
)

const (
	// DefaultContextRadius is the number of neighbor chunks pulled on each
	// side of the focal chunk.
	DefaultContextRadius = 3

	// centerScore and neighborScore re-score expanded chunks for answer
	// composition. Position alone determines trust here, chunks around the
	// center were pulled by proximity, not relevance.
	centerScore   = 1.0
	neighborScore = 0.8
)

// ContextWindow is the result of expanding a focal chunk into its neighbors.
type ContextWindow struct {
	// Text is the merged content with the focal chunk wrapped in ** markers.
	Text string
	// Chunks are the window members in index order, re-scored around the center.
	Chunks []*model.SearchResult
	// CenterIndex is the chunk index of the focal chunk.
	CenterIndex int
}

// Assembler expands a retrieved chunk into a window of its neighbors within
// the same document. Read-only over the chunk store.
type Assembler struct {
	store ChunkStore
}

// NewAssembler creates a new context assembler.
func NewAssembler(store ChunkStore) *Assembler {
	return &Assembler{store: store}
}

// Expand fetches the chunks of the document whose index lies within radius of
// centerIndex and merges them into a single passage. Gaps in the index range
// are simply absent. The center chunk is marked in the merged text and scored
// 1.0, neighbors 0.8.
func (a *Assembler) Expand(documentID int64, centerIndex int, radius int) (*ContextWindow, error) {
	if radius <= 0 {
		radius = DefaultContextRadius
	}

	minIndex := centerIndex - radius
	if minIndex < 0 {
		minIndex = 0
	}
	maxIndex := centerIndex + radius

	chunks, err := a.store.SelectChunksByIndexRange(documentID, minIndex, maxIndex)
	if err != nil {
		return nil, err
	}

	window := &ContextWindow{CenterIndex: centerIndex}

	var parts []string
	for _, chunk := range chunks {
		score := neighborScore
		if chunk.ChunkIndex == centerIndex {
			score = centerScore
			parts = append(parts, "**"+chunk.Content+"**")
		} else {
			parts = append(parts, chunk.Content)
		}
		window.Chunks = append(window.Chunks, model.ResultFromChunk(chunk, score, model.StrategyVector))
	}

	window.Text = strings.Join(parts, " ")
	return window, nil
}
