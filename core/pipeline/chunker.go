package pipeline

import (
	"strings"
)

const (
	// DefaultChunkSize is the window size of the default splitter in runes.
	DefaultChunkSize = 1500
	// DefaultOverlap is the number of runes shared between adjacent chunks.
	DefaultOverlap = 200

	// boundarySearchWindow is how far back from the window end a break point
	// is searched for.
	boundarySearchWindow = 200
	// minChunkLength is the smallest trimmed chunk kept, everything shorter
	// is considered degenerate and dropped.
	minChunkLength = 10
)

// SplitChunker creates a boundary-aware overlapping splitter. Windows of at
// most chunkSize runes are carved from the text; within the last 200 runes
// of each window the best break point is searched in priority order:
// sentence end (". ", then "! "/"? "), double newline, single newline, plain
// space. If nothing is found the window is cut as-is. The cursor advances by
// at least max(50, chunkSize/4) runes so progress is guaranteed for any
// overlap value.
//
// The returned ChunkFunc is a pure function of its input and safe for
// concurrent use.
func SplitChunker(chunkSize int, overlap int) ChunkFunc {
	return func(text string) ([]string, error) {
		return splitText(text, chunkSize, overlap), nil
	}
}

// DefaultChunker returns a SplitChunker with the default window and overlap.
func DefaultChunker() ChunkFunc {
	return SplitChunker(DefaultChunkSize, DefaultOverlap)
}

func splitText(text string, chunkSize int, overlap int) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{}
	}

	runes := []rune(trimmed)
	if len(runes) <= chunkSize {
		return []string{trimmed}
	}

	minStep := chunkSize / 4
	if minStep < 50 {
		minStep = 50
	}

	var chunks []string
	start := 0

	for start < len(runes) {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		// Not the last window: move the cut back to a natural boundary.
		if end < len(runes) {
			searchStart := end - boundarySearchWindow
			if searchStart < start {
				searchStart = start
			}
			if breakAt := findBreak(runes, searchStart, end); breakAt != -1 {
				end = breakAt
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(chunk)) > minChunkLength {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		next := end - overlap
		if next < start+minStep {
			next = start + minStep
		}
		start = next
	}

	return chunks
}

// findBreak searches [searchStart, end) backwards for the best break point
// and returns the rune index just past it, or -1 if none exists.
func findBreak(runes []rune, searchStart, end int) int {
	// 1. Period followed by a space.
	for i := end - 1; i >= searchStart; i-- {
		if i < len(runes)-1 && runes[i] == '.' && runes[i+1] == ' ' {
			return i + 1
		}
	}

	// 2. Exclamation or question mark followed by a space.
	for i := end - 1; i >= searchStart; i-- {
		if i < len(runes)-1 && (runes[i] == '!' || runes[i] == '?') && runes[i+1] == ' ' {
			return i + 1
		}
	}

	// 3. Double newline, break after it.
	for i := end - 2; i >= searchStart; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
	}

	// 4. Single newline, break after it.
	for i := end - 1; i >= searchStart; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}

	// 5. Plain space, break after it.
	for i := end - 1; i >= searchStart; i-- {
		if runes[i] == ' ' {
			return i + 1
		}
	}

	return -1
}

// ParagraphChunker creates a chunker that splits on blank lines. Useful for
// texts whose paragraphs already are a sensible retrieval unit.
func ParagraphChunker() ChunkFunc {
	return func(text string) ([]string, error) {
		paragraphs := strings.Split(text, "\n\n")

		chunks := []string{}
		for _, para := range paragraphs {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			chunks = append(chunks, para)
		}

		return chunks, nil
	}
}
