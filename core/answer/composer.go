package answer

import (
	"context"

	"github.com/vmaslov/docqa/model"
)

// Composer is the external language model that writes the final answer from
// an assembled prompt. Implementations must be safe for concurrent use.
type Composer interface {
	Generate(ctx context.Context, prompt string) (*model.LLMResponse, error)
}

// DocumentResolver resolves chunk results to their owning documents when
// building the source list of an answer.
type DocumentResolver interface {
	SelectDocument(id int64) (*model.Document, error)
}
