package pipeline

import (
	"unicode/utf8"

	"github.com/vmaslov/docqa/model"
)

// ChunkFunc is a function that splits normalized document text into chunk
// strings, in source order.
type ChunkFunc func(text string) ([]string, error)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker  ChunkFunc
	Embedder EmbedFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}

// Process splits text into chunks and embeds each one. Chunk indices are
// assigned contiguously from 0 in source order.
func (p *Pipeline) Process(text string) ([]*model.Chunk, error) {
	contents, err := p.Chunker(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]*model.Chunk, 0, len(contents))
	for i, content := range contents {
		embedding, err := p.Embedder(content)
		if err != nil {
			return nil, err
		}

		chunks = append(chunks, &model.Chunk{
			ChunkIndex:    i,
			Content:       content,
			ContentLength: utf8.RuneCountInString(content),
			Embedding:     embedding,
			Metadata:      model.Metadata{},
		})
	}

	return chunks, nil
}
