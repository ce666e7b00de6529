package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/vmaslov/docqa/helper"
)

// DefaultEmbeddingModel is a compact Russian sentence transformer producing
// 312-dimensional embeddings.
const DefaultEmbeddingModel = "cointegrated/rubert-tiny2"

// DefaultEmbeddingDim is the dimensionality of DefaultEmbeddingModel vectors.
const DefaultEmbeddingDim = 312

// DefaultEmbedder creates an embedder running the default sentence
// transformer model locally.
func DefaultEmbedder() (EmbedFunc, error) {
	return LocalEmbedder(DefaultEmbeddingModel)
}

// LocalEmbedder creates an embedder running the given sentence transformer
// model locally. The model is downloaded on first use.
func LocalEmbedder(modelName string) (EmbedFunc, error) {
	// Prepare model (download if needed)
	modelPath, err := helper.PrepareModel(modelName)
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	// Create sentence transformers pipeline configuration
	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		// Generate embedding for the text
		result, err := sentencePipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}

		// Extract the first (and only) embedding
		embedding := result.Embeddings[0]
		return embedding, nil
	}, nil
}
