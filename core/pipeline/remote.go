package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteEmbedderConfig configures an OpenAI-compatible embeddings client.
type RemoteEmbedderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewRemoteEmbedder creates an embedder backed by an OpenAI-compatible
// /embeddings endpoint. It is an alternative to LocalEmbedder for
// deployments without a local ONNX runtime.
func NewRemoteEmbedder(cfg RemoteEmbedderConfig) (EmbedFunc, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing API key for remote embedder")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := &http.Client{Timeout: cfg.Timeout}
	url := cfg.BaseURL + "/embeddings"

	return func(text string) ([]float32, error) {
		requestBody := map[string]interface{}{
			"model": cfg.Model,
			"input": text,
		}
		data, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("embeddings request failed: %s: %s", resp.Status, string(body))
		}

		var parsed struct {
			Data []struct {
				Embedding []float32 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if len(parsed.Data) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}

		return parsed.Data[0].Embedding, nil
	}, nil
}
