package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vmaslov/docqa/model"
)

// OpenAIComposerConfig configures an OpenAI-compatible chat completion client.
type OpenAIComposerConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OpenAIComposer is a Composer backed by an OpenAI-compatible
// /chat/completions endpoint.
type OpenAIComposer struct {
	config OpenAIComposerConfig
	client *http.Client
}

// NewOpenAIComposer creates a new chat completion composer.
func NewOpenAIComposer(cfg OpenAIComposerConfig) (*OpenAIComposer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing API key for composer")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &OpenAIComposer{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends the prompt to the chat endpoint and returns the reply.
func (c *OpenAIComposer) Generate(ctx context.Context, prompt string) (*model.LLMResponse, error) {
	requestBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
	}

	data, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &model.LLMResponse{
			Success: false,
			Error:   fmt.Sprintf("chat completion failed: %s: %s", resp.Status, string(body)),
		}, nil
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return &model.LLMResponse{
			Success: false,
			Error:   "chat completion returned no choices",
		}, nil
	}

	return &model.LLMResponse{
		Text:       parsed.Choices[0].Message.Content,
		Success:    true,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}
