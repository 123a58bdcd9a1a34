// Package llm talks to an OpenAI-compatible API for chat completions and
// embeddings.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// Config configures the provider client.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
	Dimension      int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	BatchSize      int
}

// Client implements domain.Embedder and domain.Completer.
type Client struct {
	api    *openai.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient creates a client, filling unset fields with defaults.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo-0125"
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = string(openai.AdaEmbeddingV2)
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1536
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIKey == "" {
		logger.Warn("LLM API key is empty; requests will only work against servers without auth",
			zap.String("base_url", cfg.BaseURL))
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{}

	return &Client{
		api:    openai.NewClientWithConfig(oc),
		cfg:    cfg,
		logger: logger,
	}
}

// Model returns the chat model identifier.
func (c *Client) Model() string { return c.cfg.Model }

// Dimension returns the embedding dimensionality.
func (c *Client) Dimension() int { return c.cfg.Dimension }

// Complete sends the full message history and returns the first choice.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage, temperature float32) (domain.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    toOpenAIMessages(messages),
		Temperature: temperature,
	}
	// omitempty would drop an explicit zero and the API would default to 1
	if temperature == 0 {
		req.Temperature = math.SmallestNonzeroFloat32
	}

	var resp openai.ChatCompletionResponse
	err := c.withRetry(ctx, "chat_completion", func(ctx context.Context) error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, req)
		return err
	})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("%w: %w", domain.ErrModelCall, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, fmt.Errorf("%w: response has no choices", domain.ErrModelCall)
	}

	cost := ChatCost(c.cfg.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	c.logger.Debug("chat completion",
		zap.String("model", c.cfg.Model),
		zap.Int("messages", len(messages)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Float64("cost", cost),
	)

	return domain.Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            c.cfg.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Cost:             cost,
	}, nil
}

// EmbedDocuments embeds texts in batches, preserving input order.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(texts))
		batch := texts[start:end]

		var resp openai.EmbeddingResponse
		err := c.withRetry(ctx, "embeddings", func(ctx context.Context) error {
			var err error
			resp, err = c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
				Input: batch,
				Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
			})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		if len(resp.Data) != len(batch) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d inputs", domain.ErrEmbedding, len(resp.Data), len(batch))
		}

		vectors := make([][]float32, len(batch))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(batch) {
				return nil, fmt.Errorf("%w: embedding index %d out of range", domain.ErrEmbedding, d.Index)
			}
			vectors[d.Index] = d.Embedding
		}
		out = append(out, vectors...)

		c.logger.Debug("embeddings",
			zap.String("model", c.cfg.EmbeddingModel),
			zap.Int("inputs", len(batch)),
			zap.Float64("cost", EmbeddingCost(c.cfg.EmbeddingModel, resp.Usage.PromptTokens)),
		)
	}
	return out, nil
}

// EmbedQuery embeds a single query string.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// withRetry bounds every attempt by the configured timeout and retries
// transient failures up to MaxRetries times.
func (c *Client) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		err = fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt >= c.cfg.MaxRetries || !retryable(err) {
			return err
		}

		c.logger.Warn("retrying provider call",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.RetryDelay):
		}
	}
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func toOpenAIMessages(messages []domain.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case domain.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case domain.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}
