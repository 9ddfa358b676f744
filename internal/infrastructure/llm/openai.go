package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/pkg/logger"
)

// DefaultSystemPrompt is sent when the conversation carries no system message
const DefaultSystemPrompt = "You are a helpful assistant."

const maxResponseSize = 4 << 20

// OpenAIConfig configures an OpenAI-compatible client
type OpenAIConfig struct {
	BaseURL       string
	APIKey        string
	DefaultModel  string
	FallbackModel string
	Timeout       time.Duration
}

// OpenAIClient calls an OpenAI-compatible /chat/completions endpoint. A failed call is
// retried once with the fallback model; after that the fallback ChatModel answers.
type OpenAIClient struct {
	cfg      OpenAIConfig
	client   *http.Client
	fallback repositories.ChatModel
}

func NewOpenAIClient(cfg OpenAIConfig, fallback repositories.ChatModel) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OpenAIClient{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		fallback: fallback,
	}, nil
}

type completionRequest struct {
	Model       string                       `json:"model"`
	Messages    []entities.CompletionMessage `json:"messages"`
	Temperature *float64                     `json:"temperature,omitempty"`
	MaxTokens   int                          `json:"max_tokens,omitempty"`
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []entities.CompletionMessage, opts entities.CompletionOptions) (*entities.Completion, error) {
	if opts.Model == "" {
		opts.Model = c.cfg.DefaultModel
	}
	out, err := c.complete(ctx, messages, opts)
	if err == nil {
		return out, nil
	}
	logger.Error(ctx, "chat completion failed", zap.String("model", opts.Model), zap.Error(err))

	if fb := c.cfg.FallbackModel; fb != "" && fb != opts.Model && ctx.Err() == nil {
		retryOpts := opts
		retryOpts.Model = fb
		out, ferr := c.complete(ctx, messages, retryOpts)
		if ferr == nil {
			return out, nil
		}
		logger.Error(ctx, "chat completion with fallback model failed", zap.String("model", fb), zap.Error(ferr))
	}
	if c.fallback == nil {
		return nil, err
	}
	return c.fallback.Complete(ctx, messages, opts)
}

func (c *OpenAIClient) complete(ctx context.Context, messages []entities.CompletionMessage, opts entities.CompletionOptions) (*entities.Completion, error) {
	start := time.Now()
	req := completionRequest{
		Model:     opts.Model,
		Messages:  WithSystemPrompt(messages),
		MaxTokens: opts.MaxTokens,
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		req.Temperature = &t
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, msg)
	}

	content := gjson.GetBytes(data, "choices.0.message.content")
	if !content.Exists() {
		return nil, errors.New("provider response has no choices")
	}
	model := gjson.GetBytes(data, "model").String()
	if model == "" {
		model = req.Model
	}
	return &entities.Completion{
		Content:    content.String(),
		Model:      model,
		Provider:   ProviderOpenAI,
		TokensUsed: int(gjson.GetBytes(data, "usage.total_tokens").Int()),
		Latency:    time.Since(start),
	}, nil
}

// WithSystemPrompt prepends DefaultSystemPrompt unless a system message is present.
func WithSystemPrompt(messages []entities.CompletionMessage) []entities.CompletionMessage {
	for _, m := range messages {
		if m.Role == entities.RoleSystem {
			return messages
		}
	}
	out := make([]entities.CompletionMessage, 0, len(messages)+1)
	out = append(out, entities.CompletionMessage{Role: entities.RoleSystem, Content: DefaultSystemPrompt})
	return append(out, messages...)
}

var _ repositories.ChatModel = (*OpenAIClient)(nil)
