// Package eino adapts a cloudwego/eino chat model to the llm.Completer contract.
package eino

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/joseph-ayodele/thesis-checker/internal/common"
	"github.com/joseph-ayodele/thesis-checker/internal/llm"
)

// Config for the eino-backed completer.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// Client sends one user message per completion through an eino chat model.
type Client struct {
	chat   model.BaseChatModel
	model  string
	logger *slog.Logger
}

// NewClient builds an OpenAI-compatible eino chat model. A missing key is reported
// per call, not here, so jobs still complete with a visible failure.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &Client{model: cfg.Model, logger: logger}, nil
	}
	temp := cfg.Temperature
	chatCfg := &einoopenai.ChatModelConfig{
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		Timeout:     cfg.Timeout,
		Temperature: &temp,
	}
	if cfg.BaseURL != "" {
		chatCfg.BaseURL = cfg.BaseURL
	}
	chat, err := einoopenai.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return &Client{chat: chat, model: cfg.Model, logger: logger}, nil
}

// NewWithModel wraps an existing chat model.
func NewWithModel(chat model.BaseChatModel, modelName string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{chat: chat, model: modelName, logger: logger}
}

// Complete implements llm.Completer.
func (c *Client) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if c.chat == nil {
		return "", fmt.Errorf("%w: API key not configured", common.ErrUpstreamJudgment)
	}
	start := time.Now()

	var opts []model.Option
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if req.Model != "" && req.Model != c.model {
		opts = append(opts, model.WithModel(req.Model))
	}

	resp, err := c.chat.Generate(ctx, []*schema.Message{schema.UserMessage(req.Prompt)}, opts...)
	if err != nil {
		c.logger.Error("llm.eino.generate_error", "purpose", req.Purpose, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: %v", common.ErrUpstreamJudgment, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: empty response", common.ErrUpstreamJudgment)
	}

	content := strings.TrimSpace(resp.Content)
	c.logger.Info("llm.eino.ok",
		"purpose", req.Purpose,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
