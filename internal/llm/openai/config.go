package openai

import (
	"log/slog"
	"net/http"
	"time"
)

// Config for the chat/completions client. Works against any OpenAI-compatible endpoint.
type Config struct {
	APIKey      string
	BaseURL     string        // default https://openrouter.ai/api/v1
	Model       string        // used when a request names none
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "openrouter/sonoma-sky-alpha"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
