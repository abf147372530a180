package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	LLM     LLMConfig
	Queue   QueueConfig
	Report  ReportConfig
	Rules   RulesConfig
	Log     LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string // empty disables the gRPC health listener
	MaxUploadBytes int64
}

// StorageConfig holds file and job-table storage configuration
type StorageConfig struct {
	UploadDir string
	OutputDir string
	JobStore  string // memory | sqlite
	JobDBPath string
}

// LLMConfig holds judgment-engine configuration
type LLMConfig struct {
	Backend         string // openai | eino
	BaseURL         string
	APIKey          string
	Model           string
	Temperature     float32
	Timeout         time.Duration
	Mode            string // single | sectioned
	MaxOutputTokens int
}

// QueueConfig holds worker pool configuration
type QueueConfig struct {
	Workers         int
	Size            int
	PipelineTimeout time.Duration // 0 = no deadline on the pipeline as a whole
}

// ReportConfig holds renderer configuration
type ReportConfig struct {
	Rich bool
}

// RulesConfig points at an optional catalog override
type RulesConfig struct {
	File string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

const (
	JobStoreMemory = "memory"
	JobStoreSQLite = "sqlite"

	BackendOpenAI = "openai"
	BackendEino   = "eino"

	ModeSingle    = "single"
	ModeSectioned = "sectioned"
)

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8000"),
			GRPCAddr:       getEnv("GRPC_ADDR", ""),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 50<<20),
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_DIR", "uploads"),
			OutputDir: getEnv("OUTPUT_DIR", "output"),
			JobStore:  strings.ToLower(getEnv("JOB_STORE", JobStoreMemory)),
			JobDBPath: getEnv("JOB_DB_PATH", "jobs.db"),
		},
		LLM: LLMConfig{
			Backend:         strings.ToLower(getEnv("LLM_BACKEND", BackendOpenAI)),
			BaseURL:         getEnv("API_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:          firstEnv("LLM_API_KEY", "DEEPSEEK_API_KEY", "OPENAI_API_KEY"),
			Model:           getEnv("MODEL_NAME", "openrouter/sonoma-sky-alpha"),
			Temperature:     getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:         getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			Mode:            strings.ToLower(getEnv("JUDGE_MODE", ModeSingle)),
			MaxOutputTokens: getEnvAsInt("MAX_OUTPUT_TOKENS", 4000),
		},
		Queue: QueueConfig{
			Workers:         getEnvAsInt("WORKERS", 4),
			Size:            getEnvAsInt("QUEUE_SIZE", 256),
			PipelineTimeout: getEnvAsDuration("PIPELINE_TIMEOUT", 0),
		},
		Report: ReportConfig{
			Rich: getEnvAsBool("REPORT_RICH", true),
		},
		Rules: RulesConfig{
			File: getEnv("RULES_FILE", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv returns the first non-empty value among keys.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. A missing API key is deliberately
// not an error: jobs still complete and carry a system finding describing the failure.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	if c.Storage.UploadDir == "" || c.Storage.OutputDir == "" {
		return NewAppError("CONFIG_ERROR", "UPLOAD_DIR and OUTPUT_DIR are required", ErrInvalidInput)
	}
	switch c.Storage.JobStore {
	case JobStoreMemory:
	case JobStoreSQLite:
		if c.Storage.JobDBPath == "" {
			return NewAppError("CONFIG_ERROR", "JOB_DB_PATH is required for the sqlite job store", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown JOB_STORE %q", c.Storage.JobStore), ErrInvalidInput)
	}
	switch c.LLM.Backend {
	case BackendOpenAI, BackendEino:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown LLM_BACKEND %q", c.LLM.Backend), ErrInvalidInput)
	}
	switch c.LLM.Mode {
	case ModeSingle, ModeSectioned:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown JUDGE_MODE %q", c.LLM.Mode), ErrInvalidInput)
	}
	if c.LLM.MaxOutputTokens <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_OUTPUT_TOKENS must be positive", ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 || c.Queue.Size <= 0 {
		return NewAppError("CONFIG_ERROR", "WORKERS and QUEUE_SIZE must be positive", ErrInvalidInput)
	}
	return nil
}
