package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const defaultMaxSteps = 5

type Config struct {
	LLMProvider      string // openai, anthropic, ollama
	OpenAIKey        string
	AnthropicKey     string
	LLMModel         string
	OllamaBaseURL    string
	SampleFilesDir   string // sandbox root for the file tools
	UploadDir        string
	DatabasePath     string
	MaxSteps         int
	MaxContextTokens int // 0 sends the whole conversation
	HTTPAddr         string
	DiscordToken     string
	ScanCron         string
}

func Load() *Config {
	_ = godotenv.Load() // ignore error if no .env

	return &Config{
		LLMProvider:      envOr("LLM_PROVIDER", "openai"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		OllamaBaseURL:    envOr("OLLAMA_BASE_URL", "http://localhost:11434/v1"),
		SampleFilesDir:   envOr("SAMPLE_FILES_DIR", "./sample_files"),
		UploadDir:        envOr("UPLOAD_DIR", "./uploads"),
		DatabasePath:     envOr("DATABASE_PATH", "./data.db"),
		MaxSteps:         positiveIntOr("MAX_STEPS", defaultMaxSteps),
		MaxContextTokens: positiveIntOr("MAX_CONTEXT_TOKENS", 0),
		HTTPAddr:         os.Getenv("HTTP_ADDR"),
		DiscordToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		ScanCron:         envOr("SCAN_CRON", "*/10 * * * *"),
	}
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicKey
	}
	return c.OpenAIKey
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func positiveIntOr(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
