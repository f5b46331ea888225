package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	// placeholderAPIKey is the value shipped in the sample .env file.
	placeholderAPIKey = "your_gemini_api_key_here"
)

type Config struct {
	Port  string `env:"PORT" envDefault:"5000"`
	Debug bool   `env:"DEBUG" envDefault:"false"`

	// LLM settings
	LLMProvider     string        `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiBaseURL   string        `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string        `env:"OPENAI_BASE_URL"`
	OpenAIModel     string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OllamaBaseURL   string        `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434/api"`
	OllamaModel     string        `env:"OLLAMA_MODEL" envDefault:"llama3.2-vision"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"60s"`
	Temperature     float32       `env:"TEMPERATURE" envDefault:"0.7"`
	MaxOutputTokens int           `env:"MAX_OUTPUT_TOKENS" envDefault:"2048"`
	SystemPrompt    string        `env:"SYSTEM_PROMPT"`

	// Uploads
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// HTTP
	JWTSecret      string   `env:"JWT_SECRET"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://*,http://*"`

	LogDir string `env:"LOG_DIR" envDefault:"./logs"`
	// StaticDir holds the built frontend; empty disables static serving.
	StaticDir string `env:"STATIC_DIR"`

	// Attachment archive, disabled when MinIOEndpoint is empty
	MinIOEndpoint  string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY"`
	MinIOBucket    string `env:"MINIO_BUCKET" envDefault:"aubot"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

// LoadConfig reads .env (when present) and then the process environment.
func LoadConfig() (Config, error) {
	// a missing .env is normal in deployed environments
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.GeminiAPIKey == placeholderAPIKey {
		cfg.GeminiAPIKey = ""
	}
	switch cfg.LLMProvider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		return Config{}, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
	if cfg.UpstreamTimeout <= 0 {
		return Config{}, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", cfg.UpstreamTimeout)
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// ArchiveEnabled reports whether attachments and exports go to object storage.
func (c Config) ArchiveEnabled() bool {
	return c.MinIOEndpoint != ""
}
