package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the page shell.
type Config struct {
	// Server
	Host     string `envconfig:"SERVER_HOST" default:"127.0.0.1"`
	HTTPPort int    `envconfig:"SERVER_HTTP_PORT" default:"3000"`

	Environment string `envconfig:"SERVER_ENV" default:"development"`

	// Timeouts
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"60s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Summarization backend. A zero timeout means backend calls are never cut short.
	BackendBaseURL string        `envconfig:"BACKEND_BASE_URL" default:"http://127.0.0.1:5000"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"0s"`
	BaseLanguage   string        `envconfig:"BASE_LANGUAGE" default:"en"`
	MaxUploadSize  int64         `envconfig:"MAX_UPLOAD_SIZE" default:"33554432"`

	// Speech playback
	SpeechEngine       string        `envconfig:"SPEECH_ENGINE" default:"simulated"`
	SpeechDefaultVoice string        `envconfig:"SPEECH_DEFAULT_VOICE" default:"en-US-JennyNeural"`
	PlaybackLeaseTTL   time.Duration `envconfig:"PLAYBACK_LEASE_TTL" default:"10m"`

	// Azure AI Speech
	AzureAISpeechKey   string `envconfig:"AZURE_AI_SPEECH_KEY"`
	AzureServiceRegion string `envconfig:"AZURE_SERVICE_REGION"`

	// Synthesized audio storage: "r2" or "gcs"
	AudioStore string `envconfig:"AUDIO_STORE" default:"r2"`

	// Cloudflare R2
	CloudflareAccessKeyID string `envconfig:"CLOUDFLARE_ACCESS_KEY_ID"`
	CloudflareSecretKey   string `envconfig:"CLOUDFLARE_SECRET_ACCESS_KEY"`
	CloudflareR2Endpoint  string `envconfig:"CLOUDFLARE_R2_ENDPOINT"`
	CloudflarePublicURL   string `envconfig:"CLOUDFLARE_PUBLIC_URL"`
	CloudflareBucketName  string `envconfig:"CLOUDFLARE_BUCKET_NAME"`

	// Google Cloud Storage
	GCSBucketName string `envconfig:"GCS_BUCKET_NAME"`

	// Redis
	RedisURL string `envconfig:"REDIS_URL"`

	// CORS
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	CORSAllowedMethods []string `envconfig:"CORS_ALLOWED_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
	CORSAllowedHeaders []string `envconfig:"CORS_ALLOWED_HEADERS" default:"Accept,Content-Type,X-Request-ID"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot check on its own.
func (c *Config) Validate() error {
	if c.BackendBaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if c.BaseLanguage == "" {
		return fmt.Errorf("BASE_LANGUAGE is required")
	}
	switch c.SpeechEngine {
	case "simulated", "remote":
	default:
		return fmt.Errorf("unknown SPEECH_ENGINE %q", c.SpeechEngine)
	}
	switch c.AudioStore {
	case "r2", "gcs":
	default:
		return fmt.Errorf("unknown AUDIO_STORE %q", c.AudioStore)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	return nil
}

// HTTPAddress returns the HTTP server address.
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// HasAzureSpeech reports whether Azure TTS credentials are present.
func (c *Config) HasAzureSpeech() bool {
	return c.AzureAISpeechKey != "" && c.AzureServiceRegion != ""
}

// HasCloudflare reports whether the R2 audio store can be built.
func (c *Config) HasCloudflare() bool {
	return c.CloudflareAccessKeyID != "" && c.CloudflareSecretKey != "" &&
		c.CloudflareR2Endpoint != "" && c.CloudflareBucketName != ""
}
