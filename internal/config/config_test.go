package config

import (
	"testing"
)

func validConfig() Config {
	return Config{
		BackendBaseURL: "http://127.0.0.1:5000",
		BaseLanguage:   "en",
		SpeechEngine:   "simulated",
		AudioStore:     "r2",
		MaxUploadSize:  1 << 20,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "remote engine", mutate: func(c *Config) { c.SpeechEngine = "remote" }},
		{name: "gcs store", mutate: func(c *Config) { c.AudioStore = "gcs" }},
		{name: "missing backend", mutate: func(c *Config) { c.BackendBaseURL = "" }, wantErr: true},
		{name: "missing base language", mutate: func(c *Config) { c.BaseLanguage = "" }, wantErr: true},
		{name: "unknown engine", mutate: func(c *Config) { c.SpeechEngine = "browser" }, wantErr: true},
		{name: "unknown store", mutate: func(c *Config) { c.AudioStore = "s3" }, wantErr: true},
		{name: "zero upload size", mutate: func(c *Config) { c.MaxUploadSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend:5000")
	t.Setenv("SERVER_HTTP_PORT", "4000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BackendBaseURL != "http://backend:5000" {
		t.Errorf("BackendBaseURL = %q", cfg.BackendBaseURL)
	}
	if cfg.HTTPAddress() != "127.0.0.1:4000" {
		t.Errorf("HTTPAddress() = %q", cfg.HTTPAddress())
	}
	if cfg.BackendTimeout != 0 {
		t.Errorf("BackendTimeout = %v, want 0", cfg.BackendTimeout)
	}
	if cfg.BaseLanguage != "en" {
		t.Errorf("BaseLanguage = %q, want en", cfg.BaseLanguage)
	}
}

func TestHasCloudflare(t *testing.T) {
	cfg := validConfig()
	if cfg.HasCloudflare() {
		t.Fatal("expected HasCloudflare() = false without credentials")
	}
	cfg.CloudflareAccessKeyID = "id"
	cfg.CloudflareSecretKey = "secret"
	cfg.CloudflareR2Endpoint = "https://r2.example.com"
	cfg.CloudflareBucketName = "audio"
	if !cfg.HasCloudflare() {
		t.Fatal("expected HasCloudflare() = true")
	}
}
