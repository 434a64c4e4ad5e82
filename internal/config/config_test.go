package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OCR_DPI", "")
	t.Setenv("CERTID_LLM_TIMEOUT_SECONDS", "")
	t.Setenv("MAX_UPLOAD_MB", "")
	t.Setenv("LLM_RETRY_ATTEMPTS", "")
	t.Setenv("LLM_BREAKER_DISABLED", "")
	t.Setenv("LLM_BREAKER_OPEN_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMProvider != ProviderGroq {
		t.Fatalf("expected groq provider, got %q", cfg.LLMProvider)
	}
	if cfg.OCRDPI != 300 {
		t.Fatalf("expected dpi 300, got %d", cfg.OCRDPI)
	}
	if cfg.EnrichTimeout != 8*time.Second {
		t.Fatalf("expected 8s enrichment timeout, got %s", cfg.EnrichTimeout)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Fatalf("expected 20MiB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.LLMRetryAttempts != 2 || cfg.LLMBreakerDisabled || cfg.LLMBreakerOpenTimeout != 20*time.Second {
		t.Fatalf("unexpected llm resilience defaults %d/%v/%s", cfg.LLMRetryAttempts, cfg.LLMBreakerDisabled, cfg.LLMBreakerOpenTimeout)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_PROVIDER", "Ollama")
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("GROQ_TIMEOUT_SECONDS", "2.5")
	t.Setenv("OCR_CONCURRENCY", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLMProvider != ProviderOllama || !cfg.MockMode {
		t.Fatalf("unexpected provider settings %q mock=%v", cfg.LLMProvider, cfg.MockMode)
	}
	if cfg.LLMTimeout != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.OCRConcurrency != 4 {
		t.Fatalf("expected invalid value to fall back to 4, got %d", cfg.OCRConcurrency)
	}
	if cfg.ProviderName() != "mock" || cfg.Model() != "mock" {
		t.Fatalf("expected mock provider/model, got %s/%s", cfg.ProviderName(), cfg.Model())
	}
}

func TestLoadFileValuesYieldToEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "API_PORT: 9000\nmodel_name: llama-3.1-8b-instant\nOCR_DPI: 200\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "")
	t.Setenv("MODEL_NAME", "")
	t.Setenv("OCR_DPI", "400")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "9000" {
		t.Fatalf("expected file port 9000, got %q", cfg.APIPort)
	}
	if cfg.ModelName != "llama-3.1-8b-instant" {
		t.Fatalf("expected lower-case file key to apply, got %q", cfg.ModelName)
	}
	if cfg.OCRDPI != 400 {
		t.Fatalf("expected env to override file, got %d", cfg.OCRDPI)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "groq without key", cfg: Config{LLMProvider: ProviderGroq}, wantErr: true},
		{name: "groq with key", cfg: Config{LLMProvider: ProviderGroq, GroqAPIKey: "gsk_x"}},
		{name: "ollama", cfg: Config{LLMProvider: ProviderOllama}},
		{name: "mock ignores provider", cfg: Config{LLMProvider: "nope", MockMode: true}},
		{name: "unknown provider", cfg: Config{LLMProvider: "nope"}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
