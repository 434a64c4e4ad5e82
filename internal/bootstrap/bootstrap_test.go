package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/micromerit/ai-service/internal/config"
	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/infrastructure/llm/mock"
	"github.com/micromerit/ai-service/internal/infrastructure/llm/ollama"
	"github.com/micromerit/ai-service/internal/infrastructure/llm/openaicompat"
	"github.com/micromerit/ai-service/internal/infrastructure/resilience"
)

func TestNewGeneratorSelectsProvider(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.Config
		check func(any) bool
	}{
		{name: "mock", cfg: config.Config{MockMode: true, LLMProvider: config.ProviderOllama}, check: func(v any) bool { _, ok := v.(*mock.Generator); return ok }},
		{name: "ollama", cfg: config.Config{LLMProvider: config.ProviderOllama}, check: func(v any) bool { _, ok := v.(*ollama.Client); return ok }},
		{name: "groq", cfg: config.Config{LLMProvider: config.ProviderGroq, GroqAPIKey: "gsk"}, check: func(v any) bool { _, ok := v.(*openaicompat.Client); return ok }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPipeline(tc.cfg, Options{})
			if !tc.check(p.LLM) {
				t.Fatalf("unexpected generator %T", p.LLM)
			}
		})
	}
}

func TestPipelineExtractsFromTextWithoutEnrichment(t *testing.T) {
	p := NewPipeline(config.Config{MockMode: true, EnrichEnabled: false}, Options{})

	result := p.CertificateID.ExtractFromText(context.Background(), "Certificate No: ACTNAADO2008500-001904", "")
	if result.Status != domain.StatusFound {
		t.Fatalf("expected found, got %+v", result)
	}
}

func TestResilienceConfigFollowsSettings(t *testing.T) {
	rc := resilienceConfig(config.Config{
		LLMRetryAttempts:      4,
		LLMBreakerDisabled:    true,
		LLMBreakerOpenTimeout: 5 * time.Second,
	})
	if rc.RetryMaxAttempts != 4 || rc.BreakerEnabled || rc.BreakerOpenTimeout != 5*time.Second {
		t.Fatalf("unexpected resilience config %+v", rc)
	}

	rc = resilienceConfig(config.Config{})
	def := resilience.DefaultConfig()
	if rc != def {
		t.Fatalf("expected defaults for unset settings, got %+v", rc)
	}
}
