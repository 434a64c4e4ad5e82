package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

var errNoIdentifier = errors.New("model proposed no identifier")

// identifierKeys are looked up in order, first at the top level of the model
// answer and then under certificate_metadata.
var identifierKeys = []string{
	"certificate_number",
	"certificate_no",
	"cred_no",
	"credential_id",
	"reference_no",
}

// LLMIdentifierEnricher asks the text generator for the printed certificate number.
type LLMIdentifierEnricher struct {
	llm ports.TextGenerator
}

func NewLLMIdentifierEnricher(llm ports.TextGenerator) *LLMIdentifierEnricher {
	return &LLMIdentifierEnricher{llm: llm}
}

func (e *LLMIdentifierEnricher) ProposeIdentifier(ctx context.Context, text, issuerHint string) domain.Enrichment {
	raw, err := e.llm.GenerateJSONFromPrompt(ctx, buildIdentifierPrompt(text, issuerHint))
	if err != nil {
		return domain.Enrichment{Err: err}
	}
	obj, err := decodeLLMObject(raw)
	if err != nil {
		return domain.Enrichment{Err: err}
	}
	value := identifierFromObject(obj)
	if value == "" {
		return domain.Enrichment{Err: errNoIdentifier}
	}
	return domain.Enrichment{Value: value}
}

func identifierFromObject(obj map[string]any) string {
	if v := firstIdentifier(obj); v != "" {
		return v
	}
	if meta, ok := obj["certificate_metadata"].(map[string]any); ok {
		return firstIdentifier(meta)
	}
	return ""
}

func firstIdentifier(m map[string]any) string {
	for _, key := range identifierKeys {
		v := stringField(m, key)
		switch strings.ToLower(v) {
		case "", "null", "none", "n/a", "unknown":
			continue
		}
		return v
	}
	return ""
}
