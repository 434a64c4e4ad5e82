package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/micromerit/ai-service/internal/core/certid"
	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

// MinIdentifierTextChars is the trimmed text length below which the
// candidate pipeline is not run.
const MinIdentifierTextChars = 5

const defaultEnrichTimeout = 8 * time.Second

type CertificateIDOptions struct {
	// Enricher is optional; nil disables LLM enrichment.
	Enricher      ports.IdentifierEnricher
	EnrichTimeout time.Duration
	Observer      ports.ExtractionObserver
	Logger        *slog.Logger
}

type CertificateIDUseCase struct {
	extractor     ports.TextExtractor
	enricher      ports.IdentifierEnricher
	enrichTimeout time.Duration
	observer      ports.ExtractionObserver
	logger        *slog.Logger
}

func NewCertificateIDUseCase(extractor ports.TextExtractor, opts CertificateIDOptions) *CertificateIDUseCase {
	if opts.EnrichTimeout <= 0 {
		opts.EnrichTimeout = defaultEnrichTimeout
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &CertificateIDUseCase{
		extractor:     extractor,
		enricher:      opts.Enricher,
		enrichTimeout: opts.EnrichTimeout,
		observer:      opts.Observer,
		logger:        opts.Logger,
	}
}

// ExtractCertificateID runs text extraction and the identifier pipeline.
// Only extraction failures are returned as errors; everything after that
// degrades towards not_found.
func (uc *CertificateIDUseCase) ExtractCertificateID(ctx context.Context, doc domain.Document, issuerHint string) (domain.ExtractionResult, error) {
	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return domain.NotFoundResult(), fmt.Errorf("extract text: %w", err)
	}
	uc.observer.ObserveTextExtraction(text.Method, len(text.Text))
	return uc.ExtractFromText(ctx, text.Text, issuerHint), nil
}

// ExtractFromText runs the pipeline over already extracted text, asking the
// enricher for a proposal when one is configured.
func (uc *CertificateIDUseCase) ExtractFromText(ctx context.Context, text, issuerHint string) domain.ExtractionResult {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinIdentifierTextChars {
		uc.observer.ObserveCertificateID(domain.StatusNotFound)
		return domain.NotFoundResult()
	}
	cands := certid.ScoreAll(certid.GenerateCandidates(text))
	return uc.decide(text, cands, uc.enrich(ctx, text, issuerHint))
}

// ExtractWithProposal is ExtractFromText with an identifier that is already
// known, e.g. from a skill extraction pass over the same text.
func (uc *CertificateIDUseCase) ExtractWithProposal(text, proposal string) domain.ExtractionResult {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinIdentifierTextChars {
		uc.observer.ObserveCertificateID(domain.StatusNotFound)
		return domain.NotFoundResult()
	}
	cands := certid.ScoreAll(certid.GenerateCandidates(text))
	return uc.decide(text, cands, certid.LLMCandidate(proposal))
}

func (uc *CertificateIDUseCase) decide(text string, cands []domain.Candidate, extra *domain.Candidate) domain.ExtractionResult {
	result := certid.SelectFromText(text, cands, extra)
	uc.observer.ObserveCertificateID(result.Status)
	uc.logger.Debug("certificate_id_selected",
		"status", result.Status,
		"confidence", result.Confidence,
		"candidates", len(cands),
		"llm_candidate", extra != nil,
	)
	return result
}

func (uc *CertificateIDUseCase) enrich(ctx context.Context, text, issuerHint string) *domain.Candidate {
	if uc.enricher == nil {
		return nil
	}
	enrichCtx, cancel := context.WithTimeout(ctx, uc.enrichTimeout)
	defer cancel()

	done := make(chan domain.Enrichment, 1)
	go func() {
		done <- uc.enricher.ProposeIdentifier(enrichCtx, text, issuerHint)
	}()
	var proposal domain.Enrichment
	select {
	case proposal = <-done:
	case <-enrichCtx.Done():
		proposal = domain.Enrichment{Err: enrichCtx.Err()}
	}

	switch {
	case proposal.OK():
		uc.observer.ObserveEnrichment("ok")
		return certid.LLMCandidate(proposal.Value)
	case proposal.Err == nil || errors.Is(proposal.Err, errNoIdentifier):
		uc.observer.ObserveEnrichment("empty")
	case errors.Is(proposal.Err, context.DeadlineExceeded):
		uc.observer.ObserveEnrichment("timeout")
		uc.logger.Warn("certificate_id_enrichment_timeout", "timeout", uc.enrichTimeout.String())
	default:
		uc.observer.ObserveEnrichment("error")
		uc.logger.Warn("certificate_id_enrichment_failed", "error", proposal.Err)
	}
	return nil
}

type noopObserver struct{}

func (noopObserver) ObserveTextExtraction(domain.ExtractionMethod, int) {}
func (noopObserver) ObserveCertificateID(domain.ExtractionStatus)      {}
func (noopObserver) ObserveEnrichment(string)                          {}
