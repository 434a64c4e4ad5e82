package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

// MinSkillTextChars is the trimmed text length required for skill extraction.
const MinSkillTextChars = 10

const defaultSkillConfidence = 0.7

type OCRProcessUseCase struct {
	extractor ports.TextExtractor
	llm       ports.TextGenerator
	certID    *CertificateIDUseCase
	repo      ports.CredentialRepository
	logger    *slog.Logger
}

// NewOCRProcessUseCase wires the OCR flow. repo may be nil, in which case
// results are never persisted.
func NewOCRProcessUseCase(
	extractor ports.TextExtractor,
	llm ports.TextGenerator,
	certID *CertificateIDUseCase,
	repo ports.CredentialRepository,
	logger *slog.Logger,
) *OCRProcessUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRProcessUseCase{
		extractor: extractor,
		llm:       llm,
		certID:    certID,
		repo:      repo,
		logger:    logger,
	}
}

func (uc *OCRProcessUseCase) Process(ctx context.Context, req domain.OCRRequest) (*domain.OCRResult, error) {
	text, err := uc.extractor.Extract(ctx, req.Document)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	result, err := uc.Analyze(ctx, text.Text, req.CertificateTitle, req.IssuerName, req.NSQFContext)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.LearnerEmail) != "" && uc.repo != nil {
		id, err := uc.persist(ctx, req, *result)
		if err != nil {
			uc.logger.Warn("credential_persist_failed", "learner_email", domain.NormalizeEmail(req.LearnerEmail), "error", err)
		} else {
			result.CredentialID = id
		}
	}
	return result, nil
}

// Analyze runs skill extraction and certificate id detection over extracted text.
func (uc *OCRProcessUseCase) Analyze(ctx context.Context, text, title, issuer string, nsqfContext []map[string]any) (*domain.OCRResult, error) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < MinSkillTextChars {
		return nil, domain.WrapError(domain.ErrInsufficientText, "ocr process",
			fmt.Errorf("extracted %d characters, need at least %d", utf8.RuneCountInString(text), MinSkillTextChars))
	}

	extraction, proposal := uc.extractSkills(ctx, text, title, issuer, nsqfContext)
	return &domain.OCRResult{
		ExtractedText:   text,
		SkillExtraction: extraction,
		CertificateID:   uc.certID.ExtractWithProposal(text, proposal),
	}, nil
}

func (uc *OCRProcessUseCase) extractSkills(ctx context.Context, text, title, issuer string, nsqfContext []map[string]any) (domain.SkillExtraction, string) {
	raw, err := uc.llm.GenerateJSONFromPrompt(ctx, buildSkillExtractionPrompt(text, title, issuer, nsqfContext))
	if err != nil {
		uc.logger.Warn("skill_extraction_failed", "error", err)
		return domain.EmptySkillExtraction(), ""
	}
	obj, err := decodeLLMObject(raw)
	if err != nil {
		uc.logger.Warn("skill_extraction_unparseable", "error", err, "response_prefix", truncateRunes(raw, 200))
		return domain.EmptySkillExtraction(), ""
	}
	return normalizeSkillExtraction(obj), identifierFromObject(obj)
}

func (uc *OCRProcessUseCase) persist(ctx context.Context, req domain.OCRRequest, result domain.OCRResult) (string, error) {
	now := time.Now().UTC()
	cred := &domain.Credential{
		ID:               uuid.NewString(),
		LearnerEmail:     domain.NormalizeEmail(req.LearnerEmail),
		CertificateTitle: req.CertificateTitle,
		IssuerName:       req.IssuerName,
		Filename:         req.Document.Filename,
		ContentHash:      req.Document.ContentHash(),
		Status:           domain.CredentialProcessing,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repo.Create(ctx, cred); err != nil {
		return "", fmt.Errorf("create credential: %w", err)
	}
	if err := uc.repo.SaveResult(ctx, cred.ID, result); err != nil {
		return "", fmt.Errorf("save credential result: %w", err)
	}
	return cred.ID, nil
}

func normalizeSkillExtraction(obj map[string]any) domain.SkillExtraction {
	return domain.SkillExtraction{
		Skills:              normalizeSkills(obj["skills"]),
		NSQF:                normalizeNSQF(obj["nsqf"], hasKey(obj, "nsqf")),
		NSQFAlignment:       normalizeAlignment(obj["nsqf_alignment"]),
		Keywords:            normalizeKeywords(obj["keywords"]),
		CertificateMetadata: normalizeMetadata(obj["certificate_metadata"]),
		Description:         stringOrEmpty(obj["description"]),
	}
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func normalizeSkills(v any) []domain.Skill {
	items, _ := v.([]any)
	out := make([]domain.Skill, 0, len(items))
	for _, item := range items {
		switch s := item.(type) {
		case string:
			if name := strings.TrimSpace(s); name != "" {
				out = append(out, domain.Skill{Name: name, Category: "General", Confidence: defaultSkillConfidence})
			}
		case map[string]any:
			skill := parseSkill(s)
			if skill.Name != "" {
				out = append(out, skill)
			}
		}
	}
	return out
}

func parseSkill(m map[string]any) domain.Skill {
	skill := domain.Skill{
		Name:       stringField(m, "name"),
		Category:   stringField(m, "category"),
		Confidence: defaultSkillConfidence,
	}
	if skill.Category == "" {
		skill.Category = "General"
	}
	if level := stringField(m, "proficiency_level"); level != "" && !strings.EqualFold(level, "null") {
		skill.ProficiencyLevel = &level
	}
	if c, ok := numberField(m, "confidence"); ok {
		skill.Confidence = clamp(c, 0, 1)
	}
	return skill
}

// normalizeNSQF accepts a bare level number or an object. A missing key
// yields level 1 with no reasoning; any other shape, null included, cannot
// be assessed.
func normalizeNSQF(v any, present bool) domain.NSQFLevel {
	if !present {
		return domain.NSQFLevel{Level: 1}
	}
	switch n := v.(type) {
	case float64:
		return domain.NSQFLevel{
			Level:      int(n),
			Confidence: defaultSkillConfidence,
			Reasoning:  "Assessed as NSQF level " + strconv.FormatFloat(n, 'f', -1, 64),
		}
	case map[string]any:
		level := domain.NSQFLevel{Level: 1, Reasoning: stringOrEmpty(n["reasoning"])}
		if l, ok := numberField(n, "level"); ok {
			level.Level = int(l)
		}
		if c, ok := numberField(n, "confidence"); ok {
			level.Confidence = clamp(c, 0, 1)
		}
		return level
	default:
		return domain.NSQFLevel{Level: 1, Reasoning: "Could not assess"}
	}
}

func normalizeKeywords(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		switch k := item.(type) {
		case string:
			s = k
		case float64:
			s = strconv.FormatFloat(k, 'f', -1, 64)
		default:
			continue
		}
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeMetadata(v any) domain.CertificateMetadata {
	m, ok := v.(map[string]any)
	if !ok {
		return domain.CertificateMetadata{}
	}
	return domain.CertificateMetadata{
		CourseName:        stringField(m, "course_name"),
		Duration:          stringField(m, "duration"),
		CompletionDate:    stringField(m, "completion_date"),
		GradeOrScore:      stringField(m, "grade_or_score"),
		CertificateNumber: stringField(m, "certificate_number"),
	}
}

func normalizeAlignment(v any) *domain.NSQFAlignment {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	var out domain.NSQFAlignment
	out.Aligned, _ = m["aligned"].(bool)
	out.JobRole = optionalString(m, "job_role")
	out.QPCode = optionalString(m, "qp_code")
	out.NOSCode = optionalString(m, "nos_code")
	out.Reasoning = optionalString(m, "reasoning")
	if l, ok := numberField(m, "nsqf_level"); ok {
		level := int(l)
		out.NSQFLevel = &level
	}
	if c, ok := numberField(m, "confidence"); ok {
		out.Confidence = clamp(c, 0, 1)
	}
	return &out
}

func optionalString(m map[string]any, key string) *string {
	s := stringField(m, key)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

func stringOrEmpty(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
