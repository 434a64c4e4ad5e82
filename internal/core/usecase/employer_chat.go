package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

type EmployerChatUseCase struct {
	repo   ports.CredentialRepository
	llm    ports.TextGenerator
	logger *slog.Logger
}

func NewEmployerChatUseCase(repo ports.CredentialRepository, llm ports.TextGenerator, logger *slog.Logger) *EmployerChatUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmployerChatUseCase{repo: repo, llm: llm, logger: logger}
}

// Answer replies to an employer question from the learner's stored
// credentials. Store errors are returned; model errors yield a fixed answer.
func (uc *EmployerChatUseCase) Answer(ctx context.Context, req domain.EmployerChatRequest) (domain.EmployerChatAnswer, error) {
	email := domain.NormalizeEmail(req.LearnerEmail)
	if email == "" || strings.TrimSpace(req.Question) == "" {
		return domain.EmployerChatAnswer{}, domain.WrapError(domain.ErrInvalidInput, "employer chat", fmt.Errorf("learner_email and question are required"))
	}

	creds, err := uc.repo.ListByLearner(ctx, email)
	if err != nil {
		return domain.EmployerChatAnswer{}, fmt.Errorf("list learner credentials: %w", err)
	}
	if len(creds) == 0 {
		return domain.EmployerChatAnswer{
			Answer:                 fmt.Sprintf("No certificates found for %s. Cannot assess skills.", req.LearnerEmail),
			RelevantSkills:         []domain.Skill{},
			CertificatesReferenced: []string{},
		}, nil
	}

	prompt := buildEmployerPrompt(req.LearnerEmail, req.Question, buildSkillsContext(creds))
	raw, err := uc.llm.GenerateJSONFromPrompt(ctx, prompt)
	if err != nil {
		uc.logger.Warn("employer_chat_failed", "error", err)
		return defaultEmployerAnswer(req.Question), nil
	}
	obj, err := decodeLLMObject(raw)
	if err != nil {
		uc.logger.Warn("employer_chat_unparseable", "error", err)
		return defaultEmployerAnswer(req.Question), nil
	}

	answer := domain.EmployerChatAnswer{
		Answer:                 stringField(obj, "answer"),
		RelevantSkills:         normalizeSkills(obj["relevant_skills"]),
		CertificatesReferenced: stringList(obj["certificates_referenced"]),
	}
	if answer.Answer == "" {
		return defaultEmployerAnswer(req.Question), nil
	}
	if c, ok := numberField(obj, "confidence"); ok {
		answer.Confidence = clamp(c, 0, 1)
	}
	return answer, nil
}

func buildSkillsContext(creds []domain.Credential) string {
	parts := make([]string, 0, len(creds))
	for _, cred := range creds {
		var b strings.Builder
		fmt.Fprintf(&b, "Certificate: %s\n", orUnknown(cred.CertificateTitle))
		fmt.Fprintf(&b, "Issuer: %s\n", orUnknown(cred.IssuerName))
		ex := cred.Extraction
		if len(ex.Skills) > 0 {
			names := make([]string, 0, len(ex.Skills))
			for _, s := range ex.Skills {
				names = append(names, s.Name)
			}
			fmt.Fprintf(&b, "Skills: %s\n", strings.Join(names, ", "))
		}
		if len(ex.Keywords) > 0 {
			fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(ex.Keywords, ", "))
		}
		if ex.NSQF.Level > 0 {
			fmt.Fprintf(&b, "NSQF Level: %s\n", strconv.Itoa(ex.NSQF.Level))
		}
		if ex.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", ex.Description)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n---\n")
}

func defaultEmployerAnswer(question string) domain.EmployerChatAnswer {
	return domain.EmployerChatAnswer{
		Answer:                 fmt.Sprintf("I'm unable to process the question '%s' at this time. Please try again.", question),
		RelevantSkills:         []domain.Skill{},
		CertificatesReferenced: []string{},
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func stringList(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
