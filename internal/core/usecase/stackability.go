package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

type StackabilityUseCase struct {
	llm    ports.TextGenerator
	logger *slog.Logger
}

func NewStackabilityUseCase(llm ports.TextGenerator, logger *slog.Logger) *StackabilityUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &StackabilityUseCase{llm: llm, logger: logger}
}

// Analyze maps a qualification and the learner's skills to stackable
// pathways. Unlike the other LLM features, failures are returned.
func (uc *StackabilityUseCase) Analyze(ctx context.Context, req domain.StackabilityRequest) (domain.StackabilityReport, error) {
	raw, err := uc.llm.GenerateJSONFromPrompt(ctx, buildStackabilityPrompt(req))
	if err != nil {
		return domain.StackabilityReport{}, fmt.Errorf("stackability analysis: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		return domain.StackabilityReport{Pathways: []domain.StackablePathway{}}, nil
	}
	obj, err := decodeLLMObject(raw)
	if err != nil {
		return domain.StackabilityReport{}, fmt.Errorf("stackability analysis: %w", err)
	}
	if err := validateAgainst(stackabilitySchema, obj); err != nil {
		return domain.StackabilityReport{}, fmt.Errorf("stackability analysis: %w", err)
	}

	items, _ := obj["pathways"].([]any)
	report := domain.StackabilityReport{Pathways: make([]domain.StackablePathway, 0, len(items))}
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		report.Pathways = append(report.Pathways, parsePathway(m))
	}
	uc.logger.Debug("stackability_analyzed", "pathways", len(report.Pathways))
	return report, nil
}

func parsePathway(m map[string]any) domain.StackablePathway {
	p := domain.StackablePathway{
		PathwayTitle:      stringField(m, "pathway_title"),
		Description:       stringField(m, "description"),
		NextCredential:    stringField(m, "next_credential"),
		EstimatedDuration: stringField(m, "estimated_duration"),
		Skills:            []domain.PathwaySkill{},
	}

	var earned, total int
	items, _ := m["skills"].([]any)
	for _, item := range items {
		sm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		skill := parsePathwaySkill(sm)
		earned += skill.CreditsEarned
		total += skill.CreditsTotal
		p.Skills = append(p.Skills, skill)
	}

	if progress, ok := numberField(m, "progress_percentage"); ok {
		p.ProgressPercentage = int(math.Round(clamp(progress, 0, 100)))
	} else if total > 0 {
		p.ProgressPercentage = int(math.Round(100 * float64(earned) / float64(total)))
	}
	return p
}

func parsePathwaySkill(m map[string]any) domain.PathwaySkill {
	s := domain.PathwaySkill{
		Name:   stringField(m, "name"),
		Status: normalizePathwayStatus(stringField(m, "status")),
	}
	if v, ok := numberField(m, "credits_total"); ok && v > 0 {
		s.CreditsTotal = int(math.Round(v))
	}
	if v, ok := numberField(m, "credits_earned"); ok && v > 0 {
		s.CreditsEarned = int(math.Round(v))
	}
	if s.CreditsTotal > 0 && s.CreditsEarned > s.CreditsTotal {
		s.CreditsEarned = s.CreditsTotal
	}
	return s
}

func normalizePathwayStatus(raw string) domain.PathwaySkillStatus {
	key := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(raw)))
	switch key {
	case "completed", "complete", "done", "achieved":
		return domain.PathwaySkillCompleted
	case "in_progress", "inprogress", "partial", "ongoing":
		return domain.PathwaySkillInProgress
	default:
		return domain.PathwaySkillMissing
	}
}
