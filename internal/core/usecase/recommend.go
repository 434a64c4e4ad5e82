package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

const recommendationConfidence = 0.9

type RecommendationUseCase struct {
	llm    ports.TextGenerator
	source string
	logger *slog.Logger
}

// NewRecommendationUseCase builds the recommender; source names the LLM
// provider reported in responses.
func NewRecommendationUseCase(llm ports.TextGenerator, source string, logger *slog.Logger) *RecommendationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendationUseCase{llm: llm, source: source, logger: logger}
}

func (uc *RecommendationUseCase) Recommend(ctx context.Context, req domain.RecommendationRequest) (domain.Recommendations, error) {
	skills, titles := collectSkills(req.Certificates)
	if len(skills) == 0 {
		return domain.EmptyRecommendations(), nil
	}

	raw, err := uc.llm.GenerateJSONFromPrompt(ctx, buildRecommendationPrompt(skills, titles))
	if err != nil {
		uc.logger.Warn("recommendation_failed", "error", err)
		return domain.EmptyRecommendations(), nil
	}
	obj, err := decodeLLMObject(raw)
	if err == nil {
		err = validateAgainst(recommendationsSchema, obj)
	}
	var out domain.Recommendations
	if err == nil {
		err = remarshal(obj, &out)
	}
	if err != nil {
		uc.logger.Warn("recommendation_unusable", "error", err)
		return domain.EmptyRecommendations(), nil
	}

	if len(out.Skills) == 0 {
		out.Skills = skills
	}
	fillRecommendationDefaults(&out)
	out.Source = uc.source
	out.Confidence = recommendationConfidence
	out.NSQFConfidence = clamp(out.NSQFConfidence, 0, 1)
	return out, nil
}

// collectSkills returns unique skills in first-seen order and all titles.
func collectSkills(certs []domain.CertificateInput) ([]string, []string) {
	seen := make(map[string]struct{})
	var skills, titles []string
	for _, cert := range certs {
		titles = append(titles, cert.CertificateTitle)
		for _, s := range cert.Metadata.Skills {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			key := strings.ToLower(s)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			skills = append(skills, s)
		}
	}
	return skills, titles
}

func fillRecommendationDefaults(r *domain.Recommendations) {
	if r.RecommendedNextSkills == nil {
		r.RecommendedNextSkills = []domain.RecommendedSkill{}
	}
	if r.RoleSuggestions == nil {
		r.RoleSuggestions = []domain.RoleSuggestion{}
	}
	if r.LearningPath == nil {
		r.LearningPath = []domain.LearningStage{}
	}
	if r.RecommendedCourses == nil {
		r.RecommendedCourses = []domain.CourseRecommendation{}
	}
	if r.NSQFLevel <= 0 {
		r.NSQFLevel = 1
	}
}
