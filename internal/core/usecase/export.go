package usecase

import (
	"context"
	"fmt"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

type ExportSkillsUseCase struct {
	repo     ports.CredentialRepository
	renderer ports.SkillsRenderer
}

func NewExportSkillsUseCase(repo ports.CredentialRepository, renderer ports.SkillsRenderer) *ExportSkillsUseCase {
	return &ExportSkillsUseCase{repo: repo, renderer: renderer}
}

func (uc *ExportSkillsUseCase) ExportLearnerSkills(ctx context.Context, email string) ([]byte, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "export skills", fmt.Errorf("learner email is required"))
	}
	creds, err := uc.repo.ListByLearner(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list learner credentials: %w", err)
	}
	out, err := uc.renderer.RenderSkills(creds)
	if err != nil {
		return nil, fmt.Errorf("render skills workbook: %w", err)
	}
	return out, nil
}
