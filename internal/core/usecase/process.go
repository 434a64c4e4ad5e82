package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

type ProcessCredentialUseCase struct {
	repo      ports.CredentialRepository
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	analyzer  *OCRProcessUseCase
}

func NewProcessCredentialUseCase(
	repo ports.CredentialRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	analyzer *OCRProcessUseCase,
) *ProcessCredentialUseCase {
	return &ProcessCredentialUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		analyzer:  analyzer,
	}
}

func (uc *ProcessCredentialUseCase) ProcessByID(ctx context.Context, credentialID string) error {
	if err := uc.markStatus(ctx, credentialID, domain.CredentialProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	result, err := uc.processPipeline(ctx, credentialID)
	if err == nil {
		err = uc.persistResult(ctx, credentialID, *result)
	}
	if err != nil {
		if failErr := uc.markFailed(ctx, credentialID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}
	return nil
}

func (uc *ProcessCredentialUseCase) processPipeline(ctx context.Context, credentialID string) (*domain.OCRResult, error) {
	cred, err := uc.repo.GetByID(ctx, credentialID)
	if err != nil {
		return nil, fmt.Errorf("fetch credential by id: %w", err)
	}

	doc, err := uc.loadDocument(ctx, cred)
	if err != nil {
		return nil, err
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	return uc.analyzer.Analyze(ctx, text.Text, cred.CertificateTitle, cred.IssuerName, nil)
}

func (uc *ProcessCredentialUseCase) loadDocument(ctx context.Context, cred *domain.Credential) (domain.Document, error) {
	rc, err := uc.storage.Open(ctx, cred.StoragePath)
	if err != nil {
		return domain.Document{}, fmt.Errorf("open stored certificate: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read stored certificate: %w", err)
	}
	return domain.NewDocument(cred.Filename, data)
}

func (uc *ProcessCredentialUseCase) persistResult(ctx context.Context, credentialID string, result domain.OCRResult) error {
	if err := uc.repo.SaveResult(ctx, credentialID, result); err != nil {
		return fmt.Errorf("save credential result: %w", err)
	}
	return nil
}

func (uc *ProcessCredentialUseCase) markStatus(ctx context.Context, credentialID string, status domain.CredentialStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, credentialID, status, errMessage)
}

func (uc *ProcessCredentialUseCase) markFailed(ctx context.Context, credentialID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, credentialID, domain.CredentialFailed, processErr.Error())
}
