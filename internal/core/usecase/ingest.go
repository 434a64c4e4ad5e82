package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

type IngestCredentialUseCase struct {
	repo    ports.CredentialRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestCredentialUseCase(
	repo ports.CredentialRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestCredentialUseCase {
	return &IngestCredentialUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

// Upload stores the certificate under its content hash, records a pending
// credential and queues it for the worker.
func (uc *IngestCredentialUseCase) Upload(
	ctx context.Context,
	upload ports.CredentialUpload,
	body io.Reader,
) (*domain.Credential, error) {
	email := domain.NormalizeEmail(upload.LearnerEmail)
	if email == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload credential", fmt.Errorf("learner_email is required"))
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload credential", fmt.Errorf("read body: %w", err))
	}
	doc, err := domain.NewDocument(upload.Filename, data)
	if err != nil {
		return nil, err
	}

	hash := doc.ContentHash()
	storageKey := hash + strings.ToLower(filepath.Ext(upload.Filename))
	if err := uc.storage.Save(ctx, storageKey, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	now := time.Now().UTC()
	cred := &domain.Credential{
		ID:               uuid.NewString(),
		LearnerEmail:     email,
		CertificateTitle: strings.TrimSpace(upload.CertificateTitle),
		IssuerName:       strings.TrimSpace(upload.IssuerName),
		Filename:         upload.Filename,
		StoragePath:      storageKey,
		ContentHash:      hash,
		Status:           domain.CredentialPending,
		CertificateID:    domain.NotFoundResult(),
		Extraction:       domain.EmptySkillExtraction(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.repo.Create(ctx, cred); err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}

	if err := uc.queue.PublishCredentialUploaded(ctx, cred.ID); err != nil {
		return nil, fmt.Errorf("publish credential event: %w", err)
	}
	return cred, nil
}
