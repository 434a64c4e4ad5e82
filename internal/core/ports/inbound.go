package ports

import (
	"context"
	"io"

	"github.com/micromerit/ai-service/internal/core/domain"
)

// CertificateIDExtractor is the inbound contract for certificate identifier extraction.
type CertificateIDExtractor interface {
	ExtractCertificateID(ctx context.Context, doc domain.Document, issuerHint string) (domain.ExtractionResult, error)
}

// OCRProcessor turns a certificate into skills, NSQF level and metadata.
type OCRProcessor interface {
	Process(ctx context.Context, req domain.OCRRequest) (*domain.OCRResult, error)
}

type Recommender interface {
	Recommend(ctx context.Context, req domain.RecommendationRequest) (domain.Recommendations, error)
}

type PathwayAnalyzer interface {
	Analyze(ctx context.Context, req domain.StackabilityRequest) (domain.StackabilityReport, error)
}

type EmployerAssistant interface {
	Answer(ctx context.Context, req domain.EmployerChatRequest) (domain.EmployerChatAnswer, error)
}

// CredentialIngestor accepts certificates for asynchronous processing.
type CredentialIngestor interface {
	Upload(ctx context.Context, upload CredentialUpload, body io.Reader) (*domain.Credential, error)
}

type CredentialUpload struct {
	Filename         string
	LearnerEmail     string
	CertificateTitle string
	IssuerName       string
}

// CredentialReader is the read model for stored credentials.
type CredentialReader interface {
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
	ListByLearner(ctx context.Context, email string) ([]domain.Credential, error)
}

// CredentialProcessor runs the OCR pipeline for a queued credential.
type CredentialProcessor interface {
	ProcessByID(ctx context.Context, credentialID string) error
}

type SkillsExporter interface {
	ExportLearnerSkills(ctx context.Context, email string) ([]byte, error)
}
