package ports

import (
	"context"
	"io"

	"github.com/micromerit/ai-service/internal/core/domain"
)

// TextExtractor renders a document as plain text.
type TextExtractor interface {
	Extract(ctx context.Context, doc domain.Document) (domain.ExtractedText, error)
}

// PageReader returns the embedded text of every PDF page; unreadable pages are empty strings.
type PageReader interface {
	Pages(ctx context.Context, pdf []byte) ([]string, error)
}

// Rasterizer renders every PDF page to an image. It fails with
// domain.ErrRasterizerUnavailable when the host lacks the capability.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte) ([][]byte, error)
}

// OCREngine recognizes text on a single image.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// TextGenerator is the LLM completion oracle.
type TextGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
	GenerateJSONFromPrompt(ctx context.Context, prompt string) (string, error)
}

// IdentifierEnricher proposes a certificate identifier from extracted text.
type IdentifierEnricher interface {
	ProposeIdentifier(ctx context.Context, text, issuerHint string) domain.Enrichment
}

// CredentialRepository persists credential state.
type CredentialRepository interface {
	Create(ctx context.Context, cred *domain.Credential) error
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
	ListByLearner(ctx context.Context, email string) ([]domain.Credential, error)
	UpdateStatus(ctx context.Context, id string, status domain.CredentialStatus, errMessage string) error
	SaveResult(ctx context.Context, id string, result domain.OCRResult) error
}

// ObjectStorage stores source certificates.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes credential upload events.
type MessageQueue interface {
	PublishCredentialUploaded(ctx context.Context, credentialID string) error
	SubscribeCredentialUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// ExtractionObserver receives pipeline outcomes for metrics.
type ExtractionObserver interface {
	ObserveTextExtraction(method domain.ExtractionMethod, chars int)
	ObserveCertificateID(status domain.ExtractionStatus)
	ObserveEnrichment(outcome string)
}

// SkillsRenderer turns stored credentials into a downloadable workbook.
type SkillsRenderer interface {
	RenderSkills(creds []domain.Credential) ([]byte, error)
}
