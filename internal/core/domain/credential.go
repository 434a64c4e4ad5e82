package domain

import (
	"strings"
	"time"
)

type CredentialStatus string

const (
	CredentialPending    CredentialStatus = "pending"
	CredentialProcessing CredentialStatus = "processing"
	CredentialReady      CredentialStatus = "ready"
	CredentialFailed     CredentialStatus = "failed"
)

// Credential is a learner certificate together with everything derived from it.
type Credential struct {
	ID               string           `json:"id"`
	LearnerEmail     string           `json:"learner_email"`
	CertificateTitle string           `json:"certificate_title"`
	IssuerName       string           `json:"issuer_name"`
	Filename         string           `json:"filename"`
	StoragePath      string           `json:"storage_path"`
	ContentHash      string           `json:"content_hash"`
	Status           CredentialStatus `json:"status"`
	Error            string           `json:"error,omitempty"`
	CertificateID    ExtractionResult `json:"certificate_id"`
	Extraction       SkillExtraction  `json:"extraction"`
	ExtractedText    string           `json:"-"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NormalizeEmail is the lookup key for learner credentials.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
