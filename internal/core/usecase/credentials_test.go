package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

func TestIngestUploadSuccess(t *testing.T) {
	repo := newCredentialRepoFake()
	storage := newStorageFake()
	queue := &queueFake{}
	uc := NewIngestCredentialUseCase(repo, storage, queue)

	body := []byte("%PDF-1.4 certificate")
	cred, err := uc.Upload(context.Background(), ports.CredentialUpload{
		Filename:         "My Cert.PDF",
		LearnerEmail:     "Jane@Example.com",
		CertificateTitle: " Go Basics ",
	}, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if cred.Status != domain.CredentialPending {
		t.Fatalf("expected pending, got %s", cred.Status)
	}
	if cred.LearnerEmail != "jane@example.com" || cred.CertificateTitle != "Go Basics" {
		t.Fatalf("unexpected normalized fields %+v", cred)
	}
	doc, _ := domain.NewDocument("x.pdf", body)
	wantKey := doc.ContentHash() + ".pdf"
	if cred.StoragePath != wantKey {
		t.Fatalf("expected storage key %s, got %s", wantKey, cred.StoragePath)
	}
	if storage.objects[wantKey] != string(body) {
		t.Fatalf("expected body stored under content hash")
	}
	if len(queue.published) != 1 || queue.published[0] != cred.ID {
		t.Fatalf("expected queued id %s, got %v", cred.ID, queue.published)
	}
}

func TestIngestUploadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		upload ports.CredentialUpload
		body   string
		kind   error
	}{
		{name: "missing email", upload: ports.CredentialUpload{Filename: "a.pdf"}, body: "x", kind: domain.ErrInvalidInput},
		{name: "unsupported type", upload: ports.CredentialUpload{Filename: "a.docx", LearnerEmail: "a@b.c"}, body: "x", kind: domain.ErrUnsupportedDocument},
		{name: "empty file", upload: ports.CredentialUpload{Filename: "a.png", LearnerEmail: "a@b.c"}, kind: domain.ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			queue := &queueFake{}
			uc := NewIngestCredentialUseCase(newCredentialRepoFake(), newStorageFake(), queue)
			_, err := uc.Upload(context.Background(), tc.upload, strings.NewReader(tc.body))
			if !domain.IsKind(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			if len(queue.published) != 0 {
				t.Fatalf("expected nothing published")
			}
		})
	}
}

func TestIngestUploadQueueError(t *testing.T) {
	uc := NewIngestCredentialUseCase(newCredentialRepoFake(), newStorageFake(), &queueFake{err: errors.New("queue down")})

	_, err := uc.Upload(context.Background(), ports.CredentialUpload{Filename: "a.pdf", LearnerEmail: "a@b.c"}, strings.NewReader("%PDF"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "publish credential event") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func newProcessFixture(t *testing.T, extractor *extractorFake, gen *generatorFake) (*ProcessCredentialUseCase, *credentialRepoFake) {
	t.Helper()
	storage := newStorageFake()
	storage.objects["abc.pdf"] = "%PDF-1.4"
	repo := newCredentialRepoFake(domain.Credential{
		ID:               "cred-1",
		LearnerEmail:     "jane@example.com",
		CertificateTitle: "Go Basics",
		Filename:         "cert.pdf",
		StoragePath:      "abc.pdf",
		Status:           domain.CredentialPending,
	})
	analyzer := newOCRUseCase(gen, extractor, nil)
	return NewProcessCredentialUseCase(repo, storage, extractor, analyzer), repo
}

func TestProcessByIDSuccess(t *testing.T) {
	extractor := &extractorFake{text: "Certificate No: ACTNAADO2008500-001904"}
	uc, repo := newProcessFixture(t, extractor, &generatorFake{response: mockSkillResponse})

	if err := uc.ProcessByID(context.Background(), "cred-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.CredentialProcessing {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	saved, ok := repo.saved["cred-1"]
	if !ok {
		t.Fatalf("expected result saved")
	}
	if saved.CertificateID.Status != domain.StatusFound || len(saved.Skills) != 2 {
		t.Fatalf("unexpected saved result %+v", saved)
	}
	if len(extractor.docs) != 1 || extractor.docs[0].Kind != domain.KindPDF {
		t.Fatalf("expected stored pdf to be extracted, got %+v", extractor.docs)
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	extractor := &extractorFake{err: domain.WrapError(domain.ErrRasterizerUnavailable, "rasterize", errors.New("pdftoppm missing"))}
	uc, repo := newProcessFixture(t, extractor, &generatorFake{response: mockSkillResponse})

	err := uc.ProcessByID(context.Background(), "cred-1")
	if !domain.IsKind(err, domain.ErrRasterizerUnavailable) {
		t.Fatalf("expected rasterizer error, got %v", err)
	}
	if len(repo.statusCalls) != 2 || repo.statusCalls[1].status != domain.CredentialFailed {
		t.Fatalf("expected processing + failed, got %+v", repo.statusCalls)
	}
	if !strings.Contains(repo.statusCalls[1].errMsg, "pdftoppm missing") {
		t.Fatalf("expected failure reason stored, got %q", repo.statusCalls[1].errMsg)
	}
}

func TestProcessByIDMarksFailedOnShortText(t *testing.T) {
	uc, repo := newProcessFixture(t, &extractorFake{text: "tiny"}, &generatorFake{response: mockSkillResponse})

	err := uc.ProcessByID(context.Background(), "cred-1")
	if !domain.IsKind(err, domain.ErrInsufficientText) {
		t.Fatalf("expected insufficient text, got %v", err)
	}
	if len(repo.saved) != 0 {
		t.Fatalf("expected nothing saved")
	}
	if last := repo.statusCalls[len(repo.statusCalls)-1]; last.status != domain.CredentialFailed {
		t.Fatalf("expected failed status, got %+v", last)
	}
}

type rendererFake struct {
	creds []domain.Credential
}

func (f *rendererFake) RenderSkills(creds []domain.Credential) ([]byte, error) {
	f.creds = creds
	return []byte("xlsx"), nil
}

func TestExportLearnerSkills(t *testing.T) {
	repo := newCredentialRepoFake(
		storedCredential("c1", "jane@example.com", "Go Basics"),
		storedCredential("c2", "other@example.com", "Other"),
	)
	renderer := &rendererFake{}
	out, err := NewExportSkillsUseCase(repo, renderer).ExportLearnerSkills(context.Background(), "JANE@example.com")
	if err != nil {
		t.Fatalf("ExportLearnerSkills() error = %v", err)
	}
	if string(out) != "xlsx" || len(renderer.creds) != 1 || renderer.creds[0].ID != "c1" {
		t.Fatalf("unexpected export: %q %+v", out, renderer.creds)
	}
}
