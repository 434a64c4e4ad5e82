package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/micromerit/ai-service/internal/core/domain"
)

type generatorFake struct {
	mu       sync.Mutex
	response string
	err      error
	respond  func(prompt string) (string, error)
	prompts  []string
}

func (f *generatorFake) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	return f.GenerateJSONFromPrompt(ctx, prompt)
}

func (f *generatorFake) GenerateJSONFromPrompt(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(prompt)
	}
	return f.response, f.err
}

func (f *generatorFake) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type extractorFake struct {
	text string
	err  error
	docs []domain.Document
}

func (f *extractorFake) Extract(_ context.Context, doc domain.Document) (domain.ExtractedText, error) {
	f.docs = append(f.docs, doc)
	if f.err != nil {
		return domain.ExtractedText{}, f.err
	}
	return domain.ExtractedText{Text: f.text, Method: domain.MethodPDFText, Pages: 1}, nil
}

type enricherFake struct {
	mu     sync.Mutex
	result domain.Enrichment
	delay  time.Duration
	calls  int
}

func (f *enricherFake) ProposeIdentifier(context.Context, string, string) domain.Enrichment {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result
}

func (f *enricherFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type observerFake struct {
	mu          sync.Mutex
	methods     []domain.ExtractionMethod
	statuses    []domain.ExtractionStatus
	enrichments []string
}

func (f *observerFake) ObserveTextExtraction(method domain.ExtractionMethod, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, method)
}

func (f *observerFake) ObserveCertificateID(status domain.ExtractionStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
}

func (f *observerFake) ObserveEnrichment(outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrichments = append(f.enrichments, outcome)
}

type statusCall struct {
	status domain.CredentialStatus
	errMsg string
}

type credentialRepoFake struct {
	creds       map[string]domain.Credential
	order       []string
	created     []domain.Credential
	saved       map[string]domain.OCRResult
	statusCalls []statusCall
	createErr   error
	getErr      error
	listErr     error
	saveErr     error
	statusErr   error
}

func newCredentialRepoFake(creds ...domain.Credential) *credentialRepoFake {
	f := &credentialRepoFake{
		creds: make(map[string]domain.Credential),
		saved: make(map[string]domain.OCRResult),
	}
	for _, c := range creds {
		f.creds[c.ID] = c
		f.order = append(f.order, c.ID)
	}
	return f
}

func (f *credentialRepoFake) Create(_ context.Context, cred *domain.Credential) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *cred)
	f.creds[cred.ID] = *cred
	f.order = append(f.order, cred.ID)
	return nil
}

func (f *credentialRepoFake) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	cred, ok := f.creds[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrCredentialNotFound, "get credential", errors.New(id))
	}
	return &cred, nil
}

func (f *credentialRepoFake) ListByLearner(_ context.Context, email string) ([]domain.Credential, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Credential
	for _, id := range f.order {
		if c := f.creds[id]; c.LearnerEmail == email {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *credentialRepoFake) UpdateStatus(_ context.Context, _ string, status domain.CredentialStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return f.statusErr
}

func (f *credentialRepoFake) SaveResult(_ context.Context, id string, result domain.OCRResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[id] = result
	return nil
}

type storageFake struct {
	objects map[string]string
	saveErr error
}

func newStorageFake() *storageFake {
	return &storageFake{objects: make(map[string]string)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishCredentialUploaded(_ context.Context, credentialID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, credentialID)
	return nil
}

func (f *queueFake) SubscribeCredentialUploaded(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}
