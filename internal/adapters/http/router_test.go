package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/micromerit/ai-service/internal/config"
	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

type certIDFake struct {
	result    domain.ExtractionResult
	err       error
	gotIssuer string
	gotDoc    domain.Document
}

func (f *certIDFake) ExtractCertificateID(_ context.Context, doc domain.Document, issuer string) (domain.ExtractionResult, error) {
	f.gotDoc = doc
	f.gotIssuer = issuer
	return f.result, f.err
}

type ocrFake struct {
	err error
	got domain.OCRRequest
}

func (f *ocrFake) Process(_ context.Context, req domain.OCRRequest) (*domain.OCRResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.OCRResult{
		ExtractedText:   "Certificate of completion",
		SkillExtraction: domain.EmptySkillExtraction(),
		CertificateID:   domain.NotFoundResult(),
	}, nil
}

type recommenderFake struct {
	calls int
}

func (f *recommenderFake) Recommend(context.Context, domain.RecommendationRequest) (domain.Recommendations, error) {
	f.calls++
	return domain.EmptyRecommendations(), nil
}

type pathwaysFake struct {
	err error
}

func (f pathwaysFake) Analyze(context.Context, domain.StackabilityRequest) (domain.StackabilityReport, error) {
	if f.err != nil {
		return domain.StackabilityReport{}, f.err
	}
	return domain.StackabilityReport{Pathways: []domain.StackablePathway{}}, nil
}

type employerFake struct {
	calls int
}

func (f *employerFake) Answer(_ context.Context, req domain.EmployerChatRequest) (domain.EmployerChatAnswer, error) {
	f.calls++
	return domain.EmployerChatAnswer{Answer: "ok for " + req.LearnerEmail}, nil
}

type ingestFake struct {
	got  ports.CredentialUpload
	body string
}

func (f *ingestFake) Upload(_ context.Context, upload ports.CredentialUpload, body io.Reader) (*domain.Credential, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.got = upload
	f.body = string(raw)
	return &domain.Credential{
		ID:           "cred-1",
		LearnerEmail: domain.NormalizeEmail(upload.LearnerEmail),
		Filename:     upload.Filename,
		Status:       domain.CredentialPending,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

type credentialsFake struct {
	err error
}

func (f credentialsFake) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Credential{ID: id, Status: domain.CredentialReady}, nil
}

func (f credentialsFake) ListByLearner(context.Context, string) ([]domain.Credential, error) {
	return []domain.Credential{}, nil
}

type exporterFake struct {
	gotEmail string
}

func (f *exporterFake) ExportLearnerSkills(_ context.Context, email string) ([]byte, error) {
	f.gotEmail = email
	return []byte("PK-xlsx"), nil
}

type routerFixture struct {
	certID      *certIDFake
	ocr         *ocrFake
	recommender *recommenderFake
	employer    *employerFake
	ingest      *ingestFake
	exporter    *exporterFake
	services    Services
}

func newRouterFixture() *routerFixture {
	f := &routerFixture{
		certID:      &certIDFake{result: domain.NotFoundResult()},
		ocr:         &ocrFake{},
		recommender: &recommenderFake{},
		employer:    &employerFake{},
		ingest:      &ingestFake{},
		exporter:    &exporterFake{},
	}
	f.services = Services{
		CertificateID: f.certID,
		OCR:           f.ocr,
		Recommender:   f.recommender,
		Pathways:      pathwaysFake{},
		Employer:      f.employer,
		Ingestor:      f.ingest,
		Credentials:   credentialsFake{},
		Exporter:      f.exporter,
	}
	return f
}

func newTestHandler(t *testing.T, cfg config.Config, services Services) http.Handler {
	t.Helper()
	rt, err := NewRouter(cfg, services)
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return rt.Handler()
}

func multipartRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() error = %v", err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthzReportsProvider(t *testing.T) {
	handler := newTestHandler(t, config.Config{LLMProvider: config.ProviderGroq, ModelName: "llama-3.3-70b-versatile", MockMode: true}, newRouterFixture().services)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if body["status"] != "ok" || body["provider"] != "mock" || body["mock"] != true {
		t.Fatalf("unexpected healthz body %v", body)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}

func TestExtractCertificateIDSuccess(t *testing.T) {
	fx := newRouterFixture()
	number := "UC-7781-XZ"
	fx.certID.result = domain.ExtractionResult{
		CertificateNumber: &number,
		Confidence:        93.5,
		Status:            domain.StatusFound,
		Candidate:         &domain.Candidate{Value: number, Normalized: "UC7781XZ", Score: 93.5, Source: domain.SourcePattern},
	}
	handler := newTestHandler(t, config.Config{MaxUploadBytes: 1 << 20}, fx.services)

	req := multipartRequest(t, "/v1/certificates/extract-id", "cert.pdf", []byte("%PDF-1.4"), map[string]string{"issuer_name": " Udemy "})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if fx.certID.gotIssuer != "Udemy" || fx.certID.gotDoc.Kind != domain.KindPDF {
		t.Fatalf("unexpected extractor input issuer=%q kind=%q", fx.certID.gotIssuer, fx.certID.gotDoc.Kind)
	}
	var got domain.ExtractionResult
	if err := json.Unmarshal(res.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != domain.StatusFound || got.CertificateNumber == nil || *got.CertificateNumber != number {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestExtractCertificateIDRejectsBadUploads(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		maxBytes int64
		want     int
	}{
		{name: "missing file", want: http.StatusBadRequest},
		{name: "unsupported type", filename: "cert.docx", content: []byte("doc"), want: http.StatusUnsupportedMediaType},
		{name: "empty file", filename: "cert.png", want: http.StatusBadRequest},
		{name: "too large", filename: "cert.png", content: bytes.Repeat([]byte("x"), 4096), maxBytes: 256, want: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(t, config.Config{MaxUploadBytes: tc.maxBytes}, newRouterFixture().services)
			req := multipartRequest(t, "/v1/certificates/extract-id", tc.filename, tc.content, nil)
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, res.Code, res.Body.String())
			}
		})
	}
}

func TestOCRProcessIgnoresMalformedNSQFContext(t *testing.T) {
	fx := newRouterFixture()
	handler := newTestHandler(t, config.Config{}, fx.services)

	req := multipartRequest(t, "/v1/ocr/process", "cert.jpg", []byte("jpeg"), map[string]string{
		"learner_email":     "jane@example.com",
		"certificate_title": "Data Analytics",
		"nsqf_context":      "[{broken",
	})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if fx.ocr.got.NSQFContext != nil {
		t.Fatalf("expected malformed context to be dropped, got %v", fx.ocr.got.NSQFContext)
	}
	if fx.ocr.got.LearnerEmail != "jane@example.com" || fx.ocr.got.CertificateTitle != "Data Analytics" {
		t.Fatalf("unexpected request %+v", fx.ocr.got)
	}
}

func TestOCRProcessPassesNSQFContext(t *testing.T) {
	fx := newRouterFixture()
	handler := newTestHandler(t, config.Config{}, fx.services)

	req := multipartRequest(t, "/v1/ocr/process", "cert.pdf", []byte("%PDF"), map[string]string{
		"nsqf_context": `[{"job_role":"Data Entry Operator","nsqf_level":4}]`,
	})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if len(fx.ocr.got.NSQFContext) != 1 || fx.ocr.got.NSQFContext[0]["job_role"] != "Data Entry Operator" {
		t.Fatalf("unexpected nsqf context %v", fx.ocr.got.NSQFContext)
	}
}

func TestOCRProcessMapsInsufficientTextTo422(t *testing.T) {
	fx := newRouterFixture()
	fx.ocr.err = domain.WrapError(domain.ErrInsufficientText, "ocr process", errors.New("3 chars"))
	handler := newTestHandler(t, config.Config{}, fx.services)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartRequest(t, "/v1/ocr/process", "cert.png", []byte("png"), nil))
	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", res.Code)
	}
}

func TestJSONBodiesAreValidatedAgainstOpenAPI(t *testing.T) {
	fx := newRouterFixture()
	handler := newTestHandler(t, config.Config{}, fx.services)

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "certificates not an array", path: "/v1/recommendations", body: `{"certificates":"nope"}`},
		{name: "question missing", path: "/v1/employer-chat", body: `{"learner_email":"jane@example.com"}`},
		{name: "level not a number", path: "/v1/stackability", body: `{"level":"five"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, jsonRequest(tc.path, tc.body))
			if res.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", res.Code, res.Body.String())
			}
		})
	}
	if fx.recommender.calls != 0 || fx.employer.calls != 0 {
		t.Fatalf("handlers must not run for invalid bodies")
	}
}

func TestRecommendationsAndEmployerChat(t *testing.T) {
	fx := newRouterFixture()
	handler := newTestHandler(t, config.Config{}, fx.services)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, jsonRequest("/v1/recommendations", `{"learner_email":"jane@example.com","certificates":[{"certificate_title":"Go","metadata":{"skills":["go"]}}]}`))
	if res.Code != http.StatusOK || fx.recommender.calls != 1 {
		t.Fatalf("expected recommendations 200, got %d calls=%d", res.Code, fx.recommender.calls)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, jsonRequest("/v1/employer-chat", `{"learner_email":"jane@example.com","question":"Can she code?"}`))
	if res.Code != http.StatusOK {
		t.Fatalf("expected employer chat 200, got %d", res.Code)
	}
	var answer domain.EmployerChatAnswer
	if err := json.Unmarshal(res.Body.Bytes(), &answer); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if answer.Answer != "ok for jane@example.com" {
		t.Fatalf("unexpected answer %q", answer.Answer)
	}
}

func TestStackabilityMapsTemporaryErrorTo503(t *testing.T) {
	fx := newRouterFixture()
	fx.services.Pathways = pathwaysFake{err: domain.WrapError(domain.ErrTemporary, "llm", errors.New("breaker open"))}
	handler := newTestHandler(t, config.Config{}, fx.services)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, jsonRequest("/v1/stackability", `{"skills":["welding"]}`))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestUploadCredentialAccepted(t *testing.T) {
	fx := newRouterFixture()
	handler := newTestHandler(t, config.Config{}, fx.services)

	req := multipartRequest(t, "/v1/credentials", "cert.pdf", []byte("%PDF-1.7"), map[string]string{
		"learner_email":     "Jane@Example.com",
		"certificate_title": "Cloud Basics",
		"issuer_name":       "NPTEL",
	})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if fx.ingest.body != "%PDF-1.7" || fx.ingest.got.Filename != "cert.pdf" || fx.ingest.got.IssuerName != "NPTEL" {
		t.Fatalf("unexpected ingest input %+v body=%q", fx.ingest.got, fx.ingest.body)
	}
	var cred domain.Credential
	if err := json.Unmarshal(res.Body.Bytes(), &cred); err != nil {
		t.Fatalf("decode credential: %v", err)
	}
	if cred.ID != "cred-1" || cred.Status != domain.CredentialPending {
		t.Fatalf("unexpected credential %+v", cred)
	}
}

func TestGetCredentialReturns404ForNotFound(t *testing.T) {
	fx := newRouterFixture()
	fx.services.Credentials = credentialsFake{err: domain.WrapError(domain.ErrCredentialNotFound, "get", errors.New("id=missing"))}
	handler := newTestHandler(t, config.Config{}, fx.services)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/credentials/missing", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestExportSkillsServesWorkbook(t *testing.T) {
	fx := newRouterFixture()
	handler := newTestHandler(t, config.Config{}, fx.services)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/learners/jane@example.com/skills.xlsx", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("unexpected content type %q", res.Header().Get("Content-Type"))
	}
	if fx.exporter.gotEmail != "jane@example.com" || res.Body.String() != "PK-xlsx" {
		t.Fatalf("unexpected export email=%q body=%q", fx.exporter.gotEmail, res.Body.String())
	}
}

func TestAPIKeyGuardsV1Routes(t *testing.T) {
	handler := newTestHandler(t, config.Config{APIKey: "secret"}, newRouterFixture().services)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, jsonRequest("/v1/stackability", `{}`))
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.Code)
	}

	req := jsonRequest("/v1/stackability", `{}`)
	req.Header.Set("Authorization", "Bearer secret")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("healthz must stay public, got %d", res.Code)
	}
}

func TestOpenAPIDocumentIsServed(t *testing.T) {
	handler := newTestHandler(t, config.Config{}, newRouterFixture().services)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), "/v1/certificates/extract-id") {
		t.Fatalf("unexpected openapi response %d", res.Code)
	}
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		kind error
		want int
	}{
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{domain.ErrUnsupportedDocument, http.StatusUnsupportedMediaType},
		{domain.ErrRasterizerUnavailable, http.StatusServiceUnavailable},
		{domain.ErrInsufficientText, http.StatusUnprocessableEntity},
		{domain.ErrCredentialNotFound, http.StatusNotFound},
		{domain.ErrTemporary, http.StatusServiceUnavailable},
		{domain.ErrOCRFailed, http.StatusBadGateway},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		err := domain.WrapError(tc.kind, "op", errors.New("detail"))
		if got := mapErrorToHTTPStatus(err); got != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.kind, tc.want, got)
		}
	}
}
