package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/micromerit/ai-service/internal/config"
	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

const (
	multipartMemory  = 8 << 20
	maxJSONBodyBytes = 1 << 20
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Services are the inbound ports the router dispatches to.
type Services struct {
	CertificateID ports.CertificateIDExtractor
	OCR           ports.OCRProcessor
	Recommender   ports.Recommender
	Pathways      ports.PathwayAnalyzer
	Employer      ports.EmployerAssistant
	Ingestor      ports.CredentialIngestor
	Credentials   ports.CredentialReader
	Exporter      ports.SkillsExporter
}

// Metrics is the slice of the HTTP metrics the router needs.
type Metrics interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
	RecordLLMFeature(feature string, err error)
}

type Option func(*Router)

func WithLogger(logger *slog.Logger) Option {
	return func(rt *Router) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(rt *Router) {
		rt.metrics = m
	}
}

type Router struct {
	cfg       config.Config
	svc       Services
	logger    *slog.Logger
	metrics   Metrics
	validator *requestValidator
}

func NewRouter(cfg config.Config, svc Services, opts ...Option) (*Router, error) {
	validator, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	rt := &Router{
		cfg:       cfg,
		svc:       svc,
		logger:    slog.Default(),
		validator: validator,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt, nil
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/certificates/extract-id", rt.extractCertificateID)
	api.HandleFunc("POST /v1/ocr/process", rt.processCertificate)
	api.HandleFunc("POST /v1/recommendations", rt.recommend)
	api.HandleFunc("POST /v1/stackability", rt.analyzeStackability)
	api.HandleFunc("POST /v1/employer-chat", rt.employerChat)
	api.HandleFunc("POST /v1/credentials", rt.uploadCredential)
	api.HandleFunc("GET /v1/credentials/{credential_id}", rt.getCredential)
	api.HandleFunc("GET /v1/learners/{email}/skills.xlsx", rt.exportSkills)

	var v1 http.Handler = rt.validator.middleware(api)
	v1 = backpressureMiddleware(v1, rt.cfg.MaxInFlight, rt.cfg.BackpressureWait)
	v1 = apiKeyMiddleware(v1, rt.cfg.APIKey)
	v1 = rateLimitMiddleware(v1, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("GET /openapi.yaml", rt.openAPI)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	mux.Handle("/v1/", v1)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"model":    rt.cfg.Model(),
		"provider": rt.cfg.ProviderName(),
		"mock":     rt.cfg.MockMode,
	})
}

func (rt *Router) openAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDocument)
}

func (rt *Router) extractCertificateID(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.readDocument(w, r)
	if err != nil {
		rt.writeError(w, r, "extract certificate id", err)
		return
	}
	issuer := formValue(r, "issuer_name")
	if issuer == "" {
		issuer = formValue(r, "issuer")
	}

	result, err := rt.svc.CertificateID.ExtractCertificateID(r.Context(), doc, issuer)
	if err != nil {
		rt.writeError(w, r, "extract certificate id", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) processCertificate(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.readDocument(w, r)
	if err != nil {
		rt.writeError(w, r, "ocr process", err)
		return
	}

	var nsqfContext []map[string]any
	if raw := formValue(r, "nsqf_context"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &nsqfContext); err != nil {
			rt.logger.Warn("nsqf_context_ignored",
				"request_id", requestIDFromContext(r.Context()),
				"error", err,
			)
			nsqfContext = nil
		}
	}

	result, err := rt.svc.OCR.Process(r.Context(), domain.OCRRequest{
		Document:         doc,
		LearnerEmail:     formValue(r, "learner_email"),
		CertificateTitle: formValue(r, "certificate_title"),
		IssuerName:       formValue(r, "issuer_name"),
		NSQFContext:      nsqfContext,
	})
	rt.recordLLMFeature("ocr_process", err)
	if err != nil {
		rt.writeError(w, r, "ocr process", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) recommend(w http.ResponseWriter, r *http.Request) {
	var req domain.RecommendationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, "recommendations", err)
		return
	}
	result, err := rt.svc.Recommender.Recommend(r.Context(), req)
	rt.recordLLMFeature("recommendations", err)
	if err != nil {
		rt.writeError(w, r, "recommendations", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) analyzeStackability(w http.ResponseWriter, r *http.Request) {
	var req domain.StackabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, "stackability", err)
		return
	}
	report, err := rt.svc.Pathways.Analyze(r.Context(), req)
	rt.recordLLMFeature("stackability", err)
	if err != nil {
		rt.writeError(w, r, "stackability", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) employerChat(w http.ResponseWriter, r *http.Request) {
	var req domain.EmployerChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rt.writeError(w, r, "employer chat", err)
		return
	}
	answer, err := rt.svc.Employer.Answer(r.Context(), req)
	rt.recordLLMFeature("employer_chat", err)
	if err != nil {
		rt.writeError(w, r, "employer chat", err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) uploadCredential(w http.ResponseWriter, r *http.Request) {
	file, header, err := rt.openUpload(w, r)
	if err != nil {
		rt.writeError(w, r, "upload credential", err)
		return
	}
	defer file.Close()

	cred, err := rt.svc.Ingestor.Upload(r.Context(), ports.CredentialUpload{
		Filename:         header.Filename,
		LearnerEmail:     formValue(r, "learner_email"),
		CertificateTitle: formValue(r, "certificate_title"),
		IssuerName:       formValue(r, "issuer_name"),
	}, file)
	if err != nil {
		rt.writeError(w, r, "upload credential", err)
		return
	}
	writeJSON(w, http.StatusAccepted, cred)
}

func (rt *Router) getCredential(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("credential_id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "credential id is required"})
		return
	}
	cred, err := rt.svc.Credentials.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, "get credential", err)
		return
	}
	writeJSON(w, http.StatusOK, cred)
}

func (rt *Router) exportSkills(w http.ResponseWriter, r *http.Request) {
	body, err := rt.svc.Exporter.ExportLearnerSkills(r.Context(), r.PathValue("email"))
	if err != nil {
		rt.writeError(w, r, "export skills", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="skills.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// openUpload returns the multipart "file" field. The caller closes it.
func (rt *Router) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if rt.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, err
		}
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "parse multipart form", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "read upload", errors.New("multipart field 'file' is required"))
	}
	return file, header, nil
}

func (rt *Router) readDocument(w http.ResponseWriter, r *http.Request) (domain.Document, error) {
	file, header, err := rt.openUpload(w, r)
	if err != nil {
		return domain.Document{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return domain.Document{}, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	return domain.NewDocument(header.Filename, data)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		rt.logger.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", operation,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (rt *Router) recordLLMFeature(feature string, err error) {
	if rt.metrics != nil {
		rt.metrics.RecordLLMFeature(feature, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("invalid json"))
	}
	return nil
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
