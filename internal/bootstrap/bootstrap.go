package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/micromerit/ai-service/internal/config"
	"github.com/micromerit/ai-service/internal/core/ports"
	"github.com/micromerit/ai-service/internal/core/usecase"
	"github.com/micromerit/ai-service/internal/infrastructure/export/xlsx"
	"github.com/micromerit/ai-service/internal/infrastructure/llm/mock"
	"github.com/micromerit/ai-service/internal/infrastructure/llm/ollama"
	"github.com/micromerit/ai-service/internal/infrastructure/llm/openaicompat"
	"github.com/micromerit/ai-service/internal/infrastructure/ocr"
	"github.com/micromerit/ai-service/internal/infrastructure/pdftext"
	"github.com/micromerit/ai-service/internal/infrastructure/queue/nats"
	"github.com/micromerit/ai-service/internal/infrastructure/repository/postgres"
	"github.com/micromerit/ai-service/internal/infrastructure/resilience"
	"github.com/micromerit/ai-service/internal/infrastructure/storage/localfs"
	"github.com/micromerit/ai-service/internal/infrastructure/textextract"
)

type Options struct {
	Logger *slog.Logger
	// Observer receives extraction outcomes; nil discards them.
	Observer        ports.ExtractionObserver
	BreakerListener resilience.StateListener
}

// Pipeline is the part of the service that needs no database or queue:
// text extraction, the LLM and certificate identifier extraction.
type Pipeline struct {
	LLM           ports.TextGenerator
	Extractor     ports.TextExtractor
	CertificateID *usecase.CertificateIDUseCase
	Executor      *resilience.Executor
}

func NewPipeline(cfg config.Config, opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	executorOpts := []resilience.Option{resilience.WithLogger(logger)}
	if opts.BreakerListener != nil {
		executorOpts = append(executorOpts, resilience.WithStateListener(opts.BreakerListener))
	}
	executor := resilience.NewExecutor(resilienceConfig(cfg), executorOpts...)

	llm := newGenerator(cfg, executor, logger)

	engine := ocr.New(ocr.Config{
		Tesseract:     cfg.TesseractPath,
		Pdftoppm:      cfg.PdftoppmPath,
		TesseractLang: cfg.TesseractLang,
		DPI:           cfg.OCRDPI,
		MaxPages:      cfg.OCRMaxPages,
	}, logger)
	extractor := textextract.New(pdftext.NewReader(), engine, engine, cfg.OCRConcurrency, logger)

	certOpts := usecase.CertificateIDOptions{
		EnrichTimeout: cfg.EnrichTimeout,
		Observer:      opts.Observer,
		Logger:        logger,
	}
	if cfg.EnrichEnabled {
		certOpts.Enricher = usecase.NewLLMIdentifierEnricher(llm)
	}

	return &Pipeline{
		LLM:           llm,
		Extractor:     extractor,
		CertificateID: usecase.NewCertificateIDUseCase(extractor, certOpts),
		Executor:      executor,
	}
}

func resilienceConfig(cfg config.Config) resilience.Config {
	return resilience.DefaultConfig().Tuned(cfg.LLMRetryAttempts, !cfg.LLMBreakerDisabled, cfg.LLMBreakerOpenTimeout)
}

func newGenerator(cfg config.Config, executor *resilience.Executor, logger *slog.Logger) ports.TextGenerator {
	switch {
	case cfg.MockMode:
		return mock.New()
	case cfg.LLMProvider == config.ProviderOllama:
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
			Timeout:  cfg.LLMTimeout,
			Executor: executor,
			Logger:   logger,
		})
	default:
		return openaicompat.New(openaicompat.Config{
			BaseURL:     cfg.GroqBaseURL,
			APIKey:      cfg.GroqAPIKey,
			Model:       cfg.ModelName,
			Temperature: cfg.LLMTemperature,
			MaxTokens:   cfg.LLMMaxTokens,
			Timeout:     cfg.LLMTimeout,
		}, executor, logger)
	}
}

type App struct {
	Config   config.Config
	Pipeline *Pipeline

	Queue ports.MessageQueue
	Repo  ports.CredentialRepository

	OCRUC          *usecase.OCRProcessUseCase
	RecommendUC    *usecase.RecommendationUseCase
	StackabilityUC *usecase.StackabilityUseCase
	EmployerUC     *usecase.EmployerChatUseCase
	IngestUC       *usecase.IngestCredentialUseCase
	ProcessUC      *usecase.ProcessCredentialUseCase
	ExportUC       *usecase.ExportSkillsUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
		opts.Logger = logger
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewCredentialRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	pipeline := NewPipeline(cfg, opts)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		HandlerTimeout:     cfg.WorkerHandlerTimeout,
		ResilienceExecutor: pipeline.Executor,
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ocrUC := usecase.NewOCRProcessUseCase(pipeline.Extractor, pipeline.LLM, pipeline.CertificateID, repo, logger)

	return &App{
		Config:   cfg,
		Pipeline: pipeline,
		Queue:    queue,
		Repo:     repo,

		OCRUC:          ocrUC,
		RecommendUC:    usecase.NewRecommendationUseCase(pipeline.LLM, cfg.ProviderName(), logger),
		StackabilityUC: usecase.NewStackabilityUseCase(pipeline.LLM, logger),
		EmployerUC:     usecase.NewEmployerChatUseCase(repo, pipeline.LLM, logger),
		IngestUC:       usecase.NewIngestCredentialUseCase(repo, storage, queue),
		ProcessUC:      usecase.NewProcessCredentialUseCase(repo, storage, pipeline.Extractor, ocrUC),
		ExportUC:       usecase.NewExportSkillsUseCase(repo, xlsx.NewRenderer()),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
