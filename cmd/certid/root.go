package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/micromerit/ai-service/internal/bootstrap"
	"github.com/micromerit/ai-service/internal/config"
	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/observability/logging"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "certid",
	Short: "Extract certificate identifiers from PDFs and images",
	Long: `certid runs the certificate identifier pipeline locally: PDF text layer or
Tesseract OCR, candidate generation and scoring, and optional LLM enrichment.

Configuration comes from the same environment variables as the API
(LLM_PROVIDER, GROQ_API_KEY, TESSERACT_PATH, OCR_DPI, ...). Logs go to stderr.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Int("timeout", 120, "Processing timeout in seconds")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL")
}

type session struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *bootstrap.Pipeline
}

func newSession(cmd *cobra.Command, enrich bool) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	cfg.EnrichEnabled = cfg.EnrichEnabled && enrich
	if cfg.EnrichEnabled {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%w (use --no-llm to skip enrichment)", err)
		}
	}

	logger := logging.NewJSONLoggerTo(os.Stderr, "certid", cfg.LogLevel)
	return &session{
		cfg:      cfg,
		logger:   logger,
		pipeline: bootstrap.NewPipeline(cfg, bootstrap.Options{Logger: logger}),
	}, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	seconds, _ := cmd.Flags().GetInt("timeout")
	if seconds <= 0 {
		seconds = 120
	}
	return context.WithTimeout(cmd.Context(), time.Duration(seconds)*time.Second)
}

func readDocument(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.NewDocument(filepath.Base(path), data)
}
