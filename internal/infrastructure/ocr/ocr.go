// Package ocr drives the tesseract and pdftoppm command line tools.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/micromerit/ai-service/internal/core/domain"
)

type Config struct {
	Tesseract     string // binary name or absolute path; default "tesseract"
	Pdftoppm      string // default "pdftoppm"
	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI, default 300
	MaxPages      int    // 0 = no limit
}

// Engine implements ports.OCREngine and ports.Rasterizer.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return NewWithRunner(cfg, execRunner{logger: logger}, logger)
}

func NewWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Engine{cfg: cfg, runner: runner, logger: logger}
}

// Recognize runs `tesseract stdin stdout -l <lang>` over one image.
func (e *Engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}
	out, errb, err := e.runner.Run(ctx, image, e.cfg.Tesseract, "stdin", "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		return "", domain.WrapError(domain.ErrOCRFailed, "tesseract", commandError(err, errb))
	}
	return strings.TrimSpace(string(out)), nil
}

// Rasterize renders every page to PNG with `pdftoppm -r <dpi> -png`.
func (e *Engine) Rasterize(ctx context.Context, pdf []byte) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "certid-pp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("remove temp dir failed", "path", tmpDir, "error", rmErr)
		}
	}()

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, in, prefix)

	_, errb, err := e.runner.Run(ctx, nil, e.cfg.Pdftoppm, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrRasterizerUnavailable, "pdftoppm", err)
		}
		return nil, fmt.Errorf("pdftoppm: %w", commandError(err, errb))
	}

	// prefix-1.png, prefix-2.png, ... zero padded to equal width
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("glob pages: %w", err)
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, errors.New("pdftoppm produced no images")
	}

	pages := make([][]byte, 0, len(matches))
	for _, path := range matches {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read page image: %w", err)
		}
		pages = append(pages, b)
	}
	return pages, nil
}

func commandError(err error, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, truncate(msg, 512))
}
