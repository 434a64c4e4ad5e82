// Package textextract renders certificates as plain text, falling back to OCR
// for PDFs without a usable text layer.
package textextract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/ports"
)

// MinEmbeddedTextChars is the trimmed text-layer length below which a PDF is
// treated as scanned.
const MinEmbeddedTextChars = 50

type Extractor struct {
	pages      ports.PageReader
	rasterizer ports.Rasterizer
	ocr        ports.OCREngine
	slots      *semaphore.Weighted
	limit      int
	logger     *slog.Logger
}

// New builds an extractor. concurrency bounds OCR and rasterization work
// across all callers sharing this instance.
func New(pages ports.PageReader, rasterizer ports.Rasterizer, ocr ports.OCREngine, concurrency int, logger *slog.Logger) *Extractor {
	if concurrency <= 0 {
		concurrency = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		pages:      pages,
		rasterizer: rasterizer,
		ocr:        ocr,
		slots:      semaphore.NewWeighted(int64(concurrency)),
		limit:      concurrency,
		logger:     logger,
	}
}

func (e *Extractor) Extract(ctx context.Context, doc domain.Document) (domain.ExtractedText, error) {
	switch doc.Kind {
	case domain.KindImage:
		return e.extractImage(ctx, doc)
	case domain.KindPDF:
		return e.extractPDF(ctx, doc)
	default:
		return domain.ExtractedText{}, domain.WrapError(domain.ErrUnsupportedDocument, "extract text", fmt.Errorf("kind %q", doc.Kind))
	}
}

func (e *Extractor) extractImage(ctx context.Context, doc domain.Document) (domain.ExtractedText, error) {
	text, err := e.recognize(ctx, doc.Data)
	if err != nil {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrOCRFailed, "image ocr", err)
	}
	return domain.ExtractedText{
		Text:   strings.TrimSpace(text),
		Method: domain.MethodImageOCR,
		Pages:  1,
	}, nil
}

func (e *Extractor) extractPDF(ctx context.Context, doc domain.Document) (domain.ExtractedText, error) {
	result := domain.ExtractedText{Method: domain.MethodPDFText}

	pages, err := e.pages.Pages(ctx, doc.Data)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ExtractedText{}, ctx.Err()
		}
		e.logger.Warn("pdf text layer unreadable", "filename", doc.Filename, "error", err)
		result.Warnings = append(result.Warnings, "text layer unreadable: "+err.Error())
	}
	result.Text = strings.TrimSpace(strings.Join(pages, "\n"))
	result.Pages = len(pages)
	embeddedChars := utf8.RuneCountInString(result.Text)
	if embeddedChars >= MinEmbeddedTextChars {
		return result, nil
	}

	e.logger.Info("pdf text layer too short, running ocr",
		"filename", doc.Filename,
		"embedded_chars", embeddedChars,
	)
	images, err := e.rasterize(ctx, doc.Data)
	if err != nil {
		if domain.IsKind(err, domain.ErrRasterizerUnavailable) || ctx.Err() != nil {
			return domain.ExtractedText{}, err
		}
		e.logger.Warn("pdf rasterization failed", "filename", doc.Filename, "error", err)
		result.Warnings = append(result.Warnings, "rasterize: "+err.Error())
		return result, nil
	}

	ocrText, warnings, err := e.recognizePages(ctx, images)
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ExtractedText{}, ctx.Err()
		}
		e.logger.Warn("pdf ocr failed, keeping text layer", "filename", doc.Filename, "error", err)
		result.Warnings = append(result.Warnings, "ocr: "+err.Error())
		return result, nil
	}
	if utf8.RuneCountInString(ocrText) > embeddedChars {
		result.Text = ocrText
		result.Method = domain.MethodPDFOCR
		result.Pages = len(images)
	}
	return result, nil
}

// recognizePages OCRs every page concurrently. Individual page failures are
// reported as warnings; it errors only when no page could be read.
func (e *Extractor) recognizePages(ctx context.Context, images [][]byte) (string, []string, error) {
	texts := make([]string, len(images))
	errs := make([]error, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, img := range images {
		g.Go(func() error {
			text, err := e.recognize(gctx, img)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				errs[i] = err
				return nil
			}
			texts[i] = strings.TrimSpace(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	var warnings []string
	var firstErr error
	for i, err := range errs {
		if err == nil {
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		warnings = append(warnings, fmt.Sprintf("page %d: %v", i+1, err))
	}
	if len(images) > 0 && len(warnings) == len(images) {
		return "", warnings, firstErr
	}
	return strings.TrimSpace(strings.Join(texts, "\n")), warnings, nil
}

func (e *Extractor) recognize(ctx context.Context, image []byte) (string, error) {
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer e.slots.Release(1)
	return e.ocr.Recognize(ctx, image)
}

func (e *Extractor) rasterize(ctx context.Context, pdf []byte) ([][]byte, error) {
	if err := e.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.slots.Release(1)
	return e.rasterizer.Rasterize(ctx, pdf)
}
