// Package pdftext reads the embedded text layer of PDF documents.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Reader implements ports.PageReader on top of ledongthuc/pdf.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// Pages returns one entry per page; unreadable pages come back empty.
func (r *Reader) Pages(ctx context.Context, content []byte) (pages []string, err error) {
	if len(content) == 0 {
		return nil, errors.New("empty pdf content")
	}
	// the parser panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			pages = nil
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := doc.NumPage()
	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages[i-1] = pageText(doc.Page(i))
	}
	return pages, nil
}

func pageText(page pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
