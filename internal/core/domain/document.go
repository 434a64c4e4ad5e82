package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

type DocumentKind string

const (
	KindPDF   DocumentKind = "pdf"
	KindImage DocumentKind = "image"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".tif":  {},
	".tiff": {},
	".bmp":  {},
}

// KindFromFilename maps a file extension onto a document kind.
func KindFromFilename(filename string) (DocumentKind, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if ext == ".pdf" {
		return KindPDF, nil
	}
	if _, ok := imageExtensions[ext]; ok {
		return KindImage, nil
	}
	return "", WrapError(ErrUnsupportedDocument, "detect document kind", fmt.Errorf("file %q", filename))
}

// Document is an uploaded certificate held in memory for one request.
type Document struct {
	Filename string
	Kind     DocumentKind
	Data     []byte
}

func NewDocument(filename string, data []byte) (Document, error) {
	kind, err := KindFromFilename(filename)
	if err != nil {
		return Document{}, err
	}
	if len(data) == 0 {
		return Document{}, WrapError(ErrInvalidInput, "new document", fmt.Errorf("file %q is empty", filename))
	}
	return Document{Filename: filename, Kind: kind, Data: data}, nil
}

// ContentHash is the hex SHA-256 of the raw bytes.
func (d Document) ContentHash() string {
	sum := sha256.Sum256(d.Data)
	return hex.EncodeToString(sum[:])
}

type ExtractionMethod string

const (
	MethodPDFText  ExtractionMethod = "pdf-text"
	MethodPDFOCR   ExtractionMethod = "pdf-ocr"
	MethodImageOCR ExtractionMethod = "image-ocr"
)

// ExtractedText is the best-effort plain text rendering of a Document.
type ExtractedText struct {
	Text     string           `json:"text"`
	Method   ExtractionMethod `json:"method"`
	Pages    int              `json:"pages"`
	Warnings []string         `json:"warnings,omitempty"`
}
