package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnsupportedDocument   = errors.New("unsupported document type")
	ErrRasterizerUnavailable = errors.New("pdf rasterizer unavailable")
	ErrOCRFailed             = errors.New("ocr failed")
	ErrInsufficientText      = errors.New("insufficient extracted text")
	ErrCredentialNotFound    = errors.New("credential not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrTemporary             = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
