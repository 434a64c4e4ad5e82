package httpadapter

import (
	"errors"
	"net/http"

	"github.com/micromerit/ai-service/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrCredentialNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrInsufficientText):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrRasterizerUnavailable), domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrOCRFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
