package httpadapter

import (
	"net/http"

	"github.com/casebinder/casebinder/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrMatterNotFound),
		domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrConflict),
		domain.IsKind(err, domain.ErrNotReady):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrBinderUnavailable),
		domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
