package httpadapter

import (
	"net/http"

	"github.com/mkorchagin/dishchat/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrEmptyConversation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
