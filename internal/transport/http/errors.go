package http

import (
	"errors"
	"net/http"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
)

// ToHTTP переводит доменную ошибку в HTTP-статус.
func ToHTTP(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrPassengerNotFound),
		errors.Is(err, domain.ErrPollNotFound),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPollActive),
		errors.Is(err, domain.ErrPollNotActive),
		errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, domain.ErrNotInRoom),
		errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
