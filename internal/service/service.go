// Package service: прикладная логика поверх хранилища: комнаты, пассажиры, чат
// и движок опросов. Рассылки уходят через Notifier, присутствие берётся из Presence.
package service

import (
	"errors"
	"fmt"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
)

// Notifier: исходящие события комнаты. Реализует ws.Hub.
type Notifier interface {
	PollUpdated(roomID, pollID string, options []domain.PollOption)
	PollClosed(roomID, pollID string)
	Travel(roomID, destinationID string)
	NewPoll(roomID string, poll domain.PollWithOptions)
	BusStyle(roomID, busStyle string)
}

// Presence: кто сейчас подключён к комнате.
type Presence interface {
	PassengerCount(roomID string) int
}

// notFound переводит repository.ErrNotFound в доменную ошибку сущности.
func notFound(err error, domainErr error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %v", domainErr, err)
	}
	return err
}
