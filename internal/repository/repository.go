// Package repository описывает CRUD-поверхность долговременного хранилища,
// которой пользуется ядро сессий. Реализации: postgres и sqlite.
package repository

import (
	"context"

	"github.com/Msaabiam/Global-Bus/internal/domain"
)

type RoomRepository interface {
	// Создаёт комнату; заполняет ID и CreatedAt. Дубликат имени: ErrAlreadyExists
	Create(ctx context.Context, r *domain.Room) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	GetByName(ctx context.Context, name string) (*domain.Room, error)
	UpdateDestination(ctx context.Context, roomID, destinationID string, state domain.LocationState) error
	UpdateBusStyle(ctx context.Context, roomID, busStyle string) error
}

type PassengerRepository interface {
	Create(ctx context.Context, p *domain.Passenger) error
	Get(ctx context.Context, id string) (*domain.Passenger, error)
	// Пассажиры комнаты в порядке joined_at
	ListByRoom(ctx context.Context, roomID string) ([]domain.Passenger, error)
	UpdateXP(ctx context.Context, id string, xp, level int) error
	Delete(ctx context.Context, id string) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.ChatMessage) error
	// Последние limit сообщений, новые первыми
	ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error)
}

type PollRepository interface {
	// Создаёт опрос и его варианты одной транзакцией.
	// Если в комнате уже есть активный опрос: ErrAlreadyExists.
	CreatePoll(ctx context.Context, p *domain.Poll, options []domain.PollOption) error
	ListByRoom(ctx context.Context, roomID string) ([]domain.Poll, error)
	GetActive(ctx context.Context, roomID string) (*domain.Poll, error)
	// CAS: is_active true -> false. closed=false, если опрос уже был закрыт
	ClosePoll(ctx context.Context, pollID string) (closed bool, err error)

	CreatePollOption(ctx context.Context, o *domain.PollOption) error
	// Варианты в порядке position
	ListOptions(ctx context.Context, pollID string) ([]domain.PollOption, error)
	IncrementOptionVotes(ctx context.Context, pollID, optionID string) error

	CreatePollVote(ctx context.Context, v *domain.PollVote) error
	HasVoted(ctx context.Context, pollID, passengerID string) (bool, error)
	// Запись голоса и инкремент варианта атомарно.
	// Повторный голос: ErrAlreadyExists, вариант не из этого опроса: ErrNotFound.
	RecordVote(ctx context.Context, v *domain.PollVote) error
}

// Store: всё хранилище целиком; удобно передавать одной зависимостью.
type Store interface {
	Rooms() RoomRepository
	Passengers() PassengerRepository
	Messages() MessageRepository
	Polls() PollRepository
	Close() error
}
