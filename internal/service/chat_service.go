package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
)

const (
	DefaultMaxMessageLen = 4000
	DefaultHistoryLimit  = 50
	MaxHistoryLimit      = 100
	guestName            = "guest"
)

type ChatService struct {
	messages      repository.MessageRepository
	maxMessageLen int
	historyLimit  int
}

func NewChatService(messages repository.MessageRepository, maxMessageLen, historyLimit int) *ChatService {
	if maxMessageLen <= 0 {
		maxMessageLen = DefaultMaxMessageLen
	}
	if historyLimit <= 0 || historyLimit > MaxHistoryLimit {
		historyLimit = DefaultHistoryLimit
	}
	return &ChatService{messages: messages, maxMessageLen: maxMessageLen, historyLimit: historyLimit}
}

type ChatInput struct {
	RoomID      string
	PassengerID string // пусто, если соединение без пассажира
	User        string
	Avatar      string
	Text        string
}

// Save проверяет и сохраняет сообщение. Пустой или слишком длинный текст: ErrInvalidInput.
func (s *ChatService) Save(ctx context.Context, in ChatInput) (*domain.ChatMessage, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > s.maxMessageLen {
		return nil, fmt.Errorf("%w: message too long", domain.ErrInvalidInput)
	}
	user := strings.TrimSpace(in.User)
	if user == "" {
		user = guestName
	}

	m := &domain.ChatMessage{
		RoomID:  in.RoomID,
		User:    user,
		Avatar:  in.Avatar,
		Message: text,
	}
	if in.PassengerID != "" {
		id := in.PassengerID
		m.PassengerID = &id
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, notFound(fmt.Errorf("messages.Create: %w", err), domain.ErrRoomNotFound)
	}
	return m, nil
}

// History: последние сообщения комнаты, старые первыми.
// limit <= 0: лимит по умолчанию, больше MaxHistoryLimit: обрезается.
func (s *ChatService) History(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	list, err := s.messages.ListByRoom(ctx, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("messages.ListByRoom: %w", err)
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	if list == nil {
		list = []domain.ChatMessage{}
	}
	return list, nil
}
