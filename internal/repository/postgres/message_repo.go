package postgres

import (
	"context"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m *domain.ChatMessage) error {
	if m.ID == "" {
		m.ID = repository.NewMessageID()
	}
	err := r.db.QueryRow(ctx, queryCreateMessage,
		m.ID, m.RoomID, m.PassengerID, m.User, m.Avatar, m.Message,
	).Scan(&m.CreatedAt)

	return mapPgError(err)
}

func (r *MessageRepository) ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	rows, err := r.db.Query(ctx, queryListMessages, roomID, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.ChatMessage, 0, limit)
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.PassengerID, &m.User, &m.Avatar, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
