package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
)

type messageRepo struct {
	db *sql.DB
}

func (r messageRepo) Create(ctx context.Context, m *domain.ChatMessage) error {
	if m.ID == "" {
		m.ID = repository.NewMessageID()
	}
	m.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, room_id, passenger_id, user, avatar, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.RoomID, m.PassengerID, m.User, m.Avatar, m.Message, toMillis(m.CreatedAt))
	return mapSQLiteError(err)
}

func (r messageRepo) ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, room_id, passenger_id, user, avatar, message, created_at
		 FROM messages WHERE room_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, roomID, limit)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		var (
			m           domain.ChatMessage
			passengerID sql.NullString
			createdAt   int64
		)
		if err := rows.Scan(&m.ID, &m.RoomID, &passengerID, &m.User, &m.Avatar, &m.Message, &createdAt); err != nil {
			return nil, err
		}
		if passengerID.Valid {
			id := passengerID.String
			m.PassengerID = &id
		}
		m.CreatedAt = fromMillis(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}
