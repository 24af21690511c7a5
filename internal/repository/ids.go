package repository

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewID: идентификатор для комнат, пассажиров, опросов и голосов.
func NewID() string { return uuid.NewString() }

// NewMessageID возвращает ULID. Он сортируется по времени создания, что держит порядок истории
// стабильным даже при одинаковом created_at.
func NewMessageID() string { return ulid.Make().String() }
