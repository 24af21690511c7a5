package domain

import "time"

type ChatMessage struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"roomId"`
	PassengerID *string   `json:"passengerId"` // nil, если отправитель уже отключился
	User        string    `json:"user"`
	Avatar      string    `json:"avatar"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}
