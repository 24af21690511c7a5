package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Msaabiam/Global-Bus/internal/domain"
)

// Типы входящих кадров
const (
	TypeJoin = "join"
	TypeChat = "chat"
	TypeVote = "vote"
)

// Типы исходящих событий
const (
	TypePassengers = "passengers"  // текущий состав комнаты
	TypePollUpdate = "poll_update" // счёт опроса после голоса
	TypeNewPoll    = "new_poll"
	TypePollClosed = "poll_closed"
	TypeTravel     = "travel"
	TypeBusStyle   = "bus_style"
)

var ErrUnknownFrame = errors.New("ws: unknown frame type")

// --- inbound ---

// frame: один из joinFrame, chatFrame, voteFrame.
type frame interface {
	frameType() string
}

type joinFrame struct {
	RoomID      string `json:"roomId"`
	PassengerID string `json:"passengerId"`
}

type chatFrame struct {
	User    string `json:"user"`
	Avatar  string `json:"avatar"`
	Message string `json:"message"`
}

type voteFrame struct {
	PollID   string `json:"pollId"`
	OptionID string `json:"optionId"`
}

func (joinFrame) frameType() string { return TypeJoin }
func (chatFrame) frameType() string { return TypeChat }
func (voteFrame) frameType() string { return TypeVote }

// parseFrame разбирает плоский JSON вида {"type": "...", ...поля}.
func parseFrame(data []byte) (frame, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch env.Type {
	case TypeJoin:
		var f joinFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode join: %w", err)
		}
		return f, nil
	case TypeChat:
		var f chatFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode chat: %w", err)
		}
		return f, nil
	case TypeVote:
		var f voteFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode vote: %w", err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFrame, env.Type)
}

// --- outbound ---

// Event: то, что уходит в Hub.Broadcast.
type Event interface {
	EventType() string
}

type PassengersEvent struct {
	Type       string             `json:"type"`
	Passengers []domain.Passenger `json:"passengers"`
}

type ChatEvent struct {
	Type    string             `json:"type"`
	Message domain.ChatMessage `json:"message"`
}

type PollUpdateEvent struct {
	Type    string              `json:"type"`
	PollID  string              `json:"pollId"`
	Options []domain.PollOption `json:"options"`
}

type NewPollEvent struct {
	Type string                 `json:"type"`
	Poll domain.PollWithOptions `json:"poll"`
}

type PollClosedEvent struct {
	Type   string `json:"type"`
	PollID string `json:"pollId"`
}

type TravelEvent struct {
	Type          string `json:"type"`
	DestinationID string `json:"destinationId"`
}

type BusStyleEvent struct {
	Type     string `json:"type"`
	BusStyle string `json:"busStyle"`
}

func (e PassengersEvent) EventType() string { return e.Type }
func (e ChatEvent) EventType() string       { return e.Type }
func (e PollUpdateEvent) EventType() string { return e.Type }
func (e NewPollEvent) EventType() string    { return e.Type }
func (e PollClosedEvent) EventType() string { return e.Type }
func (e TravelEvent) EventType() string     { return e.Type }
func (e BusStyleEvent) EventType() string   { return e.Type }

func newPassengersEvent(list []domain.Passenger) PassengersEvent {
	if list == nil {
		list = []domain.Passenger{}
	}
	return PassengersEvent{Type: TypePassengers, Passengers: list}
}

func newPollUpdateEvent(pollID string, options []domain.PollOption) PollUpdateEvent {
	if options == nil {
		options = []domain.PollOption{}
	}
	return PollUpdateEvent{Type: TypePollUpdate, PollID: pollID, Options: options}
}
