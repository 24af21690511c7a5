package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/metrics"
	"github.com/Msaabiam/Global-Bus/pkg/logger"
)

type roomSet struct {
	mu     sync.Mutex
	conns  map[Conn]struct{}
	pruned bool // набор удалён из карты, регистрировать в него нельзя
}

// Hub: реестр соединений по комнатам и рассылка.
// h.mu охраняет только карту, у каждой комнаты свой замок. I/O под замками нет.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*roomSet
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*roomSet)}
}

func (h *Hub) Register(roomID string, c Conn) {
	for {
		rs := h.roomSet(roomID)
		rs.mu.Lock()
		if rs.pruned {
			rs.mu.Unlock()
			h.replacePruned(roomID, rs)
			continue
		}
		rs.conns[c] = struct{}{}
		rs.mu.Unlock()
		return
	}
}

func (h *Hub) Unregister(roomID string, c Conn) {
	h.mu.RLock()
	rs := h.rooms[roomID]
	h.mu.RUnlock()
	if rs == nil {
		return
	}

	rs.mu.Lock()
	delete(rs.conns, c)
	empty := len(rs.conns) == 0
	if empty {
		rs.pruned = true
	}
	rs.mu.Unlock()

	if empty {
		h.mu.Lock()
		if h.rooms[roomID] == rs {
			delete(h.rooms, roomID)
			metrics.ActiveRooms.Dec()
		}
		h.mu.Unlock()
	}
}

// Members: снимок соединений комнаты.
func (h *Hub) Members(roomID string) []Conn {
	h.mu.RLock()
	rs := h.rooms[roomID]
	h.mu.RUnlock()
	if rs == nil {
		return nil
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]Conn, 0, len(rs.conns))
	for c := range rs.conns {
		out = append(out, c)
	}
	return out
}

// PassengerIDs: различные passengerId зарегистрированных соединений.
func (h *Hub) PassengerIDs(roomID string) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, c := range h.Members(roomID) {
		if id := c.PassengerID(); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids
}

func (h *Hub) PassengerCount(roomID string) int {
	return len(h.PassengerIDs(roomID))
}

// Broadcast сериализует событие один раз и кладёт его в очередь каждому участнику.
// Сбой доставки одному получателю логируется и не мешает остальным.
func (h *Hub) Broadcast(roomID string, ev Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		slog.Error("ws marshal event failed", logger.Room(roomID), "type", ev.EventType(), logger.Err(err))
		return
	}
	metrics.BroadcastEvents.WithLabelValues(ev.EventType()).Inc()

	for _, c := range h.Members(roomID) {
		if err := c.Send(b); err != nil {
			reason := "error"
			switch {
			case errors.Is(err, ErrConnClosed):
				reason = "closed"
			case errors.Is(err, ErrSendQueueFull):
				reason = "queue_full"
			}
			metrics.DeliveryFailures.WithLabelValues(reason).Inc()
			slog.Warn("ws deliver failed",
				logger.Room(roomID), "type", ev.EventType(), logger.Passenger(c.PassengerID()), logger.Err(err))
		}
	}
}

func (h *Hub) roomSet(roomID string) *roomSet {
	h.mu.RLock()
	rs := h.rooms[roomID]
	h.mu.RUnlock()
	if rs != nil {
		return rs
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if rs = h.rooms[roomID]; rs == nil {
		rs = &roomSet{conns: make(map[Conn]struct{})}
		h.rooms[roomID] = rs
		metrics.ActiveRooms.Inc()
	}
	return rs
}

// replacePruned ставит новый набор вместо удаляемого, если Unregister ещё не успел его убрать.
func (h *Hub) replacePruned(roomID string, old *roomSet) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == old {
		h.rooms[roomID] = &roomSet{conns: make(map[Conn]struct{})}
	}
}

// --- service.Notifier / service.Presence ---

func (h *Hub) PollUpdated(roomID, pollID string, options []domain.PollOption) {
	h.Broadcast(roomID, newPollUpdateEvent(pollID, options))
}

func (h *Hub) PollClosed(roomID, pollID string) {
	h.Broadcast(roomID, PollClosedEvent{Type: TypePollClosed, PollID: pollID})
}

func (h *Hub) Travel(roomID, destinationID string) {
	h.Broadcast(roomID, TravelEvent{Type: TypeTravel, DestinationID: destinationID})
}

func (h *Hub) NewPoll(roomID string, poll domain.PollWithOptions) {
	if poll.Options == nil {
		poll.Options = []domain.PollOption{}
	}
	h.Broadcast(roomID, NewPollEvent{Type: TypeNewPoll, Poll: poll})
}

func (h *Hub) BusStyle(roomID, busStyle string) {
	h.Broadcast(roomID, BusStyleEvent{Type: TypeBusStyle, BusStyle: busStyle})
}
