package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository/sqlite"
	"github.com/Msaabiam/Global-Bus/internal/service"
	"github.com/Msaabiam/Global-Bus/internal/transport/ws"

	"github.com/gorilla/websocket"
)

type env struct {
	srv        *httptest.Server
	wsURL      string
	rooms      *service.RoomService
	passengers *service.PassengerService
	polls      *service.PollService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "bus.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	hub := ws.NewHub()
	e := &env{
		rooms:      service.NewRoomService(store.Rooms(), hub),
		passengers: service.NewPassengerService(store.Rooms(), store.Passengers()),
		polls:      service.NewPollService(store.Rooms(), store.Polls(), hub, hub),
	}
	chat := service.NewChatService(store.Messages(), 0, 0)
	wsSrv := ws.NewServer(hub, e.passengers, chat, e.polls, ws.Config{PingEvery: 10 * time.Second})

	e.srv = httptest.NewServer(http.HandlerFunc(wsSrv.HandleWS))
	t.Cleanup(func() {
		wsSrv.Shutdown()
		e.srv.Close()
	})
	e.wsURL = "ws" + strings.TrimPrefix(e.srv.URL, "http")
	return e
}

func (e *env) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(e.wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	if err := c.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

type inbound struct {
	Type          string                  `json:"type"`
	Passengers    []domain.Passenger      `json:"passengers"`
	Message       domain.ChatMessage      `json:"message"`
	PollID        string                  `json:"pollId"`
	Options       []domain.PollOption     `json:"options"`
	Poll          *domain.PollWithOptions `json:"poll"`
	DestinationID string                  `json:"destinationId"`
	BusStyle      string                  `json:"busStyle"`
}

func next(t *testing.T, c *websocket.Conn, wantType string) inbound {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
	var ev inbound
	if err := c.ReadJSON(&ev); err != nil {
		t.Fatalf("read %s: %v", wantType, err)
	}
	if ev.Type != wantType {
		t.Fatalf("got %q event, want %q", ev.Type, wantType)
	}
	return ev
}

func names(list []domain.Passenger) string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Name)
	}
	return strings.Join(out, ",")
}

func TestCityTour(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	room, created, err := e.rooms.Open(ctx, "city-tour")
	if err != nil || !created {
		t.Fatalf("open room: %v", err)
	}
	pa, err := e.passengers.Create(ctx, service.NewPassenger{RoomID: room.ID, Name: "A", Avatar: "🐱"})
	if err != nil {
		t.Fatalf("create A: %v", err)
	}
	pb, err := e.passengers.Create(ctx, service.NewPassenger{RoomID: room.ID, Name: "B", Avatar: "🐶"})
	if err != nil {
		t.Fatalf("create B: %v", err)
	}

	a := e.dial(t)
	send(t, a, map[string]string{"type": "join", "roomId": room.ID, "passengerId": pa.ID})
	if got := names(next(t, a, ws.TypePassengers).Passengers); got != "A" {
		t.Fatalf("A roster = %q", got)
	}

	b := e.dial(t)
	send(t, b, map[string]string{"type": "join", "roomId": room.ID, "passengerId": pb.ID})
	for _, c := range []*websocket.Conn{a, b} {
		if got := names(next(t, c, ws.TypePassengers).Passengers); got != "A,B" {
			t.Fatalf("roster = %q, want A,B", got)
		}
	}

	send(t, a, map[string]string{"type": "chat", "user": "A", "avatar": "🐱", "message": "hello"})
	for _, c := range []*websocket.Conn{a, b} {
		m := next(t, c, ws.TypeChat).Message
		if m.User != "A" || m.Message != "hello" || m.PassengerID == nil || *m.PassengerID != pa.ID {
			t.Fatalf("chat = %+v", m)
		}
	}

	poll, err := e.polls.StartPoll(ctx, service.NewPoll{
		RoomID:   room.ID,
		Question: "Where to?",
		Options: []service.NewPollOption{
			{DestinationID: "shinjuku", Text: "Shinjuku"},
			{DestinationID: "ginza", Text: "Ginza"},
		},
	})
	if err != nil {
		t.Fatalf("start poll: %v", err)
	}
	for _, c := range []*websocket.Conn{a, b} {
		ev := next(t, c, ws.TypeNewPoll)
		if ev.Poll == nil || ev.Poll.ID != poll.ID || len(ev.Poll.Options) != 2 {
			t.Fatalf("new_poll = %+v", ev.Poll)
		}
	}

	send(t, a, map[string]string{"type": "vote", "pollId": poll.ID, "optionId": poll.Options[0].ID})
	for _, c := range []*websocket.Conn{a, b} {
		ev := next(t, c, ws.TypePollUpdate)
		if ev.PollID != poll.ID || domain.TotalVotes(ev.Options) != 1 {
			t.Fatalf("first poll_update = %+v", ev)
		}
	}

	send(t, b, map[string]string{"type": "vote", "pollId": poll.ID, "optionId": poll.Options[1].ID})
	for _, c := range []*websocket.Conn{a, b} {
		if ev := next(t, c, ws.TypePollUpdate); domain.TotalVotes(ev.Options) != 2 {
			t.Fatalf("second poll_update = %+v", ev)
		}
		if ev := next(t, c, ws.TypePollClosed); ev.PollID != poll.ID {
			t.Fatalf("poll_closed = %+v", ev)
		}
		if ev := next(t, c, ws.TypeTravel); ev.DestinationID != "shinjuku" {
			t.Fatalf("travel = %+v, want shinjuku on a tie", ev)
		}
	}

	got, err := e.rooms.Get(ctx, room.ID)
	if err != nil || got.CurrentDestinationID != "shinjuku" {
		t.Fatalf("room after travel: %+v %v", got, err)
	}

	// B уходит: A видит обновлённый состав, пассажир B удалён
	_ = b.Close()
	if got := names(next(t, a, ws.TypePassengers).Passengers); got != "A" {
		t.Fatalf("roster after leave = %q", got)
	}
	if _, err := e.passengers.Get(ctx, pb.ID); !errors.Is(err, domain.ErrPassengerNotFound) {
		t.Fatalf("B still stored: %v", err)
	}
}

func TestMalformedFramesKeepConnection(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	room, _, err := e.rooms.Open(ctx, "robust")
	if err != nil {
		t.Fatalf("open room: %v", err)
	}
	p, err := e.passengers.Create(ctx, service.NewPassenger{RoomID: room.ID, Name: "Solo"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c := e.dial(t)
	_ = c.WriteMessage(websocket.TextMessage, []byte("not json"))
	send(t, c, map[string]string{"type": "teleport"})
	send(t, c, map[string]string{"type": "chat", "message": "before join"})
	send(t, c, map[string]string{"type": "join", "roomId": room.ID, "passengerId": p.ID})
	next(t, c, ws.TypePassengers)

	// пустой текст отбрасывается, следующий доходит; user берётся из пассажира
	send(t, c, map[string]string{"type": "chat", "message": "   "})
	send(t, c, map[string]string{"type": "chat", "message": "still here"})
	m := next(t, c, ws.TypeChat).Message
	if m.Message != "still here" || m.User != "Solo" {
		t.Fatalf("chat = %+v", m)
	}

	// устаревший голос молча отбрасывается
	send(t, c, map[string]string{"type": "vote", "pollId": "nope", "optionId": "nope"})
	send(t, c, map[string]string{"type": "chat", "message": "after vote"})
	if m := next(t, c, ws.TypeChat).Message; m.Message != "after vote" {
		t.Fatalf("chat = %+v", m)
	}
}

func TestJoinRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	room, _, _ := e.rooms.Open(ctx, "main")
	other, _, _ := e.rooms.Open(ctx, "other")
	stranger, err := e.passengers.Create(ctx, service.NewPassenger{RoomID: other.ID, Name: "Stranger"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	local, err := e.passengers.Create(ctx, service.NewPassenger{RoomID: room.ID, Name: "Local"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	c := e.dial(t)
	// пассажир из другой комнаты: join игнорируется, соединение свободно
	send(t, c, map[string]string{"type": "join", "roomId": room.ID, "passengerId": stranger.ID})
	send(t, c, map[string]string{"type": "join", "roomId": room.ID, "passengerId": local.ID})
	if got := names(next(t, c, ws.TypePassengers).Passengers); got != "Local" {
		t.Fatalf("roster = %q", got)
	}

	// повторный join на связанном соединении игнорируется
	send(t, c, map[string]string{"type": "join", "roomId": other.ID})
	send(t, c, map[string]string{"type": "chat", "message": "ping"})
	if m := next(t, c, ws.TypeChat).Message; m.RoomID != room.ID {
		t.Fatalf("chat went to %s", m.RoomID)
	}
}

func TestBusStyleReachesRoom(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	room, _, _ := e.rooms.Open(ctx, "styled")

	c := e.dial(t)
	send(t, c, map[string]string{"type": "join", "roomId": room.ID})
	next(t, c, ws.TypePassengers)

	if _, err := e.rooms.UpdateBusStyle(ctx, room.ID, "retro"); err != nil {
		t.Fatalf("update style: %v", err)
	}
	if ev := next(t, c, ws.TypeBusStyle); ev.BusStyle != "retro" {
		t.Fatalf("bus_style = %+v", ev)
	}
}

// проверка, что JSON событий совпадает с форматом клиента
func TestEventJSONShape(t *testing.T) {
	b, _ := json.Marshal(ws.TravelEvent{Type: ws.TypeTravel, DestinationID: "ginza"})
	if string(b) != `{"type":"travel","destinationId":"ginza"}` {
		t.Fatalf("travel json = %s", b)
	}
}
