package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/lockmap"
	"github.com/Msaabiam/Global-Bus/internal/metrics"
	"github.com/Msaabiam/Global-Bus/internal/service"
	"github.com/Msaabiam/Global-Bus/internal/tracing"
	"github.com/Msaabiam/Global-Bus/pkg/logger"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

type PassengerSvc interface {
	InRoom(ctx context.Context, roomID, passengerID string) (*domain.Passenger, error)
	ListByRoom(ctx context.Context, roomID string) ([]domain.Passenger, error)
	Remove(ctx context.Context, id string) error
}

type ChatSvc interface {
	Save(ctx context.Context, in service.ChatInput) (*domain.ChatMessage, error)
}

type PollSvc interface {
	Vote(ctx context.Context, roomID, passengerID, pollID, optionID string) (*service.VoteResult, error)
}

type Config struct {
	PingEvery time.Duration
	SendQueue int
	ReadLimit int64
}

func (c Config) withDefaults() Config {
	if c.PingEvery <= 0 {
		c.PingEvery = 15 * time.Second
	}
	if c.SendQueue <= 0 {
		c.SendQueue = 64
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 64 << 10
	}
	return c
}

// Server обслуживает сокеты сессии: один read-цикл и один write-цикл на соединение.
type Server struct {
	upgrader   websocket.Upgrader
	hub        *Hub
	passengers PassengerSvc
	chat       ChatSvc
	polls      PollSvc
	cfg        Config

	rosterLocks *lockmap.Map

	baseCtx context.Context
	stop    context.CancelFunc
}

func NewServer(hub *Hub, passengers PassengerSvc, chat ChatSvc, polls PollSvc, cfg Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		hub:        hub,
		passengers: passengers,
		chat:       chat,
		polls:      polls,
		cfg:        cfg.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		rosterLocks: lockmap.New(),
		baseCtx:     ctx,
		stop:        cancel,
	}
}

// Shutdown закрывает все открытые сокеты. Очистка каждого соединения идёт как при обычном выходе.
func (s *Server) Shutdown() {
	s.stop()
}

// WS endpoint: GET /ws
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		slog.Warn("ws upgrade failed", logger.Err(err))
		return
	}

	c := newWsConn(conn, s.cfg.SendQueue)
	metrics.Connections.Inc()
	defer metrics.Connections.Dec()
	slog.Debug("ws connected", logger.Conn(c.id), "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()
	go func() {
		<-ctx.Done()
		c.close()
	}()

	go c.writeLoop(s.cfg.PingEvery)
	s.readLoop(ctx, c)

	// сервер мог уже остановиться: чистим с отдельным таймаутом
	cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cleanupCancel()
	s.onClose(cleanupCtx, c)
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	c.conn.SetReadLimit(s.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws read failed", logger.Conn(c.id), logger.Err(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))
		s.dispatch(ctx, c, data)
	}
}

// dispatch никогда не рвёт соединение: ошибки только логируются.
func (s *Server) dispatch(ctx context.Context, c *wsConn, data []byte) {
	f, err := parseFrame(data)
	if err != nil {
		metrics.InboundFrames.WithLabelValues("invalid").Inc()
		slog.Warn("ws bad frame", logger.Conn(c.id), logger.Err(err))
		return
	}
	metrics.InboundFrames.WithLabelValues(f.frameType()).Inc()

	ctx, span := tracing.Start(ctx, "ws."+f.frameType(), attribute.String("ws.conn", c.id))
	defer span.End()

	switch f := f.(type) {
	case joinFrame:
		s.handleJoin(ctx, c, f)
	case chatFrame:
		s.handleChat(ctx, c, f)
	case voteFrame:
		s.handleVote(ctx, c, f)
	}
}

func (s *Server) handleJoin(ctx context.Context, c *wsConn, f joinFrame) {
	roomID := strings.TrimSpace(f.RoomID)
	passengerID := strings.TrimSpace(f.PassengerID)
	if roomID == "" {
		logger.WithCtx(ctx).Warn("ws join without roomId", logger.Conn(c.id))
		return
	}
	if cur, _, _ := c.association(); cur != "" {
		logger.WithCtx(ctx).Warn("ws repeated join ignored", logger.Conn(c.id), logger.Room(cur))
		return
	}

	var name string
	if passengerID != "" {
		p, err := s.passengers.InRoom(ctx, roomID, passengerID)
		if err != nil {
			logger.WithCtx(ctx).Warn("ws join rejected", logger.Conn(c.id), logger.Room(roomID), logger.Passenger(passengerID), logger.Err(err))
			return
		}
		name = p.Name
	}
	if !c.associate(roomID, passengerID, name) {
		return
	}

	s.hub.Register(roomID, c)
	logger.WithCtx(ctx).Info("ws joined", logger.Conn(c.id), logger.Room(roomID), logger.Passenger(passengerID))
	s.broadcastRoster(ctx, roomID)
}

func (s *Server) handleChat(ctx context.Context, c *wsConn, f chatFrame) {
	roomID, passengerID, name := c.association()
	if roomID == "" {
		logger.WithCtx(ctx).Warn("ws chat before join", logger.Conn(c.id))
		return
	}

	user := strings.TrimSpace(f.User)
	if user == "" {
		user = name
	}
	msg, err := s.chat.Save(ctx, service.ChatInput{
		RoomID:      roomID,
		PassengerID: passengerID,
		User:        user,
		Avatar:      f.Avatar,
		Text:        f.Message,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			logger.WithCtx(ctx).Debug("ws chat dropped", logger.Conn(c.id), logger.Room(roomID), logger.Err(err))
			return
		}
		logger.WithCtx(ctx).Error("ws chat save failed", logger.Conn(c.id), logger.Room(roomID), logger.Err(err))
		return
	}

	s.hub.Broadcast(roomID, ChatEvent{Type: TypeChat, Message: *msg})
}

func (s *Server) handleVote(ctx context.Context, c *wsConn, f voteFrame) {
	roomID, passengerID, _ := c.association()
	if roomID == "" || passengerID == "" {
		logger.WithCtx(ctx).Warn("ws vote without passenger", logger.Conn(c.id))
		return
	}

	// poll_update / poll_closed / travel рассылает сам PollService
	_, err := s.polls.Vote(ctx, roomID, passengerID, f.PollID, f.OptionID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrPollNotActive),
		errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, domain.ErrOptionNotFound):
		logger.WithCtx(ctx).Debug("ws vote discarded", logger.Conn(c.id), logger.Room(roomID), logger.Poll(f.PollID), logger.Err(err))
	default:
		logger.WithCtx(ctx).Error("ws vote failed", logger.Conn(c.id), logger.Room(roomID), logger.Poll(f.PollID), logger.Err(err))
	}
}

func (s *Server) onClose(ctx context.Context, c *wsConn) {
	c.close()

	roomID, passengerID, _ := c.association()
	if roomID == "" {
		return
	}
	s.hub.Unregister(roomID, c)
	slog.Info("ws left", logger.Conn(c.id), logger.Room(roomID), logger.Passenger(passengerID))
	if passengerID == "" {
		return
	}

	if err := s.passengers.Remove(ctx, passengerID); err != nil && !errors.Is(err, domain.ErrPassengerNotFound) {
		slog.Error("ws remove passenger failed", logger.Room(roomID), logger.Passenger(passengerID), logger.Err(err))
	}
	s.broadcastRoster(ctx, roomID)
}

// broadcastRoster рассылает пассажиров комнаты, у которых есть живое соединение.
// Сериализовано по комнате: последний полученный состав соответствует последнему состоянию реестра.
func (s *Server) broadcastRoster(ctx context.Context, roomID string) {
	unlock := s.rosterLocks.Lock(roomID)
	defer unlock()

	present := s.hub.PassengerIDs(roomID)
	stored, err := s.passengers.ListByRoom(ctx, roomID)
	if err != nil {
		slog.Error("ws roster load failed", logger.Room(roomID), logger.Err(err))
		return
	}

	roster := make([]domain.Passenger, 0, len(present))
	for _, p := range stored {
		if _, ok := present[p.ID]; ok {
			roster = append(roster, p)
		}
	}
	s.hub.Broadcast(roomID, newPassengersEvent(roster))
}
