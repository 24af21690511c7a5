package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/service"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	roomSvc      *service.RoomService
	passengerSvc *service.PassengerService
	chatSvc      *service.ChatService
	pollSvc      *service.PollService
}

func NewHandler(room *service.RoomService, passenger *service.PassengerService, chat *service.ChatService, poll *service.PollService) *Handler {
	return &Handler{
		roomSvc:      room,
		passengerSvc: passenger,
		chatSvc:      chat,
		pollSvc:      poll,
	}
}

func invalidJSON(err error) error {
	return fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidInput, err)
}

// POST /api/rooms: комната по имени; создаётся при первом обращении
func (h *Handler) OpenRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "handler.OpenRoom.Decode", invalidJSON(err))
		return
	}
	room, created, err := h.roomSvc.Open(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, "handler.OpenRoom", err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, room)
}

// GET /api/rooms/{room}: по имени
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.GetByName(r.Context(), chi.URLParam(r, "room"))
	if err != nil {
		writeError(w, r, "handler.GetRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// PATCH /api/rooms/{room}/bus-style
func (h *Handler) UpdateBusStyle(w http.ResponseWriter, r *http.Request) {
	var req UpdateBusStyleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "handler.UpdateBusStyle.Decode", invalidJSON(err))
		return
	}
	room, err := h.roomSvc.UpdateBusStyle(r.Context(), chi.URLParam(r, "room"), req.BusStyle)
	if err != nil {
		writeError(w, r, "handler.UpdateBusStyle", err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// GET /api/rooms/{room}/passengers
func (h *Handler) ListPassengers(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room")
	if _, err := h.roomSvc.Get(r.Context(), roomID); err != nil {
		writeError(w, r, "handler.ListPassengers.Room", err)
		return
	}
	list, err := h.passengerSvc.ListByRoom(r.Context(), roomID)
	if err != nil {
		writeError(w, r, "handler.ListPassengers", err)
		return
	}
	if list == nil {
		list = []domain.Passenger{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/rooms/{room}/messages?limit=
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room")
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, r, "handler.ListMessages.Limit",
				fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidInput))
			return
		}
		limit = n
	}
	if _, err := h.roomSvc.Get(r.Context(), roomID); err != nil {
		writeError(w, r, "handler.ListMessages.Room", err)
		return
	}
	msgs, err := h.chatSvc.History(r.Context(), roomID, limit)
	if err != nil {
		writeError(w, r, "handler.ListMessages", err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// GET /api/rooms/{room}/active-poll: опрос или null
func (h *Handler) ActivePoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.pollSvc.ActivePoll(r.Context(), chi.URLParam(r, "room"))
	if err != nil {
		writeError(w, r, "handler.ActivePoll", err)
		return
	}
	writeJSON(w, http.StatusOK, poll)
}

// POST /api/passengers
func (h *Handler) CreatePassenger(w http.ResponseWriter, r *http.Request) {
	var req CreatePassengerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "handler.CreatePassenger.Decode", invalidJSON(err))
		return
	}
	p, err := h.passengerSvc.Create(r.Context(), service.NewPassenger{
		RoomID: req.RoomID,
		Name:   req.Name,
		Avatar: req.Avatar,
		Role:   req.Role,
		IsVIP:  req.IsVIP,
	})
	if err != nil {
		writeError(w, r, "handler.CreatePassenger", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GET /api/passengers/{id}
func (h *Handler) GetPassenger(w http.ResponseWriter, r *http.Request) {
	p, err := h.passengerSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "handler.GetPassenger", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PATCH /api/passengers/{id}/xp: уровень считает сервер
func (h *Handler) UpdateXP(w http.ResponseWriter, r *http.Request) {
	var req UpdateXPRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "handler.UpdateXP.Decode", invalidJSON(err))
		return
	}
	if req.XP == nil {
		writeError(w, r, "handler.UpdateXP", fmt.Errorf("%w: xp is required", domain.ErrInvalidInput))
		return
	}
	p, err := h.passengerSvc.UpdateXP(r.Context(), chi.URLParam(r, "id"), *req.XP)
	if err != nil {
		writeError(w, r, "handler.UpdateXP", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// POST /api/polls: 409, если в комнате уже идёт опрос
func (h *Handler) StartPoll(w http.ResponseWriter, r *http.Request) {
	var req CreatePollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, "handler.StartPoll.Decode", invalidJSON(err))
		return
	}
	in := service.NewPoll{RoomID: req.RoomID, Question: req.Question}
	for _, o := range req.Options {
		in.Options = append(in.Options, service.NewPollOption{DestinationID: o.DestinationID, Text: o.Text})
	}
	poll, err := h.pollSvc.StartPoll(r.Context(), in)
	if err != nil {
		writeError(w, r, "handler.StartPoll", err)
		return
	}
	writeJSON(w, http.StatusCreated, poll)
}
