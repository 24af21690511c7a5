package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
)

const maxRoomNameLen = 64

type RoomService struct {
	rooms    repository.RoomRepository
	notifier Notifier
}

func NewRoomService(rooms repository.RoomRepository, notifier Notifier) *RoomService {
	return &RoomService{rooms: rooms, notifier: notifier}
}

// Open возвращает комнату по имени, создавая её при первом обращении.
// created=true, если комната создана этим вызовом.
func (s *RoomService) Open(ctx context.Context, name string) (room *domain.Room, created bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > maxRoomNameLen {
		return nil, false, fmt.Errorf("%w: room name must be 1..%d characters", domain.ErrInvalidInput, maxRoomNameLen)
	}

	room, err = s.rooms.GetByName(ctx, name)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("rooms.GetByName: %w", err)
	}

	room = &domain.Room{
		Name:                 name,
		CurrentDestinationID: domain.DefaultDestination,
		LocationState:        domain.LocationTransit,
		BusStyle:             domain.DefaultBusStyle,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		// гонка двух Open с одним именем: побеждает первый INSERT
		if errors.Is(err, repository.ErrAlreadyExists) {
			existing, gerr := s.rooms.GetByName(ctx, name)
			if gerr != nil {
				return nil, false, fmt.Errorf("rooms.GetByName: %w", gerr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("rooms.Create: %w", err)
	}
	return room, true, nil
}

func (s *RoomService) Get(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.rooms.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	return room, nil
}

func (s *RoomService) GetByName(ctx context.Context, name string) (*domain.Room, error) {
	room, err := s.rooms.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	return room, nil
}

// UpdateBusStyle меняет оформление автобуса и рассылает bus_style всей комнате.
func (s *RoomService) UpdateBusStyle(ctx context.Context, roomID, busStyle string) (*domain.Room, error) {
	busStyle = strings.TrimSpace(busStyle)
	if busStyle == "" {
		return nil, fmt.Errorf("%w: busStyle is required", domain.ErrInvalidInput)
	}
	if err := s.rooms.UpdateBusStyle(ctx, roomID, busStyle); err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	room, err := s.rooms.Get(ctx, roomID)
	if err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}
	if s.notifier != nil {
		s.notifier.BusStyle(roomID, room.BusStyle)
	}
	return room, nil
}
