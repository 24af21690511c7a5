package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
)

type PassengerService struct {
	rooms      repository.RoomRepository
	passengers repository.PassengerRepository
}

func NewPassengerService(rooms repository.RoomRepository, passengers repository.PassengerRepository) *PassengerService {
	return &PassengerService{rooms: rooms, passengers: passengers}
}

type NewPassenger struct {
	RoomID string
	Name   string
	Avatar string
	Role   string
	IsVIP  bool
}

// Create регистрирует пассажира в существующей комнате. Уровень всегда 1, xp 0.
func (s *PassengerService) Create(ctx context.Context, in NewPassenger) (*domain.Passenger, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.RoomID == "" || in.Name == "" {
		return nil, fmt.Errorf("%w: roomId and name are required", domain.ErrInvalidInput)
	}
	if _, err := s.rooms.Get(ctx, in.RoomID); err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}

	p := &domain.Passenger{
		RoomID: in.RoomID,
		Name:   in.Name,
		Avatar: strings.TrimSpace(in.Avatar),
		Role:   strings.TrimSpace(in.Role),
		XP:     0,
		Level:  domain.LevelForXP(0),
		IsVIP:  in.IsVIP,
	}
	if p.Role == "" {
		p.Role = "passenger"
	}
	if err := s.passengers.Create(ctx, p); err != nil {
		return nil, notFound(fmt.Errorf("passengers.Create: %w", err), domain.ErrRoomNotFound)
	}
	return p, nil
}

func (s *PassengerService) Get(ctx context.Context, id string) (*domain.Passenger, error) {
	p, err := s.passengers.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, domain.ErrPassengerNotFound)
	}
	return p, nil
}

// InRoom возвращает пассажира, только если он принадлежит комнате.
func (s *PassengerService) InRoom(ctx context.Context, roomID, passengerID string) (*domain.Passenger, error) {
	p, err := s.Get(ctx, passengerID)
	if err != nil {
		return nil, err
	}
	if p.RoomID != roomID {
		return nil, domain.ErrNotInRoom
	}
	return p, nil
}

func (s *PassengerService) ListByRoom(ctx context.Context, roomID string) ([]domain.Passenger, error) {
	list, err := s.passengers.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("passengers.ListByRoom: %w", err)
	}
	return list, nil
}

// UpdateXP выставляет опыт; уровень пересчитывается здесь, клиенту он не доверяется.
func (s *PassengerService) UpdateXP(ctx context.Context, id string, xp int) (*domain.Passenger, error) {
	if xp < 0 {
		return nil, fmt.Errorf("%w: xp must be >= 0", domain.ErrInvalidInput)
	}
	if err := s.passengers.UpdateXP(ctx, id, xp, domain.LevelForXP(xp)); err != nil {
		return nil, notFound(err, domain.ErrPassengerNotFound)
	}
	return s.Get(ctx, id)
}

// Remove удаляет пассажира при закрытии его соединения.
func (s *PassengerService) Remove(ctx context.Context, id string) error {
	if err := s.passengers.Delete(ctx, id); err != nil {
		return notFound(err, domain.ErrPassengerNotFound)
	}
	return nil
}
