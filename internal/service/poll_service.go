package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/lockmap"
	"github.com/Msaabiam/Global-Bus/internal/metrics"
	"github.com/Msaabiam/Global-Bus/internal/repository"
	"github.com/Msaabiam/Global-Bus/pkg/logger"
)

// PollService: голосование за следующую остановку.
// Все изменения опросов комнаты идут под её замком, поэтому опрос закрывается ровно один раз.
type PollService struct {
	rooms    repository.RoomRepository
	polls    repository.PollRepository
	notifier Notifier
	presence Presence
	winner   WinnerPolicy
	locks    *lockmap.Map

	mu     sync.Mutex
	active map[string]*domain.Poll // roomID -> активный опрос
}

type PollServiceOption func(*PollService)

func WithWinnerPolicy(p WinnerPolicy) PollServiceOption {
	return func(s *PollService) {
		if p != nil {
			s.winner = p
		}
	}
}

func NewPollService(
	rooms repository.RoomRepository,
	polls repository.PollRepository,
	notifier Notifier,
	presence Presence,
	opts ...PollServiceOption,
) *PollService {
	s := &PollService{
		rooms:    rooms,
		polls:    polls,
		notifier: notifier,
		presence: presence,
		winner:   FirstMax,
		locks:    lockmap.New(),
		active:   make(map[string]*domain.Poll),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type NewPollOption struct {
	DestinationID string
	Text          string
}

type NewPoll struct {
	RoomID   string
	Question string
	Options  []NewPollOption
}

// VoteResult: итог принятого голоса.
type VoteResult struct {
	Options  []domain.PollOption
	Resolved bool
	Winner   *domain.PollOption // только при Resolved
}

// StartPoll открывает опрос в комнате. Если активный уже есть: ErrPollActive.
func (s *PollService) StartPoll(ctx context.Context, in NewPoll) (*domain.PollWithOptions, error) {
	in.Question = strings.TrimSpace(in.Question)
	if in.RoomID == "" || in.Question == "" || len(in.Options) == 0 {
		return nil, fmt.Errorf("%w: roomId, question and at least one option are required", domain.ErrInvalidInput)
	}
	options := make([]domain.PollOption, 0, len(in.Options))
	for i, o := range in.Options {
		dest := strings.TrimSpace(o.DestinationID)
		if dest == "" {
			return nil, fmt.Errorf("%w: option %d has no destinationId", domain.ErrInvalidInput, i)
		}
		text := strings.TrimSpace(o.Text)
		if text == "" {
			text = dest
		}
		options = append(options, domain.PollOption{Position: i, DestinationID: dest, Text: text})
	}

	if _, err := s.rooms.Get(ctx, in.RoomID); err != nil {
		return nil, notFound(err, domain.ErrRoomNotFound)
	}

	unlock := s.locks.Lock(in.RoomID)
	defer unlock()

	current, err := s.activePoll(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return nil, domain.ErrPollActive
	}

	poll := &domain.Poll{RoomID: in.RoomID, Question: in.Question}
	if err := s.polls.CreatePoll(ctx, poll, options); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, domain.ErrPollActive
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: %v", domain.ErrRoomNotFound, err)
		}
		return nil, fmt.Errorf("polls.CreatePoll: %w", err)
	}
	s.setActive(in.RoomID, poll)

	out := domain.PollWithOptions{Poll: *poll, Options: options}
	if s.notifier != nil {
		s.notifier.NewPoll(in.RoomID, out)
	}
	slog.Info("poll started", logger.Room(in.RoomID), logger.Poll(poll.ID), "options", len(options))
	return &out, nil
}

// ActivePoll: активный опрос комнаты с вариантами или nil.
func (s *PollService) ActivePoll(ctx context.Context, roomID string) (*domain.PollWithOptions, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	poll, err := s.activePoll(ctx, roomID)
	if err != nil || poll == nil {
		return nil, err
	}
	options, err := s.polls.ListOptions(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("polls.ListOptions: %w", err)
	}
	return &domain.PollWithOptions{Poll: *poll, Options: options}, nil
}

// Vote принимает голос пассажира.
//
// Устаревший опрос: ErrPollNotActive, повторный голос: ErrAlreadyVoted,
// чужой вариант: ErrOptionNotFound. Когда голосов набирается не меньше,
// чем пассажиров в комнате, опрос закрывается и автобус едет к победителю.
func (s *PollService) Vote(ctx context.Context, roomID, passengerID, pollID, optionID string) (*VoteResult, error) {
	unlock := s.locks.Lock(roomID)
	defer unlock()

	poll, err := s.activePoll(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if poll == nil || poll.ID != pollID {
		metrics.Votes.WithLabelValues("stale").Inc()
		return nil, domain.ErrPollNotActive
	}

	voted, err := s.polls.HasVoted(ctx, pollID, passengerID)
	if err != nil {
		return nil, fmt.Errorf("polls.HasVoted: %w", err)
	}
	if voted {
		metrics.Votes.WithLabelValues("duplicate").Inc()
		return nil, domain.ErrAlreadyVoted
	}

	err = s.polls.RecordVote(ctx, &domain.PollVote{PollID: pollID, PassengerID: passengerID, OptionID: optionID})
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		metrics.Votes.WithLabelValues("duplicate").Inc()
		return nil, domain.ErrAlreadyVoted
	case errors.Is(err, repository.ErrNotFound):
		metrics.Votes.WithLabelValues("invalid_option").Inc()
		return nil, domain.ErrOptionNotFound
	case err != nil:
		return nil, fmt.Errorf("polls.RecordVote: %w", err)
	}
	metrics.Votes.WithLabelValues("accepted").Inc()

	options, err := s.polls.ListOptions(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("polls.ListOptions: %w", err)
	}
	if s.notifier != nil {
		s.notifier.PollUpdated(roomID, pollID, options)
	}

	res := &VoteResult{Options: options}
	total := domain.TotalVotes(options)
	present := 0
	if s.presence != nil {
		present = s.presence.PassengerCount(roomID)
	}
	if total < present {
		return res, nil
	}

	idx := s.winner(options)
	if idx < 0 {
		return res, nil
	}
	winner := options[idx]

	closed, err := s.polls.ClosePoll(ctx, pollID)
	if err != nil {
		return res, fmt.Errorf("polls.ClosePoll: %w", err)
	}
	s.clearActive(roomID, pollID)
	if !closed {
		return res, nil
	}
	metrics.PollsResolved.Inc()

	// Опрос уже закрыт в хранилище: poll_closed уходит в любом случае,
	// travel: только если пункт назначения записан.
	derr := s.rooms.UpdateDestination(ctx, roomID, winner.DestinationID, domain.LocationTransit)
	if s.notifier != nil {
		s.notifier.PollClosed(roomID, pollID)
	}
	if derr != nil {
		return res, fmt.Errorf("rooms.UpdateDestination: %w", derr)
	}
	if s.notifier != nil {
		s.notifier.Travel(roomID, winner.DestinationID)
	}

	res.Resolved = true
	res.Winner = &winner
	slog.Info("poll resolved",
		logger.Room(roomID), logger.Poll(pollID),
		"destination", winner.DestinationID, "votes", total, "present", present)
	return res, nil
}

// activePoll: вызывать под замком комнаты.
func (s *PollService) activePoll(ctx context.Context, roomID string) (*domain.Poll, error) {
	s.mu.Lock()
	p := s.active[roomID]
	s.mu.Unlock()
	if p != nil {
		return p, nil
	}

	p, err := s.polls.GetActive(ctx, roomID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("polls.GetActive: %w", err)
	}
	s.setActive(roomID, p)
	return p, nil
}

func (s *PollService) setActive(roomID string, p *domain.Poll) {
	s.mu.Lock()
	s.active[roomID] = p
	s.mu.Unlock()
}

func (s *PollService) clearActive(roomID, pollID string) {
	s.mu.Lock()
	if p := s.active[roomID]; p != nil && p.ID == pollID {
		delete(s.active, roomID)
	}
	s.mu.Unlock()
}
