// Package repotest: общий набор проверок для реализаций repository.Store.
// Каждая реализация гоняет один и тот же контракт через Run.
package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
)

// Run прогоняет контракт хранилища. newStore должен отдавать пустое хранилище.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Helper()

	t.Run("rooms", func(t *testing.T) { testRooms(t, newStore(t)) })
	t.Run("passengers", func(t *testing.T) { testPassengers(t, newStore(t)) })
	t.Run("messages", func(t *testing.T) { testMessages(t, newStore(t)) })
	t.Run("polls", func(t *testing.T) { testPolls(t, newStore(t)) })
	t.Run("one active poll per room", func(t *testing.T) { testSingleActivePoll(t, newStore(t)) })
	t.Run("check then insert race", func(t *testing.T) { testVoteRace(t, newStore(t)) })
	t.Run("option from another poll", func(t *testing.T) { testForeignOption(t, newStore(t)) })
}

// MustRoom создаёт комнату с настройками по умолчанию.
func MustRoom(t *testing.T, s repository.Store, name string) *domain.Room {
	t.Helper()
	r := &domain.Room{
		Name:                 name,
		CurrentDestinationID: domain.DefaultDestination,
		LocationState:        domain.LocationTransit,
		BusStyle:             domain.DefaultBusStyle,
	}
	if err := s.Rooms().Create(context.Background(), r); err != nil {
		t.Fatalf("create room %q: %v", name, err)
	}
	return r
}

// MustPassenger создаёт пассажира в комнате.
func MustPassenger(t *testing.T, s repository.Store, roomID, name string) *domain.Passenger {
	t.Helper()
	p := &domain.Passenger{
		RoomID: roomID,
		Name:   name,
		Avatar: "🙂",
		Role:   "passenger",
		Level:  1,
	}
	if err := s.Passengers().Create(context.Background(), p); err != nil {
		t.Fatalf("create passenger %q: %v", name, err)
	}
	return p
}

// MustPoll создаёт активный опрос с вариантами по списку направлений.
func MustPoll(t *testing.T, s repository.Store, roomID string, destinations ...string) (*domain.Poll, []domain.PollOption) {
	t.Helper()
	p := &domain.Poll{RoomID: roomID, Question: "Where next?"}
	opts := make([]domain.PollOption, len(destinations))
	for i, d := range destinations {
		opts[i] = domain.PollOption{Position: i, DestinationID: d, Text: d}
	}
	if err := s.Polls().CreatePoll(context.Background(), p, opts); err != nil {
		t.Fatalf("create poll: %v", err)
	}
	return p, opts
}

func testRooms(t *testing.T, s repository.Store) {
	ctx := context.Background()

	r := MustRoom(t, s, "tokyo-night")
	if r.ID == "" || r.CreatedAt.IsZero() {
		t.Fatalf("room not filled: %+v", r)
	}

	dup := &domain.Room{Name: "tokyo-night", CurrentDestinationID: "x", LocationState: domain.LocationTransit, BusStyle: "party"}
	if err := s.Rooms().Create(ctx, dup); !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("duplicate name: got %v, want ErrAlreadyExists", err)
	}

	got, err := s.Rooms().GetByName(ctx, "tokyo-night")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got.ID != r.ID || got.CurrentDestinationID != domain.DefaultDestination || got.LocationState != domain.LocationTransit {
		t.Fatalf("unexpected room: %+v", got)
	}

	if err := s.Rooms().UpdateDestination(ctx, r.ID, "akihabara", domain.LocationTransit); err != nil {
		t.Fatalf("update destination: %v", err)
	}
	if err := s.Rooms().UpdateBusStyle(ctx, r.ID, "retro"); err != nil {
		t.Fatalf("update bus style: %v", err)
	}
	got, err = s.Rooms().Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentDestinationID != "akihabara" || got.BusStyle != "retro" {
		t.Fatalf("updates not applied: %+v", got)
	}

	if _, err := s.Rooms().Get(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("missing room: got %v, want ErrNotFound", err)
	}
	if err := s.Rooms().UpdateBusStyle(ctx, "missing", "retro"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("update missing room: got %v, want ErrNotFound", err)
	}
}

func testPassengers(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r := MustRoom(t, s, "osaka")
	other := MustRoom(t, s, "kyoto")

	a := MustPassenger(t, s, r.ID, "Aiko")
	b := MustPassenger(t, s, r.ID, "Ben")
	MustPassenger(t, s, other.ID, "Chie")

	list, err := s.Passengers().ListByRoom(ctx, r.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("list order: %+v", list)
	}

	if err := s.Passengers().UpdateXP(ctx, a.ID, 2500, domain.LevelForXP(2500)); err != nil {
		t.Fatalf("update xp: %v", err)
	}
	got, err := s.Passengers().Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.XP != 2500 || got.Level != 3 {
		t.Fatalf("xp/level: %+v", got)
	}

	if err := s.Passengers().Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Passengers().Get(ctx, b.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("deleted passenger: got %v, want ErrNotFound", err)
	}
	if err := s.Passengers().Delete(ctx, b.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("double delete: got %v, want ErrNotFound", err)
	}

	orphan := &domain.Passenger{RoomID: "missing", Name: "x", Avatar: "x", Role: "x", Level: 1}
	if err := s.Passengers().Create(ctx, orphan); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("passenger in missing room: got %v, want ErrNotFound", err)
	}
}

func testMessages(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r := MustRoom(t, s, "nara")
	p := MustPassenger(t, s, r.ID, "Deer")

	for _, text := range []string{"one", "two", "three"} {
		m := &domain.ChatMessage{RoomID: r.ID, PassengerID: &p.ID, User: p.Name, Avatar: p.Avatar, Message: text}
		if err := s.Messages().Create(ctx, m); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	got, err := s.Messages().ListByRoom(ctx, r.ID, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Message != "three" || got[1].Message != "two" {
		t.Fatalf("newest first expected, got %+v", got)
	}

	// Сообщение переживает отправителя.
	if err := s.Passengers().Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete sender: %v", err)
	}
	got, err = s.Messages().ListByRoom(ctx, r.ID, 10)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("messages lost with sender: %d", len(got))
	}
	for _, m := range got {
		if m.PassengerID != nil {
			t.Fatalf("sender id kept after delete: %v", *m.PassengerID)
		}
	}
}

func testPolls(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r := MustRoom(t, s, "sapporo")
	a := MustPassenger(t, s, r.ID, "A")
	b := MustPassenger(t, s, r.ID, "B")

	if _, err := s.Polls().GetActive(ctx, r.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("no active poll: got %v, want ErrNotFound", err)
	}

	poll, opts := MustPoll(t, s, r.ID, "shibuya", "ginza")
	active, err := s.Polls().GetActive(ctx, r.ID)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.ID != poll.ID || !active.IsActive {
		t.Fatalf("active poll: %+v", active)
	}

	if err := s.Polls().RecordVote(ctx, &domain.PollVote{PollID: poll.ID, PassengerID: a.ID, OptionID: opts[1].ID}); err != nil {
		t.Fatalf("record vote: %v", err)
	}
	voted, err := s.Polls().HasVoted(ctx, poll.ID, a.ID)
	if err != nil || !voted {
		t.Fatalf("has voted a: %v %v", voted, err)
	}
	voted, err = s.Polls().HasVoted(ctx, poll.ID, b.ID)
	if err != nil || voted {
		t.Fatalf("has voted b: %v %v", voted, err)
	}

	err = s.Polls().RecordVote(ctx, &domain.PollVote{PollID: poll.ID, PassengerID: a.ID, OptionID: opts[0].ID})
	if !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("second vote: got %v, want ErrAlreadyExists", err)
	}

	list, err := s.Polls().ListOptions(ctx, poll.ID)
	if err != nil {
		t.Fatalf("list options: %v", err)
	}
	if len(list) != 2 || list[0].Position != 0 || list[0].Votes != 0 || list[1].Votes != 1 {
		t.Fatalf("tally: %+v", list)
	}

	closed, err := s.Polls().ClosePoll(ctx, poll.ID)
	if err != nil || !closed {
		t.Fatalf("close: %v %v", closed, err)
	}
	closed, err = s.Polls().ClosePoll(ctx, poll.ID)
	if err != nil || closed {
		t.Fatalf("second close must be a no-op: %v %v", closed, err)
	}
	if _, err := s.Polls().GetActive(ctx, r.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("closed poll still active: %v", err)
	}

	polls, err := s.Polls().ListByRoom(ctx, r.ID)
	if err != nil {
		t.Fatalf("list polls: %v", err)
	}
	if len(polls) != 1 || polls[0].IsActive {
		t.Fatalf("polls: %+v", polls)
	}
}

func testSingleActivePoll(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r := MustRoom(t, s, "fukuoka")
	first, _ := MustPoll(t, s, r.ID, "a", "b")

	p := &domain.Poll{RoomID: r.ID, Question: "again?"}
	err := s.Polls().CreatePoll(ctx, p, []domain.PollOption{{Position: 0, DestinationID: "c", Text: "c"}})
	if !errors.Is(err, repository.ErrAlreadyExists) {
		t.Fatalf("second active poll: got %v, want ErrAlreadyExists", err)
	}

	if _, err := s.Polls().ClosePoll(ctx, first.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	MustPoll(t, s, r.ID, "c", "d")
}

// testVoteRace воспроизводит check-then-insert: оба голоса проходят HasVoted,
// но второй упирается в UNIQUE(poll_id, passenger_id), и счётчик не удваивается.
func testVoteRace(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r := MustRoom(t, s, "kobe")
	p := MustPassenger(t, s, r.ID, "Racer")
	poll, opts := MustPoll(t, s, r.ID, "x", "y")

	for i := 0; i < 2; i++ {
		voted, err := s.Polls().HasVoted(ctx, poll.ID, p.ID)
		if err != nil || voted {
			t.Fatalf("pre-check %d: %v %v", i, voted, err)
		}
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok, dup int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Polls().RecordVote(ctx, &domain.PollVote{PollID: poll.ID, PassengerID: p.ID, OptionID: opts[0].ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, repository.ErrAlreadyExists):
				dup++
			default:
				t.Errorf("record vote: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || dup != 1 {
		t.Fatalf("ok=%d dup=%d, want 1/1", ok, dup)
	}
	list, err := s.Polls().ListOptions(ctx, poll.ID)
	if err != nil {
		t.Fatalf("list options: %v", err)
	}
	if domain.TotalVotes(list) != 1 {
		t.Fatalf("total votes = %d, want 1", domain.TotalVotes(list))
	}
}

func testForeignOption(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r1 := MustRoom(t, s, "r1")
	r2 := MustRoom(t, s, "r2")
	p := MustPassenger(t, s, r1.ID, "P")
	poll1, _ := MustPoll(t, s, r1.ID, "a")
	_, opts2 := MustPoll(t, s, r2.ID, "b")

	err := s.Polls().RecordVote(ctx, &domain.PollVote{PollID: poll1.ID, PassengerID: p.ID, OptionID: opts2[0].ID})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("foreign option: got %v, want ErrNotFound", err)
	}
	voted, err := s.Polls().HasVoted(ctx, poll1.ID, p.ID)
	if err != nil || voted {
		t.Fatalf("vote must be rolled back: %v %v", voted, err)
	}
}
