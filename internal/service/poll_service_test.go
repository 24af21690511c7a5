package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository/repotest"
)

func votes(counts ...int) []domain.PollOption {
	out := make([]domain.PollOption, len(counts))
	for i, c := range counts {
		out[i] = domain.PollOption{Position: i, Votes: c}
	}
	return out
}

func TestWinnerPolicies(t *testing.T) {
	cases := []struct {
		name   string
		policy WinnerPolicy
		in     []domain.PollOption
		want   int
	}{
		{"first max on tie", FirstMax, votes(3, 5, 5, 1), 1},
		{"last max on tie", LastMax, votes(3, 5, 5, 1), 2},
		{"single max", FirstMax, votes(0, 1, 7), 2},
		{"all zero", FirstMax, votes(0, 0), 0},
		{"no options", FirstMax, nil, -1},
		{"no options last", LastMax, nil, -1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.policy(c.in); got != c.want {
				t.Fatalf("got %d, want %d", got, c.want)
			}
		})
	}
}

func TestWinnerPolicyByName(t *testing.T) {
	if _, ok := WinnerPolicyByName("first_max"); !ok {
		t.Fatal("first_max must be known")
	}
	if p, ok := WinnerPolicyByName("last_max"); !ok || p(votes(1, 1)) != 1 {
		t.Fatal("last_max must pick the last of equal options")
	}
	if _, ok := WinnerPolicyByName("random"); ok {
		t.Fatal("unknown policy accepted")
	}
}

type pollFixture struct {
	svc      *PollService
	notifier *fakeNotifier
	room     *domain.Room
	riders   []*domain.Passenger
	get      func(ctx context.Context, id string) (*domain.Room, error)
}

func newPollFixture(t *testing.T, riders int, opts ...PollServiceOption) *pollFixture {
	t.Helper()
	s := newStore(t)
	room := repotest.MustRoom(t, s, "city-tour")
	f := &pollFixture{
		notifier: &fakeNotifier{},
		room:     room,
		get:      s.Rooms().Get,
	}
	for i := 0; i < riders; i++ {
		f.riders = append(f.riders, repotest.MustPassenger(t, s, room.ID, fmt.Sprintf("rider-%d", i)))
	}
	presence := fixedPresence{room.ID: riders}
	f.svc = NewPollService(s.Rooms(), s.Polls(), f.notifier, presence, opts...)
	return f
}

func (f *pollFixture) start(t *testing.T, destinations ...string) *domain.PollWithOptions {
	t.Helper()
	in := NewPoll{RoomID: f.room.ID, Question: "Where next?"}
	for _, d := range destinations {
		in.Options = append(in.Options, NewPollOption{DestinationID: d})
	}
	p, err := f.svc.StartPoll(context.Background(), in)
	if err != nil {
		t.Fatalf("start poll: %v", err)
	}
	return p
}

func TestStartPollValidation(t *testing.T) {
	f := newPollFixture(t, 1)
	ctx := context.Background()

	bad := []NewPoll{
		{RoomID: f.room.ID, Question: "", Options: []NewPollOption{{DestinationID: "a"}}},
		{RoomID: f.room.ID, Question: "q"},
		{RoomID: f.room.ID, Question: "q", Options: []NewPollOption{{DestinationID: " "}}},
		{Question: "q", Options: []NewPollOption{{DestinationID: "a"}}},
	}
	for i, in := range bad {
		if _, err := f.svc.StartPoll(ctx, in); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("case %d: got %v, want ErrInvalidInput", i, err)
		}
	}

	_, err := f.svc.StartPoll(ctx, NewPoll{RoomID: "missing", Question: "q", Options: []NewPollOption{{DestinationID: "a"}}})
	if !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("missing room: got %v", err)
	}
}

func TestStartPollWhileActive(t *testing.T) {
	f := newPollFixture(t, 2)
	p := f.start(t, "shinjuku", "ginza")

	if len(p.Options) != 2 || p.Options[0].Text != "shinjuku" || p.Options[1].Position != 1 {
		t.Fatalf("options: %+v", p.Options)
	}
	if f.notifier.count("new_poll") != 1 {
		t.Fatalf("new_poll not broadcast: %v", f.notifier.kinds())
	}

	_, err := f.svc.StartPoll(context.Background(), NewPoll{
		RoomID: f.room.ID, Question: "again", Options: []NewPollOption{{DestinationID: "x"}},
	})
	if !errors.Is(err, domain.ErrPollActive) {
		t.Fatalf("got %v, want ErrPollActive", err)
	}
	if f.notifier.count("new_poll") != 1 {
		t.Fatal("rejected poll must not be broadcast")
	}
}

func TestActivePollHydratesFromStore(t *testing.T) {
	f := newPollFixture(t, 2)
	p := f.start(t, "a", "b")

	// новый сервис поверх того же хранилища ничего не знает об опросе в памяти
	s := f.svc
	fresh := NewPollService(s.rooms, s.polls, f.notifier, fixedPresence{f.room.ID: 2})
	got, err := fresh.ActivePoll(context.Background(), f.room.ID)
	if err != nil {
		t.Fatalf("active poll: %v", err)
	}
	if got == nil || got.ID != p.ID || len(got.Options) != 2 {
		t.Fatalf("active poll: %+v", got)
	}
}

func TestVoteRejections(t *testing.T) {
	f := newPollFixture(t, 3)
	ctx := context.Background()
	p := f.start(t, "a", "b")
	rider := f.riders[0].ID

	if _, err := f.svc.Vote(ctx, f.room.ID, rider, "other-poll", p.Options[0].ID); !errors.Is(err, domain.ErrPollNotActive) {
		t.Fatalf("wrong poll id: got %v", err)
	}
	if _, err := f.svc.Vote(ctx, f.room.ID, rider, p.ID, "nope"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("unknown option: got %v", err)
	}
	if _, err := f.svc.Vote(ctx, f.room.ID, rider, p.ID, p.Options[1].ID); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := f.svc.Vote(ctx, f.room.ID, rider, p.ID, p.Options[0].ID); !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Fatalf("second vote: got %v", err)
	}
	if f.notifier.count("poll_update") != 1 {
		t.Fatalf("poll_update count = %d, want 1", f.notifier.count("poll_update"))
	}
}

func TestVoteResolvesAtThreshold(t *testing.T) {
	f := newPollFixture(t, 2)
	ctx := context.Background()
	p := f.start(t, "shinjuku", "ginza")

	res, err := f.svc.Vote(ctx, f.room.ID, f.riders[0].ID, p.ID, p.Options[0].ID)
	if err != nil || res.Resolved {
		t.Fatalf("first vote: %+v %v", res, err)
	}
	res, err = f.svc.Vote(ctx, f.room.ID, f.riders[1].ID, p.ID, p.Options[1].ID)
	if err != nil || !res.Resolved {
		t.Fatalf("second vote: %+v %v", res, err)
	}
	if res.Winner.DestinationID != "shinjuku" {
		t.Fatalf("winner = %s, want shinjuku (lowest position on tie)", res.Winner.DestinationID)
	}

	want := []string{"new_poll", "poll_update", "poll_update", "poll_closed", "travel"}
	if got := f.notifier.kinds(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if ev, _ := f.notifier.last("travel"); ev.arg != "shinjuku" {
		t.Fatalf("travel to %q", ev.arg)
	}

	room, err := f.get(ctx, f.room.ID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if room.CurrentDestinationID != "shinjuku" || room.LocationState != domain.LocationTransit {
		t.Fatalf("room not moved: %+v", room)
	}

	active, err := f.svc.ActivePoll(ctx, f.room.ID)
	if err != nil || active != nil {
		t.Fatalf("poll still active: %+v %v", active, err)
	}
	if _, err := f.svc.Vote(ctx, f.room.ID, f.riders[0].ID, p.ID, p.Options[0].ID); !errors.Is(err, domain.ErrPollNotActive) {
		t.Fatalf("vote on closed poll: got %v", err)
	}

	// после закрытия можно открыть следующий
	f.start(t, "akihabara")
}

func TestLastMaxPolicy(t *testing.T) {
	f := newPollFixture(t, 2, WithWinnerPolicy(LastMax))
	ctx := context.Background()
	p := f.start(t, "shinjuku", "ginza")

	_, _ = f.svc.Vote(ctx, f.room.ID, f.riders[0].ID, p.ID, p.Options[0].ID)
	res, err := f.svc.Vote(ctx, f.room.ID, f.riders[1].ID, p.ID, p.Options[1].ID)
	if err != nil || !res.Resolved || res.Winner.DestinationID != "ginza" {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestConcurrentVotesResolveExactlyOnce(t *testing.T) {
	const riders = 8
	f := newPollFixture(t, riders)
	ctx := context.Background()
	p := f.start(t, "a", "b", "c")

	var wg sync.WaitGroup
	errs := make(chan error, riders*2)
	for i := 0; i < riders; i++ {
		// каждый голосует дважды одновременно: один голос должен отбиться
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(rider string, opt string) {
				defer wg.Done()
				_, err := f.svc.Vote(ctx, f.room.ID, rider, p.ID, opt)
				if err != nil && !errors.Is(err, domain.ErrAlreadyVoted) && !errors.Is(err, domain.ErrPollNotActive) {
					errs <- err
				}
			}(f.riders[i].ID, p.Options[(i+j)%3].ID)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("vote: %v", err)
	}

	if n := f.notifier.count("poll_closed"); n != 1 {
		t.Fatalf("poll_closed = %d, want 1", n)
	}
	if n := f.notifier.count("travel"); n != 1 {
		t.Fatalf("travel = %d, want 1", n)
	}
	if n := f.notifier.count("poll_update"); n != riders {
		t.Fatalf("poll_update = %d, want %d", n, riders)
	}
	kinds := f.notifier.kinds()
	if kinds[len(kinds)-2] != "poll_closed" || kinds[len(kinds)-1] != "travel" {
		t.Fatalf("poll_closed must precede travel: %v", kinds)
	}
}
