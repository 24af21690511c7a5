package service

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
	"github.com/Msaabiam/Global-Bus/internal/repository/sqlite"
)

func newStore(t *testing.T) repository.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "bus.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type event struct {
	kind   string
	roomID string
	arg    string
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []event
}

func (n *fakeNotifier) add(kind, roomID, arg string) {
	n.mu.Lock()
	n.events = append(n.events, event{kind, roomID, arg})
	n.mu.Unlock()
}

func (n *fakeNotifier) PollUpdated(roomID, pollID string, _ []domain.PollOption) {
	n.add("poll_update", roomID, pollID)
}
func (n *fakeNotifier) PollClosed(roomID, pollID string)   { n.add("poll_closed", roomID, pollID) }
func (n *fakeNotifier) Travel(roomID, destinationID string) { n.add("travel", roomID, destinationID) }
func (n *fakeNotifier) NewPoll(roomID string, p domain.PollWithOptions) {
	n.add("new_poll", roomID, p.ID)
}
func (n *fakeNotifier) BusStyle(roomID, busStyle string) { n.add("bus_style", roomID, busStyle) }

func (n *fakeNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.kind == kind {
			c++
		}
	}
	return c
}

func (n *fakeNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.kind)
	}
	return out
}

func (n *fakeNotifier) last(kind string) (event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].kind == kind {
			return n.events[i], true
		}
	}
	return event{}, false
}

// fixedPresence: фиксированное число пассажиров на комнату.
type fixedPresence map[string]int

func (p fixedPresence) PassengerCount(roomID string) int { return p[roomID] }
