package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository/repotest"
)

func TestPassengerLifecycle(t *testing.T) {
	s := newStore(t)
	svc := NewPassengerService(s.Rooms(), s.Passengers())
	ctx := context.Background()
	room := repotest.MustRoom(t, s, "line-1")

	p, err := svc.Create(ctx, NewPassenger{RoomID: room.ID, Name: " Aiko ", Avatar: "🐱", IsVIP: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Name != "Aiko" || p.Level != 1 || p.XP != 0 || p.Role != "passenger" || !p.IsVIP {
		t.Fatalf("created: %+v", p)
	}

	up, err := svc.UpdateXP(ctx, p.ID, 2100)
	if err != nil {
		t.Fatalf("update xp: %v", err)
	}
	if up.XP != 2100 || up.Level != 3 {
		t.Fatalf("xp/level: %+v", up)
	}

	if _, err := svc.InRoom(ctx, room.ID, p.ID); err != nil {
		t.Fatalf("in room: %v", err)
	}
	other := repotest.MustRoom(t, s, "line-2")
	if _, err := svc.InRoom(ctx, other.ID, p.ID); !errors.Is(err, domain.ErrNotInRoom) {
		t.Fatalf("other room: got %v", err)
	}

	if err := svc.Remove(ctx, p.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, domain.ErrPassengerNotFound) {
		t.Fatalf("get removed: got %v", err)
	}
	if err := svc.Remove(ctx, p.ID); !errors.Is(err, domain.ErrPassengerNotFound) {
		t.Fatalf("remove twice: got %v", err)
	}
}

func TestPassengerCreateValidation(t *testing.T) {
	s := newStore(t)
	svc := NewPassengerService(s.Rooms(), s.Passengers())
	ctx := context.Background()

	if _, err := svc.Create(ctx, NewPassenger{RoomID: "r", Name: ""}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty name: got %v", err)
	}
	if _, err := svc.Create(ctx, NewPassenger{RoomID: "missing", Name: "x"}); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("missing room: got %v", err)
	}

	room := repotest.MustRoom(t, s, "r")
	p := repotest.MustPassenger(t, s, room.ID, "x")
	if _, err := svc.UpdateXP(ctx, p.ID, -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("negative xp: got %v", err)
	}
	if _, err := svc.UpdateXP(ctx, "missing", 10); !errors.Is(err, domain.ErrPassengerNotFound) {
		t.Fatalf("missing passenger: got %v", err)
	}
}
