package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/Msaabiam/Global-Bus/internal/repository"
	"github.com/Msaabiam/Global-Bus/internal/repository/repotest"
	"github.com/Msaabiam/Global-Bus/internal/repository/sqlite"
)

func TestStoreContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		s, err := sqlite.Open(filepath.Join(t.TempDir(), "bus.db"))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := sqlite.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.db")
	s, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	room := repotest.MustRoom(t, s, "persist")
	_ = s.Close()

	s, err = sqlite.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Rooms().Get(t.Context(), room.ID); err != nil {
		t.Fatalf("room lost after reopen: %v", err)
	}
}
