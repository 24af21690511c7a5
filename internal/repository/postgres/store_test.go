package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/Msaabiam/Global-Bus/config"
	"github.com/Msaabiam/Global-Bus/internal/pg"
	"github.com/Msaabiam/Global-Bus/internal/repository"
	"github.com/Msaabiam/Global-Bus/internal/repository/postgres"
	"github.com/Msaabiam/Global-Bus/internal/repository/repotest"
)

// Тесты идут против живой базы: TEST_PG_DSN=postgres://... go test ./...
// Каждый подтест начинает с чистых таблиц.
func TestStoreContract(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, config.Postgres{DSN: dsn, MaxConns: 4, ApplicationName: "global-bus-test"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repotest.Run(t, func(t *testing.T) repository.Store {
		if _, err := pool.Exec(ctx, `TRUNCATE rooms, passengers, messages, polls, poll_options, poll_votes CASCADE`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return postgres.NewStore(pool)
	})
}
