package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Msaabiam/Global-Bus/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

/*
абстрактный слой над *pgxpool.Pool / pgx.Tx
чтобы запросы можно было делать атомарно а не по одному
*/
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// inTx выполняет fn в транзакции; при ошибке: откат.
func inTx(ctx context.Context, db txBeginner, fn func(q querier) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", repository.ErrAlreadyExists, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", repository.ErrNotFound, pgErr.ConstraintName)
		}
	}

	return err
}

// Store собирает все репозитории поверх одного пула.
type Store struct {
	pool       *pgxpool.Pool
	rooms      *RoomRepository
	passengers *PassengerRepository
	messages   *MessageRepository
	polls      *PollRepository
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:       pool,
		rooms:      NewRoomRepository(pool),
		passengers: NewPassengerRepository(pool),
		messages:   NewMessageRepository(pool),
		polls:      NewPollRepository(pool),
	}
}

func (s *Store) Rooms() repository.RoomRepository           { return s.rooms }
func (s *Store) Passengers() repository.PassengerRepository { return s.passengers }
func (s *Store) Messages() repository.MessageRepository     { return s.messages }
func (s *Store) Polls() repository.PollRepository           { return s.polls }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
