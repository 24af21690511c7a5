package postgres

import (
	"context"
	"errors"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PollRepository struct {
	db *pgxpool.Pool
}

func NewPollRepository(db *pgxpool.Pool) *PollRepository {
	return &PollRepository{db: db}
}

func (r *PollRepository) CreatePoll(ctx context.Context, p *domain.Poll, options []domain.PollOption) error {
	if p.ID == "" {
		p.ID = repository.NewID()
	}
	return inTx(ctx, r.db, func(q querier) error {
		if err := q.QueryRow(ctx, queryCreatePoll, p.ID, p.RoomID, p.Question).Scan(&p.CreatedAt); err != nil {
			return mapPgError(err)
		}
		p.IsActive = true
		for i := range options {
			options[i].PollID = p.ID
			if err := createOption(ctx, q, &options[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PollRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Poll, error) {
	rows, err := r.db.Query(ctx, querySelectPoll+` WHERE room_id=$1 ORDER BY created_at DESC`, roomID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []domain.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PollRepository) GetActive(ctx context.Context, roomID string) (*domain.Poll, error) {
	return scanPoll(r.db.QueryRow(ctx, querySelectPoll+` WHERE room_id=$1 AND is_active LIMIT 1`, roomID))
}

func (r *PollRepository) ClosePoll(ctx context.Context, pollID string) (bool, error) {
	tag, err := r.db.Exec(ctx, queryClosePoll, pollID)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PollRepository) CreatePollOption(ctx context.Context, o *domain.PollOption) error {
	return createOption(ctx, r.db, o)
}

func (r *PollRepository) ListOptions(ctx context.Context, pollID string) ([]domain.PollOption, error) {
	rows, err := r.db.Query(ctx, queryListOptions, pollID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []domain.PollOption
	for rows.Next() {
		var o domain.PollOption
		if err := rows.Scan(&o.ID, &o.PollID, &o.Position, &o.DestinationID, &o.Text, &o.Votes); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PollRepository) IncrementOptionVotes(ctx context.Context, pollID, optionID string) error {
	return execOne(ctx, r.db, queryIncrementOption, optionID, pollID)
}

func (r *PollRepository) CreatePollVote(ctx context.Context, v *domain.PollVote) error {
	return createVote(ctx, r.db, v)
}

func (r *PollRepository) HasVoted(ctx context.Context, pollID, passengerID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, queryHasVoted, pollID, passengerID).Scan(&exists)
	return exists, mapPgError(err)
}

// RecordVote пишет голос и инкремент в одной транзакции. UNIQUE(poll_id, passenger_id)
// не даёт второму голосу пройти, даже если HasVoted у обоих вернул false.
func (r *PollRepository) RecordVote(ctx context.Context, v *domain.PollVote) error {
	return inTx(ctx, r.db, func(q querier) error {
		if err := createVote(ctx, q, v); err != nil {
			return err
		}
		return execOne(ctx, q, queryIncrementOption, v.OptionID, v.PollID)
	})
}

func createOption(ctx context.Context, q querier, o *domain.PollOption) error {
	if o.ID == "" {
		o.ID = repository.NewID()
	}
	if _, err := q.Exec(ctx, queryCreateOption, o.ID, o.PollID, o.Position, o.DestinationID, o.Text); err != nil {
		return mapPgError(err)
	}
	o.Votes = 0
	return nil
}

func createVote(ctx context.Context, q querier, v *domain.PollVote) error {
	if v.ID == "" {
		v.ID = repository.NewID()
	}
	err := q.QueryRow(ctx, queryCreateVote, v.ID, v.PollID, v.PassengerID, v.OptionID).Scan(&v.CreatedAt)
	return mapPgError(err)
}

func scanPoll(row pgx.Row) (*domain.Poll, error) {
	var p domain.Poll
	if err := row.Scan(&p.ID, &p.RoomID, &p.Question, &p.IsActive, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}
	return &p, nil
}
