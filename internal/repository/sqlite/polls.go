package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
)

type pollRepo struct {
	db *sql.DB
}

const selectPoll = `SELECT id, room_id, question, is_active, created_at FROM polls`

func (r pollRepo) CreatePoll(ctx context.Context, p *domain.Poll, options []domain.PollOption) error {
	if p.ID == "" {
		p.ID = repository.NewID()
	}
	p.IsActive = true
	p.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	return inTx(ctx, r.db, func(q querier) error {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO polls (id, room_id, question, is_active, created_at) VALUES (?, ?, ?, 1, ?)`,
			p.ID, p.RoomID, p.Question, toMillis(p.CreatedAt)); err != nil {
			return mapSQLiteError(err)
		}
		for i := range options {
			options[i].PollID = p.ID
			if err := createOption(ctx, q, &options[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r pollRepo) ListByRoom(ctx context.Context, roomID string) ([]domain.Poll, error) {
	rows, err := r.db.QueryContext(ctx, selectPoll+` WHERE room_id = ? ORDER BY created_at DESC`, roomID)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	defer rows.Close()

	var out []domain.Poll
	for rows.Next() {
		var (
			p         domain.Poll
			active    int
			createdAt int64
		)
		if err := rows.Scan(&p.ID, &p.RoomID, &p.Question, &active, &createdAt); err != nil {
			return nil, err
		}
		p.IsActive = active != 0
		p.CreatedAt = fromMillis(createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r pollRepo) GetActive(ctx context.Context, roomID string) (*domain.Poll, error) {
	var (
		p         domain.Poll
		active    int
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, selectPoll+` WHERE room_id = ? AND is_active = 1 LIMIT 1`, roomID).
		Scan(&p.ID, &p.RoomID, &p.Question, &active, &createdAt)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	p.IsActive = active != 0
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

func (r pollRepo) ClosePoll(ctx context.Context, pollID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE polls SET is_active = 0 WHERE id = ? AND is_active = 1`, pollID)
	if err != nil {
		return false, mapSQLiteError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r pollRepo) CreatePollOption(ctx context.Context, o *domain.PollOption) error {
	return createOption(ctx, r.db, o)
}

func (r pollRepo) ListOptions(ctx context.Context, pollID string) ([]domain.PollOption, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, poll_id, position, destination_id, text, votes
		 FROM poll_options WHERE poll_id = ? ORDER BY position ASC`, pollID)
	if err != nil {
		return nil, mapSQLiteError(err)
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

func (r pollRepo) IncrementOptionVotes(ctx context.Context, pollID, optionID string) error {
	return incrementOption(ctx, r.db, pollID, optionID)
}

func (r pollRepo) CreatePollVote(ctx context.Context, v *domain.PollVote) error {
	return createVote(ctx, r.db, v)
}

func (r pollRepo) HasVoted(ctx context.Context, pollID, passengerID string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM poll_votes WHERE poll_id = ? AND passenger_id = ?)`,
		pollID, passengerID).Scan(&exists)
	if err != nil {
		return false, mapSQLiteError(err)
	}
	return exists == 1, nil
}

func (r pollRepo) RecordVote(ctx context.Context, v *domain.PollVote) error {
	return inTx(ctx, r.db, func(q querier) error {
		if err := createVote(ctx, q, v); err != nil {
			return err
		}
		return incrementOption(ctx, q, v.PollID, v.OptionID)
	})
}

func createOption(ctx context.Context, q querier, o *domain.PollOption) error {
	if o.ID == "" {
		o.ID = repository.NewID()
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO poll_options (id, poll_id, position, destination_id, text, votes) VALUES (?, ?, ?, ?, ?, 0)`,
		o.ID, o.PollID, o.Position, o.DestinationID, o.Text)
	if err != nil {
		return mapSQLiteError(err)
	}
	o.Votes = 0
	return nil
}

func incrementOption(ctx context.Context, q querier, pollID, optionID string) error {
	return execOne(ctx, q, `UPDATE poll_options SET votes = votes + 1 WHERE id = ? AND poll_id = ?`, optionID, pollID)
}

func createVote(ctx context.Context, q querier, v *domain.PollVote) error {
	if v.ID == "" {
		v.ID = repository.NewID()
	}
	v.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := q.ExecContext(ctx,
		`INSERT INTO poll_votes (id, poll_id, passenger_id, option_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.PollID, v.PassengerID, v.OptionID, toMillis(v.CreatedAt))
	return mapSQLiteError(err)
}
