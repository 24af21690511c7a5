package postgres

import (
	"context"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PassengerRepository struct {
	db *pgxpool.Pool
}

func NewPassengerRepository(db *pgxpool.Pool) *PassengerRepository {
	return &PassengerRepository{db: db}
}

func (r *PassengerRepository) Create(ctx context.Context, p *domain.Passenger) error {
	if p.ID == "" {
		p.ID = repository.NewID()
	}
	err := r.db.QueryRow(ctx, queryCreatePassenger,
		p.ID, p.RoomID, p.Name, p.Avatar, p.Role, p.XP, p.Level, p.IsVIP,
	).Scan(&p.JoinedAt)

	return mapPgError(err)
}

func (r *PassengerRepository) Get(ctx context.Context, id string) (*domain.Passenger, error) {
	p, err := scanPassenger(r.db.QueryRow(ctx, querySelectPassenger+` WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PassengerRepository) ListByRoom(ctx context.Context, roomID string) ([]domain.Passenger, error) {
	rows, err := r.db.Query(ctx, querySelectPassenger+` WHERE room_id=$1 ORDER BY joined_at ASC, id ASC`, roomID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	list := make([]domain.Passenger, 0, 8)
	for rows.Next() {
		p, err := scanPassenger(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PassengerRepository) UpdateXP(ctx context.Context, id string, xp, level int) error {
	return execOne(ctx, r.db, queryUpdatePassengerXP, id, xp, level)
}

func (r *PassengerRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, queryDeletePassenger, id)
}

func scanPassenger(row pgx.Row) (domain.Passenger, error) {
	var p domain.Passenger
	err := row.Scan(&p.ID, &p.RoomID, &p.Name, &p.Avatar, &p.Role, &p.XP, &p.Level, &p.IsVIP, &p.JoinedAt)
	if err != nil {
		return domain.Passenger{}, mapPgError(err)
	}
	return p, nil
}
