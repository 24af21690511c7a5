package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
)

type passengerRepo struct {
	db *sql.DB
}

const selectPassenger = `SELECT id, room_id, name, avatar, role, xp, level, is_vip, joined_at FROM passengers`

func (r passengerRepo) Create(ctx context.Context, p *domain.Passenger) error {
	if p.ID == "" {
		p.ID = repository.NewID()
	}
	p.JoinedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO passengers (id, room_id, name, avatar, role, xp, level, is_vip, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.RoomID, p.Name, p.Avatar, p.Role, p.XP, p.Level, boolToInt(p.IsVIP), toMillis(p.JoinedAt))
	return mapSQLiteError(err)
}

func (r passengerRepo) Get(ctx context.Context, id string) (*domain.Passenger, error) {
	rows, err := r.db.QueryContext(ctx, selectPassenger+` WHERE id = ?`, id)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	list, err := scanPassengers(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

func (r passengerRepo) ListByRoom(ctx context.Context, roomID string) ([]domain.Passenger, error) {
	rows, err := r.db.QueryContext(ctx, selectPassenger+` WHERE room_id = ? ORDER BY joined_at ASC, rowid ASC`, roomID)
	if err != nil {
		return nil, mapSQLiteError(err)
	}
	return scanPassengers(rows)
}

func (r passengerRepo) UpdateXP(ctx context.Context, id string, xp, level int) error {
	return execOne(ctx, r.db, `UPDATE passengers SET xp = ?, level = ? WHERE id = ?`, xp, level, id)
}

func (r passengerRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM passengers WHERE id = ?`, id)
}

func scanPassengers(rows *sql.Rows) ([]domain.Passenger, error) {
	defer rows.Close()

	list := make([]domain.Passenger, 0, 8)
	for rows.Next() {
		var (
			p        domain.Passenger
			isVIP    int
			joinedAt int64
		)
		if err := rows.Scan(&p.ID, &p.RoomID, &p.Name, &p.Avatar, &p.Role, &p.XP, &p.Level, &isVIP, &joinedAt); err != nil {
			return nil, err
		}
		p.IsVIP = isVIP != 0
		p.JoinedAt = fromMillis(joinedAt)
		list = append(list, p)
	}
	return list, rows.Err()
}
