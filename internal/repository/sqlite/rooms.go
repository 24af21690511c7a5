package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"
)

type roomRepo struct {
	db *sql.DB
}

const selectRoom = `SELECT id, name, current_destination_id, location_state, bus_style, created_at FROM rooms`

func (r roomRepo) Create(ctx context.Context, room *domain.Room) error {
	if room.ID == "" {
		room.ID = repository.NewID()
	}
	room.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, current_destination_id, location_state, bus_style, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.CurrentDestinationID, string(room.LocationState), room.BusStyle, toMillis(room.CreatedAt))
	return mapSQLiteError(err)
}

func (r roomRepo) Get(ctx context.Context, id string) (*domain.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx, selectRoom+` WHERE id = ?`, id))
}

func (r roomRepo) GetByName(ctx context.Context, name string) (*domain.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx, selectRoom+` WHERE name = ?`, name))
}

func (r roomRepo) UpdateDestination(ctx context.Context, roomID, destinationID string, state domain.LocationState) error {
	return execOne(ctx, r.db,
		`UPDATE rooms SET current_destination_id = ?, location_state = ? WHERE id = ?`,
		destinationID, string(state), roomID)
}

func (r roomRepo) UpdateBusStyle(ctx context.Context, roomID, busStyle string) error {
	return execOne(ctx, r.db, `UPDATE rooms SET bus_style = ? WHERE id = ?`, busStyle, roomID)
}

func scanRoom(row *sql.Row) (*domain.Room, error) {
	var (
		rm        domain.Room
		state     string
		createdAt int64
	)
	if err := row.Scan(&rm.ID, &rm.Name, &rm.CurrentDestinationID, &state, &rm.BusStyle, &createdAt); err != nil {
		return nil, mapSQLiteError(err)
	}
	rm.LocationState = domain.LocationState(state)
	rm.CreatedAt = fromMillis(createdAt)
	return &rm, nil
}
