package postgres

import (
	"context"

	"github.com/Msaabiam/Global-Bus/internal/domain"
	"github.com/Msaabiam/Global-Bus/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	db *pgxpool.Pool
}

func NewRoomRepository(db *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if room.ID == "" {
		room.ID = repository.NewID()
	}
	err := r.db.QueryRow(ctx, queryCreateRoom,
		room.ID, room.Name, room.CurrentDestinationID, string(room.LocationState), room.BusStyle,
	).Scan(&room.CreatedAt)

	return mapPgError(err)
}

func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	return scanRoom(r.db.QueryRow(ctx, querySelectRoom+` WHERE id=$1`, id))
}

func (r *RoomRepository) GetByName(ctx context.Context, name string) (*domain.Room, error) {
	return scanRoom(r.db.QueryRow(ctx, querySelectRoom+` WHERE name=$1`, name))
}

func (r *RoomRepository) UpdateDestination(ctx context.Context, roomID, destinationID string, state domain.LocationState) error {
	return execOne(ctx, r.db, queryUpdateRoomDestination, roomID, destinationID, string(state))
}

func (r *RoomRepository) UpdateBusStyle(ctx context.Context, roomID, busStyle string) error {
	return execOne(ctx, r.db, queryUpdateRoomBusStyle, roomID, busStyle)
}

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var (
		rm    domain.Room
		state string
	)
	if err := row.Scan(&rm.ID, &rm.Name, &rm.CurrentDestinationID, &state, &rm.BusStyle, &rm.CreatedAt); err != nil {
		return nil, mapPgError(err)
	}
	rm.LocationState = domain.LocationState(state)
	return &rm, nil
}

// execOne: Exec, ожидающий ровно одну затронутую строку; иначе ErrNotFound.
func execOne(ctx context.Context, q querier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
