package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cleantrack/cleantrack-api/internal/domain"
)

// RoomRepository persists per-room cleaning records.
type RoomRepository interface {
	// GetOrCreate inserts defaults when no row exists for the room number and
	// returns the stored row either way. Concurrent callers get the same row.
	GetOrCreate(ctx context.Context, defaults *domain.Room) (*domain.Room, error)
	MarkCleaned(ctx context.Context, roomNumber string, at time.Time) (*domain.Room, error)
	AssignCaretakerForFloor(ctx context.Context, floor int, caretaker string) (int64, error)
	FirstOnFloor(ctx context.Context, floor int) (*domain.Room, error)
}

type roomRepository struct {
	pool *pgxpool.Pool
}

// NewRoomRepository constructs repository.
func NewRoomRepository(pool *pgxpool.Pool) RoomRepository {
	return &roomRepository{pool: pool}
}

const roomColumns = `id, room_number, floor, last_cleaned, caretaker, room_cleaner, corridor_cleaner, washroom_cleaner`

func (r *roomRepository) GetOrCreate(ctx context.Context, defaults *domain.Room) (*domain.Room, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	const query = `
        INSERT INTO rooms (room_number, floor, last_cleaned, caretaker, room_cleaner, corridor_cleaner, washroom_cleaner)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (room_number) DO UPDATE SET room_number=EXCLUDED.room_number
        RETURNING ` + roomColumns
	return scanRoom(r.pool.QueryRow(ctx, query,
		defaults.RoomNumber,
		defaults.Floor,
		defaults.LastCleaned,
		defaults.Caretaker,
		defaults.Janitors.RoomCleaner,
		defaults.Janitors.CorridorCleaner,
		defaults.Janitors.WashroomCleaner,
	))
}

func (r *roomRepository) MarkCleaned(ctx context.Context, roomNumber string, at time.Time) (*domain.Room, error) {
	const query = `UPDATE rooms SET last_cleaned=$1 WHERE room_number=$2 RETURNING ` + roomColumns
	return scanRoom(r.pool.QueryRow(ctx, query, at, roomNumber))
}

func (r *roomRepository) AssignCaretakerForFloor(ctx context.Context, floor int, caretaker string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `UPDATE rooms SET caretaker=$1 WHERE floor=$2`, caretaker, floor)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *roomRepository) FirstOnFloor(ctx context.Context, floor int) (*domain.Room, error) {
	const query = `SELECT ` + roomColumns + ` FROM rooms WHERE floor=$1 ORDER BY room_number LIMIT 1`
	return scanRoom(r.pool.QueryRow(ctx, query, floor))
}

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var room domain.Room
	if err := row.Scan(
		&room.ID,
		&room.RoomNumber,
		&room.Floor,
		&room.LastCleaned,
		&room.Caretaker,
		&room.Janitors.RoomCleaner,
		&room.Janitors.CorridorCleaner,
		&room.Janitors.WashroomCleaner,
	); err != nil {
		return nil, err
	}
	return &room, nil
}
