// internal/database/rooms.go
package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/cardtable/cardtable/internal/models"
)

// InsertRoom persists a new directory row. Room codes are unique, so this is
// a single-row write with no cross-row transaction.
func (s *Store) InsertRoom(ctx context.Context, entry models.RoomDirectoryEntry) error {
	if s == nil {
		return nil
	}
	q := `
	INSERT INTO rooms (room_code, num_players, max_players, room_name, room_owner, game_desc)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, q,
		entry.RoomCode,
		entry.NumPlayers,
		entry.MaxPlayers,
		entry.RoomName,
		entry.RoomOwner,
		entry.GameDesc,
	)
	return err
}

// DeleteRoom removes a directory row by code. Deleting an absent row is not
// an error.
func (s *Store) DeleteRoom(ctx context.Context, roomCode string) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE room_code = $1`, roomCode)
	return err
}

// UpdateNumPlayers mirrors the live participant count into the row.
func (s *Store) UpdateNumPlayers(ctx context.Context, roomCode string, numPlayers int) error {
	if s == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `UPDATE rooms SET num_players = $2 WHERE room_code = $1`, roomCode, numPlayers)
	return err
}

// GetRoom fetches one directory row, or nil if the code is unknown.
func (s *Store) GetRoom(ctx context.Context, roomCode string) (*models.RoomDirectoryEntry, error) {
	if s == nil {
		return nil, nil
	}
	var e models.RoomDirectoryEntry
	q := `
	SELECT room_code, num_players, max_players, room_name, room_owner, game_desc
	FROM rooms WHERE room_code = $1
	`
	err := s.pool.QueryRow(ctx, q, roomCode).Scan(
		&e.RoomCode, &e.NumPlayers, &e.MaxPlayers, &e.RoomName, &e.RoomOwner, &e.GameDesc,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListRooms returns every directory row, ordered by code for stable listings.
func (s *Store) ListRooms(ctx context.Context) ([]models.RoomDirectoryEntry, error) {
	if s == nil {
		return nil, nil
	}
	q := `
	SELECT room_code, num_players, max_players, room_name, room_owner, game_desc
	FROM rooms ORDER BY room_code
	`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.RoomDirectoryEntry
	for rows.Next() {
		var e models.RoomDirectoryEntry
		if err := rows.Scan(&e.RoomCode, &e.NumPlayers, &e.MaxPlayers, &e.RoomName, &e.RoomOwner, &e.GameDesc); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
