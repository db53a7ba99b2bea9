package persistence

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

// GameRecord is the persisted part of a game. Boards, hands and pools are
// not stored.
type GameRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	AdminID      string    `json:"admin_id"`
	BoardSize    int       `json:"board_size"`
	PlayerCount  int       `json:"player_count"`
	ShowProgress bool      `json:"show_progress"`
	Status       string    `json:"status"`
	Winner       string    `json:"winner,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PlayerRecord is the persisted part of a player
type PlayerRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Persistence loads records at boot and saves them as they change
type Persistence interface {
	// LoadGames returns every stored game
	LoadGames(ctx context.Context) ([]GameRecord, error)

	// LoadPlayers returns every stored player
	LoadPlayers(ctx context.Context) ([]PlayerRecord, error)

	// SaveGame inserts or replaces a game
	SaveGame(ctx context.Context, g GameRecord) error

	// SavePlayer inserts or replaces a player
	SavePlayer(ctx context.Context, p PlayerRecord) error

	Close() error
}

// Nop discards writes and loads nothing
type Nop struct{}

func (Nop) LoadGames(context.Context) ([]GameRecord, error)     { return nil, nil }
func (Nop) LoadPlayers(context.Context) ([]PlayerRecord, error) { return nil, nil }
func (Nop) SaveGame(context.Context, GameRecord) error          { return nil }
func (Nop) SavePlayer(context.Context, PlayerRecord) error      { return nil }
func (Nop) Close() error                                        { return nil }

func stamp(created, updated time.Time) (time.Time, time.Time) {
	created = created.UTC()
	updated = updated.UTC()
	if created.IsZero() && updated.IsZero() {
		now := time.Now().UTC()
		return now, now
	}
	if created.IsZero() {
		created = updated
	}
	if updated.IsZero() {
		updated = created
	}
	return created, updated
}
