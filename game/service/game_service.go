package service

import (
	"context"

	"github.com/wricardo/genial/game/config"
)

// GameService defines all game-related operations
type GameService interface {
	// Lobby
	CreateGame(ctx context.Context, req CreateGameRequest) (*GameInfo, error)
	ListGames(ctx context.Context) ([]*GameInfo, error)
	LobbyGame(ctx context.Context, gameID string) (*LobbyGame, error)
	BoardOf(ctx context.Context, gameID string) (*BoardInfo, error)

	// Players
	UpsertPlayer(ctx context.Context, playerID, name string) (*PlayerInfo, error)
	PlayerInfo(ctx context.Context, playerID string) (*PlayerInfo, error)

	// Game actions
	Join(ctx context.Context, playerID, gameID string) error
	Leave(ctx context.Context, playerID, gameID string) error
	ChangeReady(ctx context.Context, playerID, gameID string, ready bool) error
	Place(ctx context.Context, p Placement) error

	// Lifecycle
	Restore(ctx context.Context) error
	Close()
}

// Broadcaster delivers events to rooms and single connections. Room ids
// are game ids and connection ids are player ids.
type Broadcaster interface {
	JoinRoom(roomID, connID string) bool
	LeaveRoom(roomID, connID string) bool
	BroadcastToRoom(roomID string, event any, skip string)
	SendTo(connID string, event any) bool
}

// PresetSource looks up named game presets
type PresetSource interface {
	Preset(name string) (config.Preset, error)
}

// NameGenerator returns a display name for a new player
type NameGenerator func() string
