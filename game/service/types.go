package service

import (
	"time"

	"github.com/wricardo/genial/game/engine"
	"github.com/wricardo/genial/game/store"
)

// Outbound event types
const (
	EventPlayerJoined     = "player_joined"
	EventPlayerLeft       = "player_left"
	EventPlayerReady      = "player_ready"
	EventGameStarted      = "game_started"
	EventGameStatePerMove = "game_state_per_move"
	EventGameFinished     = "game_finished"
	EventPlayerGameData   = "player_game_data"
	EventRejected         = "rejected"
)

// Event is the envelope of every outbound message
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// LobbyData is sent with player_joined and player_left
type LobbyData struct {
	GameID       string              `json:"game_id"`
	PlayerID     string              `json:"player_id"`
	Players      []store.LobbyPlayer `json:"players"`
	CurrentMover string              `json:"current_mover,omitempty"`
}

// ReadyData is sent with player_ready
type ReadyData struct {
	GameID   string              `json:"game_id"`
	PlayerID string              `json:"player_id"`
	Ready    bool                `json:"ready"`
	Players  []store.LobbyPlayer `json:"players"`
}

// GameStartedData is the public start notice. Hands are sent separately.
type GameStartedData struct {
	GameID        string   `json:"game_id"`
	TurnOrder     []string `json:"turn_order"`
	BoardSize     int      `json:"board_size"`
	CurrentMover  string   `json:"current_mover"`
	PoolRemaining int      `json:"pool_remaining"`
}

// MoveData is sent with game_state_per_move
type MoveData struct {
	GameID         string          `json:"game_id"`
	PlayerID       string          `json:"player_id"`
	BoardDelta     []engine.Cell   `json:"board_delta"`
	Gained         engine.Progress `json:"gained"`
	MoverProgress  engine.Progress `json:"mover_progress"`
	MovesRemaining int             `json:"moves_remaining"`
	BonusMoves     int             `json:"bonus_moves"`
	CurrentMover   string          `json:"current_mover"`
	PoolRemaining  int             `json:"pool_remaining"`
}

// Standing is one player's final result
type Standing struct {
	PlayerID string          `json:"player_id"`
	Name     string          `json:"name"`
	Progress engine.Progress `json:"progress"`
	Lowest   int             `json:"lowest"`
}

// FinishedData is sent with game_finished
type FinishedData struct {
	GameID    string     `json:"game_id"`
	Winner    string     `json:"winner,omitempty"`
	Reason    string     `json:"reason"`
	Standings []Standing `json:"standings"`
}

// HandData is the private player_game_data payload
type HandData struct {
	GameID         string          `json:"game_id"`
	HexPairs       engine.Hand     `json:"hex_pairs"`
	MovesRemaining int             `json:"moves_remaining"`
	Progress       engine.Progress `json:"progress"`
}

// RejectedData is the private rejected payload
type RejectedData struct {
	Action  string `json:"action"`
	GameID  string `json:"game_id,omitempty"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Placement is a request to place one hex pair from the hand
type Placement struct {
	PlayerID     string      `json:"player_id"`
	GameID       string      `json:"game_id"`
	HexPairIndex int         `json:"hex_pair_index"`
	Hex1         engine.Cell `json:"hex1"`
	Hex2         engine.Cell `json:"hex2"`
}

// CreateGameRequest holds the options of a new game. Zero fields are taken
// from Preset when one is named.
type CreateGameRequest struct {
	Name         string `json:"name"`
	AdminID      string `json:"admin_id"`
	BoardSize    int    `json:"board_size"`
	PlayerCount  int    `json:"player_count"`
	ShowProgress *bool  `json:"show_progress,omitempty"`
	Preset       string `json:"preset,omitempty"`
}

// GameInfo is the public summary of a game
type GameInfo struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	AdminID       string       `json:"admin_id"`
	BoardSize     int          `json:"board_size"`
	PlayerCount   int          `json:"player_count"`
	ShowProgress  bool         `json:"show_progress"`
	Status        store.Status `json:"status"`
	Players       []string     `json:"players"`
	TurnOrder     []string     `json:"turn_order,omitempty"`
	CurrentMover  string       `json:"current_mover,omitempty"`
	Winner        string       `json:"winner,omitempty"`
	PoolRemaining int          `json:"pool_remaining"`
	CreatedAt     time.Time    `json:"created_at"`
}

// LobbyGame is a game together with its lobby players
type LobbyGame struct {
	GameInfo
	LobbyPlayers []store.LobbyPlayer `json:"lobby_players"`
}

// BoardInfo is a snapshot of a game's board
type BoardInfo struct {
	GameID    string        `json:"game_id"`
	BoardSize int           `json:"board_size"`
	Cells     []engine.Cell `json:"cells"`
	Corners   []engine.Cell `json:"corners"`
}

// PlayerInfo is the public view of a player. The hand is never included.
type PlayerInfo struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Ready          bool             `json:"ready"`
	GameID         string           `json:"game_id,omitempty"`
	HandSize       int              `json:"hand_size"`
	MovesRemaining int              `json:"moves_remaining"`
	Progress       *engine.Progress `json:"progress,omitempty"`
}

func gameInfo(g store.Game) *GameInfo {
	info := &GameInfo{
		ID:           g.ID,
		Name:         g.Name,
		AdminID:      g.AdminID,
		BoardSize:    g.BoardSize,
		PlayerCount:  g.PlayerCount,
		ShowProgress: g.ShowProgress,
		Status:       g.Status,
		Players:      g.Players,
		TurnOrder:    g.TurnOrder,
		CurrentMover: g.CurrentMover,
		Winner:       g.Winner,
		CreatedAt:    g.CreatedAt,
	}
	if info.Players == nil {
		info.Players = []string{}
	}
	if g.Pool != nil {
		info.PoolRemaining = g.Pool.Remaining()
	}
	return info
}

func playerInfo(p store.Player, showProgress bool) *PlayerInfo {
	info := &PlayerInfo{
		ID:             p.ID,
		Name:           p.Name,
		Ready:          p.Ready,
		GameID:         p.GameID,
		HandSize:       p.Hand.Occupied(),
		MovesRemaining: p.MovesRemaining,
	}
	if showProgress {
		progress := p.Progress
		info.Progress = &progress
	}
	return info
}
