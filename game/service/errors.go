package service

import (
	"errors"
	"fmt"
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidPlacement   = errors.New("invalid placement")
	ErrGameFull           = errors.New("game is full")
	ErrGameNotJoinable    = errors.New("game is not accepting players")
	ErrAlreadyInGame      = errors.New("player is already in another game")
	ErrNotInGame          = errors.New("player is not in this game")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrGameNotInProgress  = errors.New("game is not in progress")
	ErrEmptySlot          = errors.New("hex pair slot is empty")
	ErrColorMismatch      = errors.New("placed colors do not match the hex pair")
	ErrInvalidGameRequest = errors.New("invalid game request")
	ErrInvalidPlayerID    = errors.New("player id must be a UUID")
	ErrServiceClosed      = errors.New("service closed")
)

// Action names used in rejections. They match the inbound message types.
const (
	ActionJoin   = "join_game"
	ActionLeave  = "leave_game"
	ActionReady  = "ready_change"
	ActionPlace  = "place_hex_pair"
	ActionCreate = "create_game"
)

var reasonCodes = []struct {
	err  error
	code string
}{
	{ErrGameNotFound, "game_not_found"},
	{ErrPlayerNotFound, "player_not_found"},
	{ErrInvalidPlacement, "invalid_placement"},
	{ErrGameFull, "game_full"},
	{ErrGameNotJoinable, "game_not_joinable"},
	{ErrAlreadyInGame, "already_in_game"},
	{ErrNotInGame, "not_in_game"},
	{ErrNotYourTurn, "not_your_turn"},
	{ErrGameNotInProgress, "game_not_in_progress"},
	{ErrEmptySlot, "empty_slot"},
	{ErrColorMismatch, "color_mismatch"},
	{ErrInvalidGameRequest, "invalid_game_request"},
}

// Rejection is returned when an action breaks a game rule. Nothing is
// mutated when an action is rejected.
type Rejection struct {
	Action string
	GameID string
	Reason string
	Err    error
}

func (r *Rejection) Error() string {
	if r.GameID == "" {
		return fmt.Sprintf("%s rejected (%s): %v", r.Action, r.Reason, r.Err)
	}
	return fmt.Sprintf("%s rejected for game %s (%s): %v", r.Action, r.GameID, r.Reason, r.Err)
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

func reject(action, gameID string, err error) *Rejection {
	return &Rejection{Action: action, GameID: gameID, Reason: reasonFor(err), Err: err}
}

func reasonFor(err error) string {
	for _, rc := range reasonCodes {
		if errors.Is(err, rc.err) {
			return rc.code
		}
	}
	return "internal"
}
