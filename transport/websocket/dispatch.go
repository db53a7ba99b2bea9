package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/wricardo/genial/game/service"
)

const handlerTimeout = 10 * time.Second

// Inbound message types
const (
	TypeJoinGame     = "join_game"
	TypeLeaveGame    = "leave_game"
	TypeReadyChange  = "ready_change"
	TypePlaceHexPair = "place_hex_pair"
	TypePing         = "ping"
)

// GameHandler receives the game actions sent over WebSocket
type GameHandler interface {
	Join(ctx context.Context, playerID, gameID string) error
	Leave(ctx context.Context, playerID, gameID string) error
	ChangeReady(ctx context.Context, playerID, gameID string, ready bool) error
	Place(ctx context.Context, p service.Placement) error
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type membershipPayload struct {
	PlayerID string `json:"player_id"`
	GameID   string `json:"game_id"`
}

type readyPayload struct {
	PlayerID string `json:"player_id"`
	GameID   string `json:"game_id"`
	Ready    bool   `json:"ready"`
}

// dispatch decodes one inbound frame and hands it to the game handler.
// Malformed frames are logged and dropped.
func (h *Hub) dispatch(c *Client, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("[hub] ignoring malformed message from %s: %v", c.id, err)
		return
	}

	if msg.Type == TypePing {
		h.SendTo(c.id, Message{Type: "pong", Data: struct{}{}})
		return
	}

	h.mu.RLock()
	handler := h.handler
	h.mu.RUnlock()
	if handler == nil {
		log.Printf("[hub] no handler for %s message from %s", msg.Type, c.id)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case TypeJoinGame, TypeLeaveGame:
		var p membershipPayload
		if !h.decode(c, msg, &p) || !h.checkIdentity(c, msg.Type, p.PlayerID, p.GameID) {
			return
		}
		if msg.Type == TypeJoinGame {
			err = handler.Join(ctx, p.PlayerID, p.GameID)
		} else {
			err = handler.Leave(ctx, p.PlayerID, p.GameID)
		}

	case TypeReadyChange:
		var p readyPayload
		if !h.decode(c, msg, &p) || !h.checkIdentity(c, msg.Type, p.PlayerID, p.GameID) {
			return
		}
		err = handler.ChangeReady(ctx, p.PlayerID, p.GameID, p.Ready)

	case TypePlaceHexPair:
		var p service.Placement
		if !h.decode(c, msg, &p) || !h.checkIdentity(c, msg.Type, p.PlayerID, p.GameID) {
			return
		}
		err = handler.Place(ctx, p)

	default:
		log.Printf("[hub] ignoring unknown message type %q from %s", msg.Type, c.id)
		return
	}

	if err != nil {
		log.Printf("[hub] %s from %s failed: %v", msg.Type, c.id, err)
	}
}

func (h *Hub) decode(c *Client, msg inbound, v any) bool {
	if len(msg.Payload) == 0 {
		log.Printf("[hub] ignoring %s from %s: missing payload", msg.Type, c.id)
		return false
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		log.Printf("[hub] ignoring %s from %s: %v", msg.Type, c.id, err)
		return false
	}
	return true
}

// checkIdentity rejects payloads that act for a player other than the
// connection's own
func (h *Hub) checkIdentity(c *Client, action, playerID, gameID string) bool {
	if gameID == "" {
		log.Printf("[hub] ignoring %s from %s: missing game_id", action, c.id)
		return false
	}
	if playerID == c.id {
		return true
	}
	h.SendTo(c.id, service.Event{Type: service.EventRejected, Data: service.RejectedData{
		Action:  action,
		GameID:  gameID,
		Reason:  "identity_mismatch",
		Message: "player_id does not match this connection",
	}})
	return false
}
