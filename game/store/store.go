package store

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/genial/game/engine"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrGameExists     = errors.New("game already exists")
	ErrCellTaken      = errors.New("cell already placed")
)

// Status is the lifecycle state of a game
type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// Game is the stored record of one game
type Game struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	AdminID      string       `json:"admin_id"`
	BoardSize    int          `json:"board_size"`
	PlayerCount  int          `json:"player_count"`
	ShowProgress bool         `json:"show_progress"`
	Players      []string     `json:"players"`
	TurnOrder    []string     `json:"turn_order,omitempty"`
	Status       Status       `json:"status"`
	CurrentMover string       `json:"current_mover,omitempty"`
	Winner       string       `json:"winner,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	Pool         *engine.Pool `json:"-"`
}

// HasPlayer reports whether id is in the joined list
func (g Game) HasPlayer(id string) bool {
	return slices.Contains(g.Players, id)
}

func (g Game) clone() Game {
	g.Players = slices.Clone(g.Players)
	g.TurnOrder = slices.Clone(g.TurnOrder)
	return g
}

// Player is the stored record of one player
type Player struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Ready          bool            `json:"ready"`
	GameID         string          `json:"game_id,omitempty"`
	Hand           engine.Hand     `json:"hex_pairs"`
	MovesRemaining int             `json:"moves_remaining"`
	Progress       engine.Progress `json:"progress"`
}

func (p Player) clone() Player {
	p.Hand = p.Hand.Clone()
	return p
}

// LobbyPlayer is the public lobby view of a player
type LobbyPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

type gameEntry struct {
	mu   sync.RWMutex
	game Game
}

type playerEntry struct {
	mu     sync.RWMutex
	player Player
}

type boardEntry struct {
	mu    sync.RWMutex
	cells []engine.Cell
	taken map[engine.Point]bool
}

// Store holds games, players and boards in memory.
//
// Each map and each entry has its own lock. When two locks are held at
// once they are taken in this order: games map, game, players map, player,
// boards map, board. Callers only ever see copies.
type Store struct {
	gamesMu sync.RWMutex
	games   map[string]*gameEntry

	playersMu sync.RWMutex
	players   map[string]*playerEntry

	boardsMu sync.RWMutex
	boards   map[string]*boardEntry
}

// New creates an empty store
func New() *Store {
	return &Store{
		games:   make(map[string]*gameEntry),
		players: make(map[string]*playerEntry),
		boards:  make(map[string]*boardEntry),
	}
}

// AddGame stores a new game together with an empty board
func (s *Store) AddGame(g Game) error {
	s.gamesMu.Lock()
	if _, exists := s.games[g.ID]; exists {
		s.gamesMu.Unlock()
		return fmt.Errorf("%w: %s", ErrGameExists, g.ID)
	}
	s.games[g.ID] = &gameEntry{game: g.clone()}
	s.gamesMu.Unlock()

	s.boardsMu.Lock()
	if _, exists := s.boards[g.ID]; !exists {
		s.boards[g.ID] = &boardEntry{taken: make(map[engine.Point]bool)}
	}
	s.boardsMu.Unlock()
	return nil
}

func (s *Store) gameEntry(id string) (*gameEntry, bool) {
	s.gamesMu.RLock()
	defer s.gamesMu.RUnlock()
	e, ok := s.games[id]
	return e, ok
}

// Game returns a copy of the game
func (s *Store) Game(id string) (Game, bool) {
	e, ok := s.gameEntry(id)
	if !ok {
		return Game{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.game.clone(), true
}

// Games returns copies of all games, oldest first
func (s *Store) Games() []Game {
	s.gamesMu.RLock()
	entries := make([]*gameEntry, 0, len(s.games))
	for _, e := range s.games {
		entries = append(entries, e)
	}
	s.gamesMu.RUnlock()

	games := make([]Game, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		games = append(games, e.game.clone())
		e.mu.RUnlock()
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})
	return games
}

// UpdateGame runs fn with the game write-locked. If fn returns an error the
// game is left unchanged. The updated copy is returned.
func (s *Store) UpdateGame(id string, fn func(*Game) error) (Game, error) {
	e, ok := s.gameEntry(id)
	if !ok {
		return Game{}, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.game.clone()
	if err := fn(&working); err != nil {
		return e.game.clone(), err
	}
	e.game = working
	return working.clone(), nil
}

// UpsertPlayer returns the player with id, creating it with nameFn's name
// on first contact. created reports whether a new player was stored.
func (s *Store) UpsertPlayer(id string, nameFn func() string) (p Player, created bool) {
	s.playersMu.Lock()
	e, ok := s.players[id]
	if !ok {
		e = &playerEntry{player: Player{ID: id, Name: nameFn()}}
		s.players[id] = e
		created = true
	}
	s.playersMu.Unlock()

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.player.clone(), created
}

// PutPlayer stores a player record, replacing any existing one
func (s *Store) PutPlayer(p Player) {
	s.playersMu.Lock()
	defer s.playersMu.Unlock()
	s.players[p.ID] = &playerEntry{player: p.clone()}
}

func (s *Store) playerEntry(id string) (*playerEntry, bool) {
	s.playersMu.RLock()
	defer s.playersMu.RUnlock()
	e, ok := s.players[id]
	return e, ok
}

// Player returns a copy of the player
func (s *Store) Player(id string) (Player, bool) {
	e, ok := s.playerEntry(id)
	if !ok {
		return Player{}, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.player.clone(), true
}

// Players returns copies of all players sorted by id
func (s *Store) Players() []Player {
	s.playersMu.RLock()
	entries := make([]*playerEntry, 0, len(s.players))
	for _, e := range s.players {
		entries = append(entries, e)
	}
	s.playersMu.RUnlock()

	players := make([]Player, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		players = append(players, e.player.clone())
		e.mu.RUnlock()
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

// UpdatePlayer runs fn with the player write-locked. If fn returns an error
// the player is left unchanged.
func (s *Store) UpdatePlayer(id string, fn func(*Player) error) (Player, error) {
	e, ok := s.playerEntry(id)
	if !ok {
		return Player{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.player.clone()
	if err := fn(&working); err != nil {
		return e.player.clone(), err
	}
	e.player = working
	return working.clone(), nil
}

// LobbyPlayers returns the lobby view of every player joined to the game,
// in join order. The game read lock is held while players are read.
func (s *Store) LobbyPlayers(gameID string) ([]LobbyPlayer, error) {
	e, ok := s.gameEntry(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]LobbyPlayer, 0, len(e.game.Players))
	for _, id := range e.game.Players {
		p, ok := s.Player(id)
		if !ok {
			continue
		}
		out = append(out, LobbyPlayer{ID: p.ID, Name: p.Name, Ready: p.Ready})
	}
	return out, nil
}

func (s *Store) boardEntry(gameID string) (*boardEntry, bool) {
	s.boardsMu.RLock()
	defer s.boardsMu.RUnlock()
	e, ok := s.boards[gameID]
	return e, ok
}

// Board returns a copy of the cells placed in the game, in placement order
func (s *Store) Board(gameID string) ([]engine.Cell, bool) {
	e, ok := s.boardEntry(gameID)
	if !ok {
		return nil, false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.cells), true
}

// AppendCells adds cells to the board. Either all cells are appended or,
// if any coordinate is already placed, none are.
func (s *Store) AppendCells(gameID string, cells ...engine.Cell) error {
	e, ok := s.boardEntry(gameID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[engine.Point]bool, len(cells))
	for _, c := range cells {
		p := c.Point()
		if e.taken[p] || seen[p] {
			return fmt.Errorf("%w: (%d,%d)", ErrCellTaken, p.X, p.Y)
		}
		seen[p] = true
	}
	for _, c := range cells {
		e.taken[c.Point()] = true
		e.cells = append(e.cells, c)
	}
	return nil
}
