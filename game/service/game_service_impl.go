package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/genial/game/engine"
	"github.com/wricardo/genial/game/persistence"
	"github.com/wricardo/genial/game/store"
)

const (
	maxGameNameLength = 50
	saveTimeout       = 5 * time.Second
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	store   *store.Store
	hub     Broadcaster
	persist persistence.Persistence
	presets PresetSource
	names   NameGenerator
	newPool func() *engine.Pool
	now     func() time.Time

	mu     sync.RWMutex
	actors map[string]*gameActor
	closed bool
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithPersistence sets where games and players are saved
func WithPersistence(p persistence.Persistence) Option {
	return func(s *gameServiceImpl) { s.persist = p }
}

// WithPresets sets the preset source used by CreateGame
func WithPresets(p PresetSource) Option {
	return func(s *gameServiceImpl) { s.presets = p }
}

// WithNameGenerator sets the generator for new player names
func WithNameGenerator(fn NameGenerator) Option {
	return func(s *gameServiceImpl) { s.names = fn }
}

// WithPoolFactory sets how draw pools are built for new games
func WithPoolFactory(fn func() *engine.Pool) Option {
	return func(s *gameServiceImpl) { s.newPool = fn }
}

// NewGameService creates a new game service instance
func NewGameService(st *store.Store, hub Broadcaster, opts ...Option) GameService {
	s := &gameServiceImpl{
		store:   st,
		hub:     hub,
		persist: persistence.Nop{},
		names:   func() string { return "Player" },
		newPool: func() *engine.Pool { return engine.NewPool(engine.DefaultAdjacency()) },
		now:     time.Now,
		actors:  make(map[string]*gameActor),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *gameServiceImpl) startActor(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[gameID]; ok || s.closed {
		return
	}
	s.actors[gameID] = newGameActor(gameID)
}

// exec runs fn on the game's actor. Rejections are also sent privately to
// the acting player.
func (s *gameServiceImpl) exec(ctx context.Context, action, gameID, playerID string, fn func() error) error {
	s.mu.RLock()
	a, ok := s.actors[gameID]
	s.mu.RUnlock()

	var err error
	if !ok {
		err = reject(action, gameID, ErrGameNotFound)
	} else {
		err = a.do(ctx, fn)
	}

	var rej *Rejection
	if errors.As(err, &rej) {
		log.Printf("[game] %v", rej)
		s.hub.SendTo(playerID, Event{Type: EventRejected, Data: RejectedData{
			Action:  rej.Action,
			GameID:  rej.GameID,
			Reason:  rej.Reason,
			Message: rej.Err.Error(),
		}})
	}
	return err
}

// Close stops every game actor
func (s *gameServiceImpl) Close() {
	s.mu.Lock()
	s.closed = true
	actors := s.actors
	s.actors = make(map[string]*gameActor)
	s.mu.Unlock()

	for _, a := range actors {
		a.stop()
	}
}

// CreateGame validates the request, stores the game and starts its actor
func (s *gameServiceImpl) CreateGame(ctx context.Context, req CreateGameRequest) (*GameInfo, error) {
	if req.Preset != "" {
		if s.presets == nil {
			return nil, reject(ActionCreate, "", fmt.Errorf("%w: presets are not available", ErrInvalidGameRequest))
		}
		preset, err := s.presets.Preset(req.Preset)
		if err != nil {
			return nil, reject(ActionCreate, "", fmt.Errorf("%w: %v", ErrInvalidGameRequest, err))
		}
		if req.BoardSize == 0 {
			req.BoardSize = preset.BoardSize
		}
		if req.PlayerCount == 0 {
			req.PlayerCount = preset.PlayerCount
		}
		if req.ShowProgress == nil {
			show := preset.ShowProgress
			req.ShowProgress = &show
		}
	}

	name := strings.TrimSpace(req.Name)
	switch {
	case name == "" || len([]rune(name)) > maxGameNameLength:
		return nil, reject(ActionCreate, "", fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidGameRequest, maxGameNameLength))
	case req.BoardSize < engine.MinBoardSize || req.BoardSize > engine.MaxBoardSize:
		return nil, reject(ActionCreate, "", fmt.Errorf("%w: board size must be %d-%d", ErrInvalidGameRequest, engine.MinBoardSize, engine.MaxBoardSize))
	case req.PlayerCount < engine.MinPlayers || req.PlayerCount > engine.MaxPlayers:
		return nil, reject(ActionCreate, "", fmt.Errorf("%w: player count must be %d-%d", ErrInvalidGameRequest, engine.MinPlayers, engine.MaxPlayers))
	}
	if req.AdminID != "" {
		if _, err := uuid.Parse(req.AdminID); err != nil {
			return nil, reject(ActionCreate, "", fmt.Errorf("%w: admin id must be a UUID", ErrInvalidGameRequest))
		}
	}

	g := store.Game{
		ID:           uuid.NewString(),
		Name:         name,
		AdminID:      req.AdminID,
		BoardSize:    req.BoardSize,
		PlayerCount:  req.PlayerCount,
		ShowProgress: req.ShowProgress == nil || *req.ShowProgress,
		Status:       store.StatusCreated,
		CreatedAt:    s.now().UTC(),
		Pool:         s.newPool(),
	}
	if err := s.store.AddGame(g); err != nil {
		return nil, fmt.Errorf("failed to add game: %w", err)
	}
	s.startActor(g.ID)
	s.saveGame(g)

	log.Printf("[game] created %s %q (size %d, %d players)", g.ID, g.Name, g.BoardSize, g.PlayerCount)
	return gameInfo(g), nil
}

// ListGames returns every game, oldest first
func (s *gameServiceImpl) ListGames(ctx context.Context) ([]*GameInfo, error) {
	games := s.store.Games()
	out := make([]*GameInfo, 0, len(games))
	for _, g := range games {
		out = append(out, gameInfo(g))
	}
	return out, nil
}

// LobbyGame returns a game with its lobby players
func (s *gameServiceImpl) LobbyGame(ctx context.Context, gameID string) (*LobbyGame, error) {
	g, ok := s.store.Game(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	lobby, err := s.store.LobbyPlayers(gameID)
	if err != nil {
		return nil, ErrGameNotFound
	}
	return &LobbyGame{GameInfo: *gameInfo(g), LobbyPlayers: lobby}, nil
}

// BoardOf returns the placed cells and special corners of a game
func (s *gameServiceImpl) BoardOf(ctx context.Context, gameID string) (*BoardInfo, error) {
	g, ok := s.store.Game(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	cells, _ := s.store.Board(gameID)
	if cells == nil {
		cells = []engine.Cell{}
	}
	corners := engine.Corners(g.BoardSize)
	return &BoardInfo{
		GameID:    gameID,
		BoardSize: g.BoardSize,
		Cells:     cells,
		Corners:   corners[:],
	}, nil
}

// UpsertPlayer creates the player on first contact. A non-empty name
// renames an existing player.
func (s *gameServiceImpl) UpsertPlayer(ctx context.Context, playerID, name string) (*PlayerInfo, error) {
	if _, err := uuid.Parse(playerID); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlayerID, playerID)
	}
	name = strings.TrimSpace(name)
	if len([]rune(name)) > maxGameNameLength {
		return nil, fmt.Errorf("%w: name must be at most %d characters", ErrInvalidGameRequest, maxGameNameLength)
	}

	p, created := s.store.UpsertPlayer(playerID, func() string {
		if name != "" {
			return name
		}
		return s.names()
	})
	changed := created
	if !created && name != "" && name != p.Name {
		updated, err := s.store.UpdatePlayer(playerID, func(p *store.Player) error {
			p.Name = name
			return nil
		})
		if err != nil {
			return nil, err
		}
		p = updated
		changed = true
	}
	if changed {
		s.savePlayer(p)
	}
	if created {
		log.Printf("[game] new player %s %q", p.ID, p.Name)
	}
	return playerInfo(p, true), nil
}

// PlayerInfo returns the public view of a player
func (s *gameServiceImpl) PlayerInfo(ctx context.Context, playerID string) (*PlayerInfo, error) {
	p, ok := s.store.Player(playerID)
	if !ok {
		return nil, ErrPlayerNotFound
	}
	show := true
	if p.GameID != "" {
		if g, ok := s.store.Game(p.GameID); ok {
			show = g.ShowProgress
		}
	}
	return playerInfo(p, show), nil
}

// Join adds a player to a game lobby. A player still attached to a running
// game they are listed in is re-subscribed to its room and gets their hand
// again.
func (s *gameServiceImpl) Join(ctx context.Context, playerID, gameID string) error {
	return s.exec(ctx, ActionJoin, gameID, playerID, func() error {
		g, ok := s.store.Game(gameID)
		if !ok {
			return reject(ActionJoin, gameID, ErrGameNotFound)
		}
		if _, ok := s.store.Player(playerID); !ok {
			return reject(ActionJoin, gameID, ErrPlayerNotFound)
		}

		if g.HasPlayer(playerID) {
			if g.Status == store.StatusFinished {
				return reject(ActionJoin, gameID, ErrGameNotJoinable)
			}
			p, _ := s.store.Player(playerID)
			if p.GameID != gameID {
				if p.GameID != "" {
					return reject(ActionJoin, gameID, ErrAlreadyInGame)
				}
				return reject(ActionJoin, gameID, ErrGameNotJoinable)
			}
			s.hub.JoinRoom(gameID, playerID)
			if g.Status == store.StatusCreated {
				s.broadcastLobby(EventPlayerJoined, g, playerID)
				return nil
			}
			s.sendHand(gameID, p)
			return nil
		}

		if g.Status != store.StatusCreated {
			return reject(ActionJoin, gameID, ErrGameNotJoinable)
		}
		if len(g.Players) >= g.PlayerCount {
			return reject(ActionJoin, gameID, ErrGameFull)
		}

		_, err := s.store.UpdatePlayer(playerID, func(p *store.Player) error {
			if p.GameID != "" && p.GameID != gameID {
				return ErrAlreadyInGame
			}
			p.GameID = gameID
			p.Ready = false
			p.Hand = engine.Hand{}
			p.MovesRemaining = 0
			p.Progress = engine.Progress{}
			return nil
		})
		if err != nil {
			return reject(ActionJoin, gameID, err)
		}

		g, err = s.store.UpdateGame(gameID, func(g *store.Game) error {
			g.Players = append(g.Players, playerID)
			return nil
		})
		if err != nil {
			return reject(ActionJoin, gameID, err)
		}

		s.hub.JoinRoom(gameID, playerID)
		s.broadcastLobby(EventPlayerJoined, g, playerID)
		log.Printf("[game] %s joined %s (%d/%d)", playerID, gameID, len(g.Players), g.PlayerCount)
		return nil
	})
}

// Leave removes a player from a game. The turn passes on if the leaver was
// moving, and a running game with nobody left finishes.
func (s *gameServiceImpl) Leave(ctx context.Context, playerID, gameID string) error {
	return s.exec(ctx, ActionLeave, gameID, playerID, func() error {
		g, ok := s.store.Game(gameID)
		if !ok {
			return reject(ActionLeave, gameID, ErrGameNotFound)
		}
		if !g.HasPlayer(playerID) {
			return reject(ActionLeave, gameID, ErrNotInGame)
		}

		remaining := slices.DeleteFunc(slices.Clone(g.Players), func(id string) bool { return id == playerID })
		moverLeft := g.Status == store.StatusInProgress && g.CurrentMover == playerID
		var newMover string
		if moverLeft {
			next := g
			next.Players = remaining
			newMover = s.nextMover(next, playerID, true)
		}

		g, err := s.store.UpdateGame(gameID, func(g *store.Game) error {
			g.Players = remaining
			if moverLeft {
				g.CurrentMover = newMover
			}
			return nil
		})
		if err != nil {
			return reject(ActionLeave, gameID, err)
		}

		s.store.UpdatePlayer(playerID, func(p *store.Player) error {
			if p.GameID == gameID {
				p.GameID = ""
			}
			p.Ready = false
			p.MovesRemaining = 0
			return nil
		})
		if newMover != "" {
			s.store.UpdatePlayer(newMover, func(p *store.Player) error {
				p.MovesRemaining = 1
				return nil
			})
		}

		s.broadcastLobby(EventPlayerLeft, g, playerID)
		s.hub.LeaveRoom(gameID, playerID)
		log.Printf("[game] %s left %s", playerID, gameID)

		if g.Status == store.StatusInProgress && (len(g.Players) == 0 || g.CurrentMover == "") {
			reason := "no_players"
			if len(g.Players) > 0 {
				reason = "no_pairs_left"
			}
			s.finish(g, reason)
		}
		return nil
	})
}

// ChangeReady sets a player's ready flag and starts the game once every
// joined player is ready.
func (s *gameServiceImpl) ChangeReady(ctx context.Context, playerID, gameID string, ready bool) error {
	return s.exec(ctx, ActionReady, gameID, playerID, func() error {
		g, ok := s.store.Game(gameID)
		if !ok {
			return reject(ActionReady, gameID, ErrGameNotFound)
		}
		if !g.HasPlayer(playerID) {
			return reject(ActionReady, gameID, ErrNotInGame)
		}
		if g.Status != store.StatusCreated {
			return reject(ActionReady, gameID, ErrGameNotJoinable)
		}

		if _, err := s.store.UpdatePlayer(playerID, func(p *store.Player) error {
			p.Ready = ready
			return nil
		}); err != nil {
			return reject(ActionReady, gameID, err)
		}

		lobby, err := s.store.LobbyPlayers(gameID)
		if err != nil {
			return reject(ActionReady, gameID, ErrGameNotFound)
		}
		s.hub.BroadcastToRoom(gameID, Event{Type: EventPlayerReady, Data: ReadyData{
			GameID:   gameID,
			PlayerID: playerID,
			Ready:    ready,
			Players:  lobby,
		}}, "")

		if len(lobby) < engine.MinPlayers {
			return nil
		}
		for _, lp := range lobby {
			if !lp.Ready {
				return nil
			}
		}
		s.start(g)
		return nil
	})
}

// start assigns the turn order, deals hands and announces the game
func (s *gameServiceImpl) start(g store.Game) {
	order := g.Pool.Shuffle(g.Players)

	hands := make([]store.Player, 0, len(order))
	for i, id := range order {
		p, err := s.store.UpdatePlayer(id, func(p *store.Player) error {
			p.Hand = engine.Hand{}
			p.Progress = engine.Progress{}
			p.MovesRemaining = 0
			if i == 0 {
				p.MovesRemaining = 1
			}
			if _, exhausted := p.Hand.Fill(g.Pool); exhausted {
				log.Printf("[game] pool exhausted while dealing to %s in %s", id, g.ID)
			}
			return nil
		})
		if err != nil {
			log.Printf("[game] failed to deal to %s: %v", id, err)
			continue
		}
		hands = append(hands, p)
	}

	g, err := s.store.UpdateGame(g.ID, func(g *store.Game) error {
		g.Status = store.StatusInProgress
		g.TurnOrder = order
		g.CurrentMover = order[0]
		return nil
	})
	if err != nil {
		log.Printf("[game] failed to start %s: %v", g.ID, err)
		return
	}

	for _, p := range hands {
		s.sendHand(g.ID, p)
	}
	s.hub.BroadcastToRoom(g.ID, Event{Type: EventGameStarted, Data: GameStartedData{
		GameID:        g.ID,
		TurnOrder:     order,
		BoardSize:     g.BoardSize,
		CurrentMover:  g.CurrentMover,
		PoolRemaining: g.Pool.Remaining(),
	}}, "")
	s.saveGame(g)
	log.Printf("[game] started %s, turn order %v", g.ID, order)
}

// Place applies one hex pair placement by the current mover
func (s *gameServiceImpl) Place(ctx context.Context, pl Placement) error {
	gameID, playerID := pl.GameID, pl.PlayerID
	return s.exec(ctx, ActionPlace, gameID, playerID, func() error {
		g, ok := s.store.Game(gameID)
		if !ok {
			return reject(ActionPlace, gameID, ErrGameNotFound)
		}
		if g.Status != store.StatusInProgress {
			return reject(ActionPlace, gameID, ErrGameNotInProgress)
		}
		if g.CurrentMover != playerID {
			return reject(ActionPlace, gameID, ErrNotYourTurn)
		}
		p, ok := s.store.Player(playerID)
		if !ok {
			return reject(ActionPlace, gameID, ErrPlayerNotFound)
		}
		pair, ok := p.Hand.Slot(pl.HexPairIndex)
		if !ok {
			return reject(ActionPlace, gameID, ErrEmptySlot)
		}
		if !pair.Matches(pl.Hex1.Color, pl.Hex2.Color) {
			return reject(ActionPlace, gameID, ErrColorMismatch)
		}

		board, _ := s.store.Board(gameID)
		cells := [2]engine.Cell{pl.Hex1, pl.Hex2}
		result := engine.ValidateAndScore(board, g.BoardSize, cells)
		if !result.Valid {
			return &Rejection{
				Action: ActionPlace,
				GameID: gameID,
				Reason: result.Reason,
				Err:    fmt.Errorf("%w: %s", ErrInvalidPlacement, result.Reason),
			}
		}
		if err := s.store.AppendCells(gameID, cells[:]...); err != nil {
			return &Rejection{Action: ActionPlace, GameID: gameID, Reason: engine.ReasonOccupied, Err: fmt.Errorf("%w: %v", ErrInvalidPlacement, err)}
		}

		var bonus int
		turnOver := false
		p, err := s.store.UpdatePlayer(playerID, func(p *store.Player) error {
			p.Hand[pl.HexPairIndex] = nil
			before := p.Progress
			p.Progress = p.Progress.Add(result.Gained)
			bonus = p.Progress.NewlyGenial(before)
			p.MovesRemaining += bonus - 1

			if p.MovesRemaining > 0 && p.Hand.Occupied() == 0 {
				p.Hand.Fill(g.Pool)
				if p.Hand.Occupied() == 0 {
					p.MovesRemaining = 0
				}
			}
			if p.MovesRemaining <= 0 {
				p.MovesRemaining = 0
				turnOver = true
				if _, exhausted := p.Hand.Fill(g.Pool); exhausted {
					log.Printf("[game] pool exhausted refilling %s in %s", playerID, gameID)
				}
			}
			return nil
		})
		if err != nil {
			log.Printf("[game] failed to update mover %s: %v", playerID, err)
			return err
		}

		finishReason := ""
		if p.Progress.AllGenial() {
			finishReason = "all_genial"
		} else if turnOver {
			next := s.nextMover(g, playerID, true)
			if next == "" {
				finishReason = "no_pairs_left"
			} else {
				g, _ = s.store.UpdateGame(gameID, func(g *store.Game) error {
					g.CurrentMover = next
					return nil
				})
				s.store.UpdatePlayer(next, func(p *store.Player) error {
					p.MovesRemaining = 1
					return nil
				})
			}
		}

		s.sendHand(gameID, p)
		s.hub.BroadcastToRoom(gameID, Event{Type: EventGameStatePerMove, Data: MoveData{
			GameID:         gameID,
			PlayerID:       playerID,
			BoardDelta:     cells[:],
			Gained:         result.Gained,
			MoverProgress:  p.Progress,
			MovesRemaining: p.MovesRemaining,
			BonusMoves:     bonus,
			CurrentMover:   g.CurrentMover,
			PoolRemaining:  g.Pool.Remaining(),
		}}, "")

		if finishReason != "" {
			s.finish(g, finishReason)
		}
		return nil
	})
}

// nextMover returns the next joined player after current in turn order.
// With needPairs set, players holding no hex pair are skipped. The current
// player is considered last. It returns "" when nobody qualifies.
func (s *gameServiceImpl) nextMover(g store.Game, current string, needPairs bool) string {
	n := len(g.TurnOrder)
	if n == 0 {
		return ""
	}
	start := slices.Index(g.TurnOrder, current)
	for i := 1; i <= n; i++ {
		id := g.TurnOrder[(start+i+n)%n]
		if !g.HasPlayer(id) {
			continue
		}
		if needPairs {
			p, ok := s.store.Player(id)
			if !ok || p.Hand.Occupied() == 0 {
				continue
			}
		}
		return id
	}
	return ""
}

// finish ends the game, picks the winner and releases the players
func (s *gameServiceImpl) finish(g store.Game, reason string) {
	standings := make([]Standing, 0, len(g.Players))
	for _, id := range g.Players {
		p, ok := s.store.Player(id)
		if !ok {
			continue
		}
		standings = append(standings, Standing{
			PlayerID: p.ID,
			Name:     p.Name,
			Progress: p.Progress,
			Lowest:   slices.Min(p.Progress[:]),
		})
	}
	rankStandings(standings)

	winner := ""
	if len(standings) > 0 {
		winner = standings[0].PlayerID
	}

	g, err := s.store.UpdateGame(g.ID, func(g *store.Game) error {
		g.Status = store.StatusFinished
		g.CurrentMover = ""
		g.Winner = winner
		return nil
	})
	if err != nil {
		log.Printf("[game] failed to finish %s: %v", g.ID, err)
		return
	}
	for _, id := range g.Players {
		s.store.UpdatePlayer(id, func(p *store.Player) error {
			if p.GameID == g.ID {
				p.GameID = ""
			}
			p.Ready = false
			p.MovesRemaining = 0
			return nil
		})
	}

	s.hub.BroadcastToRoom(g.ID, Event{Type: EventGameFinished, Data: FinishedData{
		GameID:    g.ID,
		Winner:    winner,
		Reason:    reason,
		Standings: standings,
	}}, "")
	for _, id := range g.Players {
		s.hub.LeaveRoom(g.ID, id)
	}
	s.saveGame(g)
	log.Printf("[game] finished %s (%s), winner %q", g.ID, reason, winner)
}

// rankStandings orders players by their lowest color, then the next
// lowest, and so on
func rankStandings(standings []Standing) {
	sorted := func(p engine.Progress) []int {
		v := p[:]
		out := slices.Clone(v)
		slices.Sort(out)
		return out
	}
	slices.SortStableFunc(standings, func(a, b Standing) int {
		return slices.Compare(sorted(b.Progress), sorted(a.Progress))
	})
}

func (s *gameServiceImpl) broadcastLobby(eventType string, g store.Game, playerID string) {
	lobby, err := s.store.LobbyPlayers(g.ID)
	if err != nil {
		log.Printf("[game] lobby lookup failed for %s: %v", g.ID, err)
		return
	}
	s.hub.BroadcastToRoom(g.ID, Event{Type: eventType, Data: LobbyData{
		GameID:       g.ID,
		PlayerID:     playerID,
		Players:      lobby,
		CurrentMover: g.CurrentMover,
	}}, "")
}

func (s *gameServiceImpl) sendHand(gameID string, p store.Player) {
	s.hub.SendTo(p.ID, Event{Type: EventPlayerGameData, Data: HandData{
		GameID:         gameID,
		HexPairs:       p.Hand,
		MovesRemaining: p.MovesRemaining,
		Progress:       p.Progress,
	}})
}

func (s *gameServiceImpl) saveGame(g store.Game) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	err := s.persist.SaveGame(ctx, persistence.GameRecord{
		ID:           g.ID,
		Name:         g.Name,
		AdminID:      g.AdminID,
		BoardSize:    g.BoardSize,
		PlayerCount:  g.PlayerCount,
		ShowProgress: g.ShowProgress,
		Status:       string(g.Status),
		Winner:       g.Winner,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    s.now().UTC(),
	})
	if err != nil {
		log.Printf("[game] failed to save game %s: %v", g.ID, err)
	}
}

func (s *gameServiceImpl) savePlayer(p store.Player) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	err := s.persist.SavePlayer(ctx, persistence.PlayerRecord{
		ID:        p.ID,
		Name:      p.Name,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		log.Printf("[game] failed to save player %s: %v", p.ID, err)
	}
}
