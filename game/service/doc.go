// Package service provides the game lifecycle for Genial.
//
// The service package runs every game through three states:
//
//	created -> in_progress -> finished
//
// Players join a game lobby and mark themselves ready. Once every joined
// player (at least two) is ready, a single random permutation fixes the turn
// order, each player is dealt six hex pairs privately, and the first player
// in the order gets one move. Each placement consumes a move; every color
// that newly reaches the genial threshold grants one more. When a mover runs
// out of moves their hand is refilled and the turn passes round-robin,
// skipping players who left.
//
// A game finishes when the mover has all six colors genial, when no joined
// player holds a hex pair and the pool is empty, or when every player has
// left. The winner is the player whose lowest color is highest, ties broken
// by the next lowest color.
//
// Concurrency:
//
// Each game is owned by one goroutine. Join, Leave, ChangeReady and Place
// are queued to that goroutine, so a game's mutations and the broadcasts
// they cause happen in arrival order. Different games run independently.
//
// Errors:
//
// Rule violations are returned as *Rejection, which wraps one of the
// package's sentinel errors and is also sent to the acting player as a
// "rejected" event. A rejected action never changes state.
//
// Usage:
//
//	st := store.New()
//	svc := service.NewGameService(st, hub,
//		service.WithPersistence(db),
//		service.WithNameGenerator(names.Generate),
//	)
//	defer svc.Close()
//
//	info, err := svc.CreateGame(ctx, service.CreateGameRequest{
//		Name: "Friday night", BoardSize: 6, PlayerCount: 2,
//	})
package service
