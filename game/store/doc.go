// Package store holds the in-memory domain state: games, players and boards.
//
// Each top-level map and each entity is guarded by its own sync.RWMutex so
// readers of one game never block another. Entities are handed out as
// copies; mutation goes through UpdateGame and UpdatePlayer, which run a
// closure under the entity's write lock. No lock is held across I/O.
//
// Lock order, whenever more than one lock is held:
//
//	games map -> game -> players map -> player -> boards map -> board
package store
