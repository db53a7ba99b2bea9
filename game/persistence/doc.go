// Package persistence stores game and player records between restarts.
//
// Two backends implement Persistence: SQLiteStore (modernc.org/sqlite,
// schema applied from embedded migrations) and FileStore (one JSON file per
// record). Nop is used when storage is disabled.
//
// Only lobby-level data is stored. Boards, hands and draw pools live in
// memory; games that were running when the process stopped are restored
// as finished.
package persistence
