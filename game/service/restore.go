package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/wricardo/genial/game/store"
)

// Restore loads persisted players and games into the store. Games get a
// fresh pool and an empty lobby; games that were running are marked
// finished since their boards and hands are not persisted.
func (s *gameServiceImpl) Restore(ctx context.Context) error {
	players, err := s.persist.LoadPlayers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load players: %w", err)
	}
	for _, rec := range players {
		s.store.PutPlayer(store.Player{ID: rec.ID, Name: rec.Name})
	}

	games, err := s.persist.LoadGames(ctx)
	if err != nil {
		return fmt.Errorf("failed to load games: %w", err)
	}
	restored := 0
	for _, rec := range games {
		status := store.Status(rec.Status)
		if status != store.StatusCreated {
			status = store.StatusFinished
		}
		g := store.Game{
			ID:           rec.ID,
			Name:         rec.Name,
			AdminID:      rec.AdminID,
			BoardSize:    rec.BoardSize,
			PlayerCount:  rec.PlayerCount,
			ShowProgress: rec.ShowProgress,
			Status:       status,
			Winner:       rec.Winner,
			CreatedAt:    rec.CreatedAt,
			Pool:         s.newPool(),
		}
		if err := s.store.AddGame(g); err != nil {
			if errors.Is(err, store.ErrGameExists) {
				continue
			}
			return fmt.Errorf("failed to restore game %s: %w", rec.ID, err)
		}
		s.startActor(g.ID)
		restored++
	}

	log.Printf("[game] restored %d games and %d players", restored, len(players))
	return nil
}
