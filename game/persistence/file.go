package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore persists each record as a JSON file under games/ and players/
type FileStore struct {
	mu         sync.Mutex
	gamesDir   string
	playersDir string
}

// NewFileStore creates a file-based store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	fs := &FileStore{
		gamesDir:   filepath.Join(dir, "games"),
		playersDir: filepath.Join(dir, "players"),
	}
	for _, d := range []string{fs.gamesDir, fs.playersDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return fs, nil
}

// SaveGame writes a game to games/<id>.json
func (fs *FileStore) SaveGame(ctx context.Context, g GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.ID == "" {
		return fmt.Errorf("game id is required")
	}
	g.CreatedAt, g.UpdatedAt = stamp(g.CreatedAt, g.UpdatedAt)
	return fs.write(fs.gamesDir, g.ID, g)
}

// SavePlayer writes a player to players/<id>.json
func (fs *FileStore) SavePlayer(ctx context.Context, p PlayerRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	p.CreatedAt, p.UpdatedAt = stamp(p.CreatedAt, p.UpdatedAt)
	return fs.write(fs.playersDir, p.ID, p)
}

// LoadGames reads every game file, oldest first
func (fs *FileStore) LoadGames(ctx context.Context) ([]GameRecord, error) {
	var games []GameRecord
	err := fs.readAll(ctx, fs.gamesDir, func(data []byte) error {
		var g GameRecord
		if err := json.Unmarshal(data, &g); err != nil {
			return err
		}
		games = append(games, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})
	return games, nil
}

// LoadPlayers reads every player file
func (fs *FileStore) LoadPlayers(ctx context.Context) ([]PlayerRecord, error) {
	var players []PlayerRecord
	err := fs.readAll(ctx, fs.playersDir, func(data []byte) error {
		var p PlayerRecord
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		players = append(players, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

// Close is a no-op
func (fs *FileStore) Close() error {
	return nil
}

func (fs *FileStore) write(dir, id string, v any) error {
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid record id %q", id)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	// write then rename so readers never see a partial file
	path := filepath.Join(dir, id+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename record file: %w", err)
	}
	return nil
}

func (fs *FileStore) readAll(ctx context.Context, dir string, decode func([]byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read data directory: %w", err)
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read record file: %w", err)
		}
		if err := decode(data); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", entry.Name(), err)
		}
	}
	return nil
}
