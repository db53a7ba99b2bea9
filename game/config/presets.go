package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/genial/game/engine"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Preset is a named set of game options
type Preset struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	BoardSize    int    `json:"board_size"`
	PlayerCount  int    `json:"player_count"`
	ShowProgress bool   `json:"show_progress"`
}

// Validate checks the preset against the game limits
func (p *Preset) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.BoardSize < engine.MinBoardSize || p.BoardSize > engine.MaxBoardSize {
		return fmt.Errorf("board size %d not in [%d,%d]", p.BoardSize, engine.MinBoardSize, engine.MaxBoardSize)
	}
	if p.PlayerCount < engine.MinPlayers || p.PlayerCount > engine.MaxPlayers {
		return fmt.Errorf("player count %d not in [%d,%d]", p.PlayerCount, engine.MinPlayers, engine.MaxPlayers)
	}
	return nil
}

var builtinPresets = []Preset{
	{Name: "classic", Description: "Standard board for two players", BoardSize: 6, PlayerCount: 2, ShowProgress: true},
	{Name: "trio", Description: "Medium board for three players", BoardSize: 7, PlayerCount: 3, ShowProgress: true},
	{Name: "full", Description: "Large board for four players", BoardSize: 8, PlayerCount: 4, ShowProgress: false},
}

// Manager loads presets from a directory of JSON files on top of the
// built-in ones
type Manager struct {
	dir     string
	presets map[string]*Preset
	mu      sync.RWMutex
}

// NewManager creates a preset manager. A missing directory is not an error.
func NewManager(dir string) (*Manager, error) {
	m := &Manager{
		dir:     dir,
		presets: make(map[string]*Preset),
	}
	if err := m.Refresh(); err != nil {
		return nil, err
	}
	return m, nil
}

// Refresh reloads built-in presets and every *.json file in the directory
func (m *Manager) Refresh() error {
	presets := make(map[string]*Preset, len(builtinPresets))
	for i := range builtinPresets {
		p := builtinPresets[i]
		presets[p.Name] = &p
	}

	if m.dir != "" {
		entries, err := os.ReadDir(m.dir)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to read presets directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			p, err := readPreset(filepath.Join(m.dir, entry.Name()))
			if err != nil {
				return fmt.Errorf("%s: %w", entry.Name(), err)
			}
			presets[p.Name] = p
		}
	}

	m.mu.Lock()
	m.presets = presets
	m.mu.Unlock()
	return nil
}

func readPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}
	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &p, nil
}

// Preset returns a copy of the named preset
func (m *Manager) Preset(name string) (Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	return *p, nil
}

// List returns all presets sorted by name
func (m *Manager) List() []Preset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Preset, 0, len(m.presets))
	for _, p := range m.presets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Save validates a preset and writes it to the presets directory
func (m *Manager) Save(p Preset) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if m.dir == "" {
		return errors.New("no presets directory configured")
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return fmt.Errorf("failed to create presets directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.dir, p.Name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	m.mu.Lock()
	m.presets[p.Name] = &p
	m.mu.Unlock()
	return nil
}
