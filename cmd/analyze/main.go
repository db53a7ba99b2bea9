// Command analyze prints quick, human-readable numbers about game presets:
// board size in hexes, how much of the board the hex pair pool can cover,
// how many pairs are dealt at the start and how colors are spread over the
// pool. Presets are read from the directory given as the first argument
// (default "presets") on top of the built-in ones.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/wricardo/genial/game/config"
	"github.com/wricardo/genial/game/engine"
)

// Analysis holds the numbers reported for one preset
type Analysis struct {
	Name          string
	BoardSize     int
	Players       int
	Cells         int
	PoolPairs     int
	PairsToFill   int
	DealtAtStart  int
	PoolAfterDeal int
	Coverage      float64
	ColorHexes    map[engine.Color]int
}

func main() {
	dir := "presets"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	manager, err := config.NewManager(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading presets: %v\n", err)
		os.Exit(1)
	}

	for _, preset := range manager.List() {
		fmt.Printf("\n=== Analyzing %s ===\n", preset.Name)
		report(os.Stdout, analyze(preset))
	}
}

func analyze(p config.Preset) Analysis {
	pool := engine.Composition(engine.DefaultAdjacency())

	a := Analysis{
		Name:       p.Name,
		BoardSize:  p.BoardSize,
		Players:    p.PlayerCount,
		Cells:      engine.CellCount(p.BoardSize),
		PoolPairs:  len(pool),
		ColorHexes: make(map[engine.Color]int, engine.ColorCount),
	}
	a.PairsToFill = a.Cells / 2
	a.DealtAtStart = min(a.Players*engine.HandSize, a.PoolPairs)
	a.PoolAfterDeal = a.PoolPairs - a.DealtAtStart
	if a.Cells > 0 {
		a.Coverage = float64(2*a.PoolPairs) / float64(a.Cells)
	}

	for _, pair := range pool {
		a.ColorHexes[pair[0]]++
		a.ColorHexes[pair[1]]++
	}
	return a
}

func report(w io.Writer, a Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Board radius: %d (%d hexes)\n", a.BoardSize, a.Cells)
	fmt.Fprintf(w, "Players: %d\n", a.Players)
	fmt.Fprintf(w, "Pool: %d pairs, %d dealt at start, %d left to draw\n", a.PoolPairs, a.DealtAtStart, a.PoolAfterDeal)
	fmt.Fprintf(w, "Pairs to fill the board: %d\n", a.PairsToFill)
	fmt.Fprintf(w, "Pool covers %.0f%% of the board\n", a.Coverage*100)

	fmt.Fprint(w, "Hexes per color:")
	for _, c := range engine.Colors {
		fmt.Fprintf(w, " %s=%d", c, a.ColorHexes[c])
	}
	fmt.Fprintln(w)

	if a.Coverage < 1 {
		fmt.Fprintf(w, "Note: the board cannot fill up; the game ends when hands run dry\n")
	}
}
