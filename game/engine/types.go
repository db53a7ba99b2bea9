package engine

import (
	"encoding/json"
	"fmt"
)

// Color represents one of the six tile colors
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Orange Color = "orange"
	Yellow Color = "yellow"
	Violet Color = "violet"

	// Validation constants
	MinBoardSize   = 6
	MaxBoardSize   = 8
	MinPlayers     = 2
	MaxPlayers     = 4
	HandSize       = 6
	GenialProgress = 18
	ColorCount     = 6
)

// Colors lists every color in canonical order. Progress and special corners
// are indexed in this order.
var Colors = [ColorCount]Color{Red, Blue, Green, Orange, Yellow, Violet}

// Index returns the canonical position of the color, or -1 if unknown
func (c Color) Index() int {
	for i, color := range Colors {
		if color == c {
			return i
		}
	}
	return -1
}

// Valid reports whether c is one of the six colors
func (c Color) Valid() bool {
	return c.Index() >= 0
}

// Point represents axial x,y coordinates
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Cell represents a single colored hex on the board
type Cell struct {
	X     int   `json:"x"`
	Y     int   `json:"y"`
	Color Color `json:"color"`
}

// Point returns the coordinates of the cell
func (c Cell) Point() Point {
	return Point{X: c.X, Y: c.Y}
}

// HexPair represents two colors drawn and placed together
type HexPair [2]Color

// Matches reports whether the two colors equal the pair's colors in any order
func (p HexPair) Matches(a, b Color) bool {
	return (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a)
}

// Hand holds a player's hex pairs. A nil slot is empty.
type Hand [HandSize]*HexPair

// Occupied returns the number of non-empty slots
func (h Hand) Occupied() int {
	count := 0
	for _, slot := range h {
		if slot != nil {
			count++
		}
	}
	return count
}

// Slot returns the pair stored at index i
func (h Hand) Slot(i int) (HexPair, bool) {
	if i < 0 || i >= HandSize || h[i] == nil {
		return HexPair{}, false
	}
	return *h[i], true
}

// Clone returns a deep copy of the hand
func (h Hand) Clone() Hand {
	var out Hand
	for i, slot := range h {
		if slot != nil {
			pair := *slot
			out[i] = &pair
		}
	}
	return out
}

// Fill draws from the pool into every empty slot, in slot order. It returns
// the number of pairs drawn and whether the pool ran dry before the hand was
// full.
func (h *Hand) Fill(pool *Pool) (drawn int, exhausted bool) {
	for i := range h {
		if h[i] != nil {
			continue
		}
		pair, ok := pool.TakeRandom()
		if !ok {
			return drawn, true
		}
		h[i] = &pair
		drawn++
	}
	return drawn, false
}

// Progress holds one counter per color, indexed in canonical color order.
// It is encoded as a JSON object keyed by color name.
type Progress [ColorCount]int

// Get returns the progress of a single color
func (p Progress) Get(c Color) int {
	i := c.Index()
	if i < 0 {
		return 0
	}
	return p[i]
}

// Add returns p plus gained, each color clamped to [0, GenialProgress]
func (p Progress) Add(gained Progress) Progress {
	var out Progress
	for i := range p {
		out[i] = clamp(p[i]+gained[i], 0, GenialProgress)
	}
	return out
}

// Genial reports whether the color has reached the genial threshold
func (p Progress) Genial(c Color) bool {
	return p.Get(c) >= GenialProgress
}

// NewlyGenial counts colors that are genial in p but were not in before
func (p Progress) NewlyGenial(before Progress) int {
	count := 0
	for i := range p {
		if p[i] >= GenialProgress && before[i] < GenialProgress {
			count++
		}
	}
	return count
}

// AllGenial reports whether every color has reached the threshold
func (p Progress) AllGenial() bool {
	for _, v := range p {
		if v < GenialProgress {
			return false
		}
	}
	return true
}

// Total returns the sum over all colors
func (p Progress) Total() int {
	total := 0
	for _, v := range p {
		total += v
	}
	return total
}

// MarshalJSON encodes progress as {"red": n, ...}
func (p Progress) MarshalJSON() ([]byte, error) {
	m := make(map[Color]int, ColorCount)
	for i, c := range Colors {
		m[c] = p[i]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes progress from {"red": n, ...}
func (p *Progress) UnmarshalJSON(data []byte) error {
	var m map[Color]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Progress
	for c, v := range m {
		i := c.Index()
		if i < 0 {
			return fmt.Errorf("unknown progress color %q", c)
		}
		out[i] = clamp(v, 0, GenialProgress)
	}
	*p = out
	return nil
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
