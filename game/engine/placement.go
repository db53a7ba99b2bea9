package engine

// Rejection reasons reported by ValidateAndScore
const (
	ReasonOutOfBounds = "out_of_bounds"
	ReasonOccupied    = "occupied"
	ReasonCornerColor = "corner_color"
	ReasonBadColor    = "invalid_color"
)

// Result is the outcome of validating and scoring a placement
type Result struct {
	Valid  bool     `json:"valid"`
	Reason string   `json:"reason,omitempty"`
	Cell   *Point   `json:"cell,omitempty"`
	Gained Progress `json:"gained"`
}

// ValidateAndScore checks a candidate pair against the board and, if it is
// legal, computes the progress it earns. The board is not modified.
func ValidateAndScore(board []Cell, radius int, pair [2]Cell) Result {
	occupied := make(map[Point]Color, len(board)+ColorCount)
	for _, c := range board {
		occupied[c.Point()] = c.Color
	}

	if pair[0].Point() == pair[1].Point() {
		p := pair[1].Point()
		return Result{Reason: ReasonOccupied, Cell: &p}
	}

	// Each check runs over both cells before the next one.
	for _, c := range pair {
		if !c.Color.Valid() {
			p := c.Point()
			return Result{Reason: ReasonBadColor, Cell: &p}
		}
	}
	for _, c := range pair {
		if !InBounds(c.Point(), radius) {
			p := c.Point()
			return Result{Reason: ReasonOutOfBounds, Cell: &p}
		}
	}
	for _, c := range pair {
		if _, taken := occupied[c.Point()]; taken {
			p := c.Point()
			return Result{Reason: ReasonOccupied, Cell: &p}
		}
	}
	for _, c := range pair {
		if color, ok := CornerAt(c.Point(), radius); ok && color != c.Color {
			p := c.Point()
			return Result{Reason: ReasonCornerColor, Cell: &p}
		}
	}

	// Corners take part in scoring as pre-placed cells.
	for _, c := range Corners(radius) {
		occupied[c.Point()] = c.Color
	}

	var gained Progress
	for _, c := range pair {
		idx := c.Color.Index()
		for _, dir := range Directions {
			next := c.Point().Add(dir)
			for {
				color, ok := occupied[next]
				if !ok || color != c.Color {
					break
				}
				gained[idx]++
				next = next.Add(dir)
			}
		}
	}

	return Result{Valid: true, Gained: gained}
}
