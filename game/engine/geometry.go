package engine

// Directions are the six unit steps between neighbouring hexes
var Directions = [6]Point{
	{X: -1, Y: 0},
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: -1, Y: 1},
	{X: 0, Y: 1},
	{X: 1, Y: -1},
}

// cornerOffsets are unit vectors to the special corners, in canonical color order
var cornerOffsets = [ColorCount]Point{
	{X: -1, Y: 0}, // red
	{X: 0, Y: -1}, // blue
	{X: 1, Y: 0},  // green
	{X: -1, Y: 1}, // orange
	{X: 0, Y: 1},  // yellow
	{X: 1, Y: -1}, // violet
}

// Add returns the point shifted by d
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// InBounds reports whether p lies on a hex board of the given radius.
// Row y spans columns [-R-y, R] for y <= 0 and [-R, R-y] for y > 0.
func InBounds(p Point, radius int) bool {
	if radius < 0 {
		return false
	}
	if p.X < -radius || p.X > radius || p.Y < -radius || p.Y > radius {
		return false
	}
	sum := p.X + p.Y
	return sum >= -radius && sum <= radius
}

// RowRange returns the first and last column of row y
func RowRange(y, radius int) (first, last int) {
	if y <= 0 {
		return -radius - y, radius
	}
	return -radius, radius - y
}

// CellCount returns the number of hexes on a board of the given radius
func CellCount(radius int) int {
	if radius < 0 {
		return 0
	}
	return 3*radius*(radius+1) + 1
}

// Corners returns the six special corner cells for the radius
func Corners(radius int) [ColorCount]Cell {
	var out [ColorCount]Cell
	for i, off := range cornerOffsets {
		out[i] = Cell{X: off.X * radius, Y: off.Y * radius, Color: Colors[i]}
	}
	return out
}

// CornerAt returns the fixed color of the special corner at p, if any
func CornerAt(p Point, radius int) (Color, bool) {
	for _, c := range Corners(radius) {
		if c.X == p.X && c.Y == p.Y {
			return c.Color, true
		}
	}
	return "", false
}
