// Package engine provides the core game rules for Genial.
//
// The engine package implements:
//   - Hexagonal board geometry in axial coordinates
//   - Special corners and the six unit directions
//   - Placement validation and progress scoring
//   - Per-color progress with the genial threshold
//   - The randomized draw pool of hex pairs
//
// Core Types:
//
// A Cell is a colored hex at an axial coordinate. A HexPair is two colors
// drawn together and placed on two cells. A Hand holds up to six hex pairs.
// Progress tracks one counter per color, clamped to [0, GenialProgress].
//
// Usage:
//
//	pool := engine.NewPool(engine.DefaultAdjacency())
//	pair, ok := pool.TakeRandom()
//
//	result := engine.ValidateAndScore(board, 6, [2]engine.Cell{
//		{X: 0, Y: 0, Color: pair[0]},
//		{X: 1, Y: 0, Color: pair[1]},
//	})
//	if result.Valid {
//		progress = progress.Add(result.Gained)
//	}
//
// Game Rules:
//
// Players place hex pairs on empty cells of a hexagonal board. Each placed
// cell scores one point in its color for every consecutive same-colored cell
// in each of the six directions. The six special corners act as pre-placed
// cells of a fixed color. A color reaching GenialProgress grants one extra
// move in the current turn.
//
// All functions in this package are pure except Pool, which is safe for
// concurrent use.
package engine
