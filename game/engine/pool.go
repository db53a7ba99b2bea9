package engine

import (
	"math/rand/v2"
	"sync"
)

// Adjacency maps each color to the two colors it is additionally paired with
type Adjacency map[Color][2]Color

// DefaultAdjacency pairs each color with its neighbours in the cyclic
// canonical order
func DefaultAdjacency() Adjacency {
	adj := make(Adjacency, ColorCount)
	for i, c := range Colors {
		prev := Colors[(i+ColorCount-1)%ColorCount]
		next := Colors[(i+1)%ColorCount]
		adj[c] = [2]Color{prev, next}
	}
	return adj
}

// Pool is a per-game multiset of hex pairs drawn without replacement
type Pool struct {
	mu        sync.Mutex
	remaining []HexPair
	size      int
	drawn     int
	rng       *rand.Rand
}

// PoolOption configures a Pool
type PoolOption func(*Pool)

// WithRand sets the random source used for draws
func WithRand(rng *rand.Rand) PoolOption {
	return func(p *Pool) {
		p.rng = rng
	}
}

// NewPool builds the full composition: every ordered pair of colors plus
// each color paired with its two adjacent colors
func NewPool(adjacency Adjacency, opts ...PoolOption) *Pool {
	pairs := Composition(adjacency)
	p := &Pool{
		remaining: pairs,
		size:      len(pairs),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p
}

// Composition returns the initial contents of a pool built from adjacency
func Composition(adjacency Adjacency) []HexPair {
	pairs := make([]HexPair, 0, ColorCount*ColorCount+2*ColorCount)
	for _, a := range Colors {
		for _, b := range Colors {
			pairs = append(pairs, HexPair{a, b})
		}
	}
	for _, c := range Colors {
		adj, ok := adjacency[c]
		if !ok {
			continue
		}
		pairs = append(pairs, HexPair{c, adj[0]}, HexPair{c, adj[1]})
	}
	return pairs
}

// TakeRandom removes and returns one uniformly chosen pair.
// It returns false once the pool is empty.
func (p *Pool) TakeRandom() (HexPair, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.remaining)
	if n == 0 {
		return HexPair{}, false
	}
	i := p.rng.IntN(n)
	pair := p.remaining[i]
	p.remaining[i] = p.remaining[n-1]
	p.remaining = p.remaining[:n-1]
	p.drawn++
	return pair, true
}

// Remaining returns the number of pairs left to draw
func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.remaining)
}

// Size returns the number of pairs the pool started with
func (p *Pool) Size() int {
	return p.size
}

// Drawn returns how many pairs have been taken
func (p *Pool) Drawn() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drawn
}

// Contents returns a copy of the pairs not yet drawn
func (p *Pool) Contents() []HexPair {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]HexPair, len(p.remaining))
	copy(out, p.remaining)
	return out
}

// Shuffle returns a uniformly random permutation of ids drawn from the
// pool's random source
func (p *Pool) Shuffle(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	p.mu.Lock()
	p.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	p.mu.Unlock()
	return out
}
