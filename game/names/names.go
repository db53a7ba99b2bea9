// Package names generates default display names for new players.
package names

import (
	"math/rand/v2"
	"sync"
)

var adjectives = []string{
	"Amber", "Bold", "Brave", "Calm", "Clever", "Curious", "Eager", "Gentle",
	"Golden", "Happy", "Jolly", "Keen", "Lively", "Lucky", "Mellow", "Nimble",
	"Proud", "Quick", "Quiet", "Rapid", "Shy", "Silver", "Swift", "Witty",
}

var animals = []string{
	"Badger", "Crane", "Dolphin", "Falcon", "Ferret", "Fox", "Gecko", "Heron",
	"Ibis", "Jaguar", "Koala", "Lemur", "Lynx", "Marten", "Newt", "Otter",
	"Panda", "Puffin", "Quail", "Raven", "Seal", "Tapir", "Wombat", "Yak",
}

// Generator produces "Adjective Animal" names
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator. A nil rng uses a randomly seeded source.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{rng: rng}
}

// Generate returns a new display name
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return adjectives[g.rng.IntN(len(adjectives))] + " " + animals[g.rng.IntN(len(animals))]
}

var defaultGenerator = NewGenerator(nil)

// Generate returns a new display name from the package generator
func Generate() string {
	return defaultGenerator.Generate()
}
