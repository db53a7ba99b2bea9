package names

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
)

func TestGenerateShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		name := Generate()
		parts := strings.Split(name, " ")
		if len(parts) != 2 {
			t.Fatalf("name %q should have two words", name)
		}
		if !slices.Contains(adjectives, parts[0]) || !slices.Contains(animals, parts[1]) {
			t.Fatalf("name %q uses unknown words", name)
		}
	}
}

func TestGeneratorDeterministicWithSeed(t *testing.T) {
	a := NewGenerator(rand.New(rand.NewPCG(7, 7)))
	b := NewGenerator(rand.New(rand.NewPCG(7, 7)))
	for i := 0; i < 10; i++ {
		if x, y := a.Generate(), b.Generate(); x != y {
			t.Fatalf("seeded generators diverged: %q vs %q", x, y)
		}
	}
}
