package id

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"
)

// Generator implements core.CodeGenerator using base62 random strings.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator creates a generator seeded from the clock.
func NewGenerator() *Generator {
	seed := uint64(time.Now().UnixNano())
	return NewSeededGenerator(seed, seed>>1^0x9e3779b97f4a7c15)
}

// NewSeededGenerator creates a deterministic generator, useful in tests.
func NewSeededGenerator(seed1, seed2 uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed1, seed2))}
}

// NewCode generates a new random code of the given length (default 6 if <=0).
func (g *Generator) NewCode(length int) string {
	if length <= 0 {
		length = core.DefaultCodeLength
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return RandomBase62(g.rnd, length)
}

// Ensure *Generator satisfies the interface at compile-time.
var _ core.CodeGenerator = (*Generator)(nil)
