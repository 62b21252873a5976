package services

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource is the injectable draw generator for the reward calculator.
// Production uses a process-wide seeded generator; tests swap in a seeded or
// fixed source to force outcomes.
type RandomSource interface {
	// IntN returns a uniform int in [0, n).
	IntN(n int) int
}

type processRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewProcessRandom() RandomSource {
	return &processRandom{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func NewSeededRandom(seed int64) RandomSource {
	return &processRandom{r: rand.New(rand.NewSource(seed))}
}

func (p *processRandom) IntN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r.Intn(n)
}
