package engine

import (
	"math/rand/v2"
	"sync"
)

// Source supplies the randomness used for draw and heuristic jitter.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// globalSource draws from the math/rand/v2 top-level generator, which is
// safe for concurrent use.
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

// lockedSource serializes access to a source that is not goroutine safe.
type lockedSource struct {
	mu  sync.Mutex
	src Source
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.IntN(n)
}

// NewSeededSource returns a reproducible source.
func NewSeededSource(seed uint64) Source {
	return &lockedSource{src: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

const drawJitter = 0.1

// drawScore returns a nonzero value with magnitude below drawJitter:
// negative when the human is to move, positive when the computer is.
func drawScore(src Source, side Perspective) float64 {
	u := src.Float64()
	if u == 0 {
		u = 0.5
	}
	if side == Human {
		return -u * drawJitter
	}
	return u * drawJitter
}
