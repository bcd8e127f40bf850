package random

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// NewSeeded returns a deterministic PCG-backed Source.
// The same (seed, stream) pair always yields the same sequence.
//
// The returned Source is not safe for concurrent use; construct one per
// simulation.
func NewSeeded(seed, stream uint64) Source {
	return mrand.New(mrand.NewPCG(seed, stream))
}

// cryptoSource implements Source using crypto/rand.
//
// Invariant: Safe for concurrent use.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Float64 returns a cryptographically secure value in [0, 1).
// Panics with "random: crypto/rand failure: <err>" if crypto/rand fails.
func (cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("random: crypto/rand failure: " + err.Error())
	}
	// 53 random bits mapped onto [0, 1).
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) / (1 << 53)
}

// Sequence replays a fixed list of values, cycling when exhausted.
// Intended for tests that need to steer individual decisions.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence returns a Sequence over values.
//
// Precondition: len(values) > 0; every value must be in [0, 1).
func NewSequence(values ...float64) *Sequence {
	if len(values) == 0 {
		panic("random: NewSequence requires at least one value")
	}
	return &Sequence{values: values}
}

// Float64 returns the next value in the sequence.
func (s *Sequence) Float64() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Draws returns how many values have been consumed.
func (s *Sequence) Draws() int { return s.next }
