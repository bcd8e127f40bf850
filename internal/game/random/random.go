// Package random provides the randomness abstraction consumed by the game
// simulator. Every probabilistic decision draws from an explicitly passed
// Source so a whole game can be replayed from a seed.
package random

import "math"

// Source yields uniformly distributed floats.
//
// *math/rand/v2.Rand satisfies Source.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// Intn returns a uniformly distributed int in [0, n) drawn from src.
//
// Precondition: n > 0; src must be non-nil.
// Postcondition: Consumes exactly one draw from src.
func Intn(src Source, n int) int {
	if n <= 0 {
		panic("random: Intn called with n <= 0")
	}
	v := int(math.Floor(src.Float64() * float64(n)))
	// Guards against a misbehaving Source returning exactly 1.0.
	if v >= n {
		v = n - 1
	}
	return v
}

// Chance reports whether a single draw from src falls below p.
//
// Postcondition: Consumes exactly one draw from src.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}
