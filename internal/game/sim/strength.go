package sim

import (
	"math"

	"github.com/cory-johannsen/hockeysim/internal/game/roster"
)

const (
	// MinStrength and MaxStrength bound every team strength.
	MinStrength = 30.0
	MaxStrength = 95.0

	baseStrength = 50.0
)

// positionWeights sum to 1. Goaltending carries the most weight.
var positionWeights = map[roster.Position]float64{
	roster.Goalie:    0.35,
	roster.Defense:   0.25,
	roster.Center:    0.15,
	roster.LeftWing:  0.125,
	roster.RightWing: 0.125,
}

// TeamStrength reduces a roster, its coach, and its strategy into one scalar.
//
// The base is the weighted mean of per-position average overallRating, where
// only positions present on the roster contribute weight. A coach scales the
// base by 0.9..1.1 and a strategy by 0.95..1.05.
//
// Precondition: t must be non-nil.
// Postcondition: Returns a value in [MinStrength, MaxStrength]. Deterministic.
func TeamStrength(t *roster.Team) float64 {
	strength := rosterStrength(t.Players)
	if c := t.Coach; c != nil {
		bonus := float64(c.OffenseSpecialty+c.DefenseSpecialty+c.LineManagement+c.Motivation) / 400
		strength *= 0.9 + bonus*0.2
	}
	if s := t.Strategy; s != nil {
		bonus := float64(s.OffensiveStyle+s.DefensivePressure+s.ForecheckIntensity) / 300
		strength *= 0.95 + bonus*0.1
	}
	return math.Min(MaxStrength, math.Max(MinStrength, strength))
}

func rosterStrength(players []*roster.Player) float64 {
	sums := make(map[roster.Position]float64, len(positionWeights))
	counts := make(map[roster.Position]int, len(positionWeights))
	for _, p := range players {
		sums[p.Position] += float64(roster.RatingOf(p, roster.OverallRating))
		counts[p.Position]++
	}

	var weighted, weight float64
	// Fixed iteration order keeps the float sum reproducible.
	for _, pos := range roster.Positions {
		n := counts[pos]
		if n == 0 {
			continue
		}
		w := positionWeights[pos]
		weighted += sums[pos] / float64(n) * w
		weight += w
	}
	if weight == 0 {
		return baseStrength
	}
	return weighted / weight
}
