package sim

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/hockeysim/internal/game/random"
	"github.com/cory-johannsen/hockeysim/internal/game/roster"
)

const (
	baseShots       = 10
	shotSpread      = 6 // random(0..5)
	minShots        = 3
	penaltyChance   = 0.15
	hitChance       = 0.3
	hitCheckingGate = 60
	periodMinutes   = 20
)

var infractions = []string{
	"Tripping", "Hooking", "Slashing", "Roughing", "Interference", "High-sticking", "Holding",
}

// ShotVolume draws the number of shots t takes in one period.
//
// volume = 10 + floor((strength-50)/5) + random(0..5), scaled by
// (0.8 + offensiveStyle/100) when t has a strategy, floored, minimum 3.
// A team without skaters takes no shots and consumes no draws.
//
// Postcondition: Returns 0 for a skaterless team, otherwise >= 3.
func ShotVolume(t *roster.Team, strength float64, src random.Source) int {
	if len(t.Skaters()) == 0 {
		return 0
	}
	volume := float64(baseShots + int(math.Floor((strength-50)/5)) + random.Intn(src, shotSpread))
	if t.Strategy != nil {
		volume *= 0.8 + float64(t.Strategy.OffensiveStyle)/100
	}
	n := int(math.Floor(volume))
	if n < minShots {
		n = minShots
	}
	return n
}

// simulatePeriod plays regulation period n.
//
// Draw order: home volume, away volume, home shots, away shots, penalty roll,
// hit roll.
func (g *game) simulatePeriod(n int) PeriodResult {
	g.emit(Event{
		Time:        fmt.Sprintf("%d:00", periodMinutes),
		Period:      n,
		Type:        EventPeriodStart,
		Description: fmt.Sprintf("Period %d begins", n),
	})

	homeShots := ShotVolume(g.home.team, g.home.strength, g.src)
	awayShots := ShotVolume(g.away.team, g.away.strength, g.src)

	pr := PeriodResult{Period: n, HomeShots: homeShots, AwayShots: awayShots}
	for i := 0; i < homeShots; i++ {
		if g.resolveShot(g.home, n) {
			pr.HomeGoals++
		}
	}
	for i := 0; i < awayShots; i++ {
		if g.resolveShot(g.away, n) {
			pr.AwayGoals++
		}
	}

	g.rollPenalty(n)
	g.rollHit(n)

	g.emit(Event{
		Time:        "0:00",
		Period:      n,
		Type:        EventPeriodEnd,
		Description: fmt.Sprintf("End of period %d", n),
	})
	return pr
}

// pickSide draws which team an incidental event is considered for.
func (g *game) pickSide() *teamState {
	if random.Chance(g.src, 0.5) {
		return g.home
	}
	return g.away
}

// rollPenalty fires with probability 0.15. The candidate skater is penalized
// with probability 1 - discipline/100.
func (g *game) rollPenalty(period int) {
	if !random.Chance(g.src, penaltyChance) {
		return
	}
	ts := g.pickSide()
	if len(ts.skaters) == 0 {
		return
	}
	p := ts.skaters[random.Intn(g.src, len(ts.skaters))]
	trigger := 1 - float64(roster.RatingOf(p, roster.Discipline))/100
	if !random.Chance(g.src, trigger) {
		return
	}
	infraction := infractions[random.Intn(g.src, len(infractions))]
	g.line(p).Penalties++
	g.emit(Event{
		Time:        g.clockLabel(periodMinutes),
		Period:      period,
		Type:        EventPenalty,
		Description: fmt.Sprintf("PENALTY: %s (%s) - 2 minutes for %s", p.FullName(), ts.team.Name, infraction),
		PlayerID:    p.ID,
		TeamID:      ts.team.ID,
	})
}

// rollHit fires with probability 0.3 and lands only for skaters with
// checking above 60.
func (g *game) rollHit(period int) {
	if !random.Chance(g.src, hitChance) {
		return
	}
	ts := g.pickSide()
	if len(ts.skaters) == 0 {
		return
	}
	p := ts.skaters[random.Intn(g.src, len(ts.skaters))]
	if roster.RatingOf(p, roster.Checking) <= hitCheckingGate {
		return
	}
	g.line(p).Hits++
	g.emit(Event{
		Time:        g.clockLabel(periodMinutes),
		Period:      period,
		Type:        EventHit,
		Description: fmt.Sprintf("%s (%s) delivers a big hit!", p.FullName(), ts.team.Name),
		PlayerID:    p.ID,
		TeamID:      ts.team.ID,
	})
}
