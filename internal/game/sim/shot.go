package sim

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/hockeysim/internal/game/random"
	"github.com/cory-johannsen/hockeysim/internal/game/roster"
)

const (
	baseShootingPct = 0.08
	clutchPeriod    = 3
	assistChance    = 0.8
	secondAssist    = 0.6
)

// ShootingPercentage returns the goal probability for one shot by shooter.
//
// skill = (shooting+puckControl)/2; base = 0.08 + (skill-50)/1000; in period 3
// the result is scaled by poise/100; finally scaled by strength/75.
// The value is not clamped to [0, 1]; extreme ratings may push
// it outside that range.
func ShootingPercentage(shooter *roster.Player, period int, strength float64) float64 {
	skill := float64(roster.RatingOf(shooter, roster.Shooting)+roster.RatingOf(shooter, roster.PuckControl)) / 2
	modifier := 1.0
	if period == clutchPeriod {
		modifier = float64(roster.RatingOf(shooter, roster.Poise)) / 100
	}
	base := baseShootingPct + (skill-50)/1000
	return base * modifier * (strength / 75)
}

// resolveShot attributes one shot to a uniformly chosen skater and reports
// whether it scored.
//
// Draw order: shooter, goal roll, then on a goal: assist roll, second-assist
// roll (only if assisted), one draw per assister, clock minutes, clock seconds.
func (g *game) resolveShot(ts *teamState, period int) bool {
	if len(ts.skaters) == 0 {
		return false
	}
	shooter := ts.skaters[random.Intn(g.src, len(ts.skaters))]
	g.line(shooter).Shots++

	pct := ShootingPercentage(shooter, period, ts.strength)
	if !random.Chance(g.src, pct) {
		return false
	}
	g.line(shooter).Goals++

	assisters := g.pickAssisters(ts.skaters, shooter)
	assistIDs := make([]string, 0, len(assisters))
	names := make([]string, 0, len(assisters))
	for _, a := range assisters {
		g.line(a).Assists++
		assistIDs = append(assistIDs, a.ID)
		names = append(names, a.FullName())
	}
	assistText := "(Unassisted)"
	if len(names) > 0 {
		assistText = "Assists: " + strings.Join(names, ", ")
	}

	g.emit(Event{
		Time:        g.clockLabel(periodMinutes),
		Period:      period,
		Type:        EventGoal,
		Description: fmt.Sprintf("GOAL! %s (%s) scores! %s", shooter.FullName(), ts.team.Name, assistText),
		PlayerID:    shooter.ID,
		TeamID:      ts.team.ID,
		AssistIDs:   assistIDs,
	})
	return true
}

// pickAssisters draws 0, 1, or 2 assisters without replacement from the
// skaters other than shooter: 80% at least one, then 60% a second.
func (g *game) pickAssisters(skaters []*roster.Player, shooter *roster.Player) []*roster.Player {
	count := 0
	if random.Chance(g.src, assistChance) {
		count = 1
		if random.Chance(g.src, secondAssist) {
			count = 2
		}
	}

	pool := make([]*roster.Player, 0, len(skaters))
	for _, p := range skaters {
		if p != shooter {
			pool = append(pool, p)
		}
	}
	var out []*roster.Player
	for i := 0; i < count && len(pool) > 0; i++ {
		idx := random.Intn(g.src, len(pool))
		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return out
}
