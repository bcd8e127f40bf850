package sim

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/hockeysim/internal/game/random"
	"github.com/cory-johannsen/hockeysim/internal/game/roster"
)

const (
	overtimePeriod     = 4
	shootoutPeriod     = 5
	overtimeMinutes    = 5
	overtimeDecides    = 0.6
	overtimeBoost      = 1.1
	overtimeSpread     = 200
	shootoutSpread     = 400
	shootoutLineupSize = 3
)

// resolveTiebreak settles a tied regulation with 3-on-3 overtime and, when
// overtime does not decide it, a shootout.
//
// Postcondition: Exactly one of OvertimeWinner/ShootoutWinner is set and the
// winner's score is incremented by exactly one, iff regulation was tied.
func (g *game) resolveTiebreak() {
	if g.result.HomeScore != g.result.AwayScore {
		return
	}

	g.emit(Event{
		Time:        fmt.Sprintf("%d:00", overtimeMinutes),
		Period:      overtimePeriod,
		Type:        EventPeriodStart,
		Description: "Overtime begins (3-on-3)",
	})

	homeOT := g.home.strength * overtimeBoost
	awayOT := g.away.strength * overtimeBoost
	if random.Chance(g.src, overtimeDecides) {
		winner := g.away
		if random.Chance(g.src, 0.5+(homeOT-awayOT)/overtimeSpread) {
			winner = g.home
		}
		g.overtimeGoal(winner)
		return
	}
	g.shootout()
}

// overtimeGoal credits a uniformly chosen skater of winner. A skaterless
// winner still wins; the goal event then carries no player.
func (g *game) overtimeGoal(winner *teamState) {
	g.addGoal(winner.side)
	g.result.OvertimeWinner = winner.side

	ev := Event{
		Period:      overtimePeriod,
		Type:        EventGoal,
		Description: fmt.Sprintf("OVERTIME GOAL! %s wins it!", winner.team.Name),
		TeamID:      winner.team.ID,
	}
	if len(winner.skaters) > 0 {
		scorer := winner.skaters[random.Intn(g.src, len(winner.skaters))]
		g.line(scorer).Goals++
		ev.PlayerID = scorer.ID
		ev.Description = fmt.Sprintf("OVERTIME GOAL! %s (%s) wins it!", scorer.FullName(), winner.team.Name)
	}
	ev.Time = g.clockLabel(overtimeMinutes)
	g.emit(ev)
}

// shootout decides the game at team-strength level; the ranked shooters only
// name the deciding shooter. Shootout goals are not credited as player goals.
func (g *game) shootout() {
	homeLineup := shootoutLineup(g.home.skaters)
	awayLineup := shootoutLineup(g.away.skaters)
	g.emit(Event{
		Time:        "0:00",
		Period:      shootoutPeriod,
		Type:        EventShootoutStart,
		Description: fmt.Sprintf("Shootout begins: %s [%s] vs %s [%s]", g.home.team.Name, names(homeLineup), g.away.team.Name, names(awayLineup)),
	})

	winner, lineup := g.away, awayLineup
	if random.Chance(g.src, 0.5+(g.home.strength-g.away.strength)/shootoutSpread) {
		winner, lineup = g.home, homeLineup
	}
	g.addGoal(winner.side)
	g.result.ShootoutWinner = winner.side

	ev := Event{
		Time:        "0:00",
		Period:      shootoutPeriod,
		Type:        EventShootoutGoal,
		Description: fmt.Sprintf("%s wins the shootout!", winner.team.Name),
		TeamID:      winner.team.ID,
	}
	if len(lineup) > 0 {
		ev.PlayerID = lineup[0].ID
		ev.Description = fmt.Sprintf("%s scores the shootout winner for %s!", lineup[0].FullName(), winner.team.Name)
	}
	g.emit(ev)
}

func (g *game) addGoal(side Side) {
	if side == SideHome {
		g.result.HomeScore++
		return
	}
	g.result.AwayScore++
}

// shootoutLineup ranks skaters by shooting+poise, descending, keeping roster
// order on ties, and returns the top three.
func shootoutLineup(skaters []*roster.Player) []*roster.Player {
	ranked := make([]*roster.Player, len(skaters))
	copy(ranked, skaters)
	sort.SliceStable(ranked, func(i, j int) bool {
		return shootoutSkill(ranked[i]) > shootoutSkill(ranked[j])
	})
	if len(ranked) > shootoutLineupSize {
		ranked = ranked[:shootoutLineupSize]
	}
	return ranked
}

func shootoutSkill(p *roster.Player) int {
	return roster.RatingOf(p, roster.Shooting) + roster.RatingOf(p, roster.Poise)
}

func names(players []*roster.Player) string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.FullName())
	}
	return strings.Join(out, ", ")
}
