package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cory-johannsen/hockeysim/internal/game/roster"
	"github.com/cory-johannsen/hockeysim/internal/game/sim"
)

// writeReport renders a box score, the play-by-play, and the three stars.
func writeReport(w io.Writer, home, away *roster.Team, res sim.GameResult) error {
	var b strings.Builder

	suffix := ""
	switch {
	case res.ShootoutWinner != sim.SideNone:
		suffix = " (SO)"
	case res.OvertimeWinner != sim.SideNone:
		suffix = " (OT)"
	}
	fmt.Fprintf(&b, "FINAL%s: %s %d, %s %d\n", suffix, away.Name, res.AwayScore, home.Name, res.HomeScore)
	fmt.Fprintf(&b, "Strength: %s %.1f, %s %.1f\n\n", away.Name, res.AwayTeamStrength, home.Name, res.HomeTeamStrength)

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tP1\tP2\tP3\tT\tSOG")
	writeLine := func(name string, goals func(sim.PeriodResult) int, total, shots int) {
		fmt.Fprintf(tw, "%s", name)
		for _, p := range res.Periods {
			fmt.Fprintf(tw, "\t%d", goals(p))
		}
		fmt.Fprintf(tw, "\t%d\t%d\n", total, shots)
	}
	writeLine(away.Name, func(p sim.PeriodResult) int { return p.AwayGoals }, res.AwayScore, res.AwayShots)
	writeLine(home.Name, func(p sim.PeriodResult) int { return p.HomeGoals }, res.HomeScore, res.HomeShots)
	if err := tw.Flush(); err != nil {
		return err
	}

	b.WriteString("\nPlay-by-play\n")
	for _, e := range res.PlayByPlay {
		if e.Type == sim.EventPeriodStart || e.Type == sim.EventPeriodEnd {
			fmt.Fprintf(&b, "  -- %s --\n", e.Description)
			continue
		}
		fmt.Fprintf(&b, "  %s %5s  %s\n", periodLabel(e.Period), e.Time, e.Description)
	}

	b.WriteString("\nThree stars\n")
	for i, s := range res.Stars {
		fmt.Fprintf(&b, "  %d. %s (%s) %s, %.1f pts\n", i+1, s.Name, s.TeamID, s.Reason, s.Points)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func periodLabel(p int) string {
	switch p {
	case 4:
		return "OT"
	case 5:
		return "SO"
	default:
		return fmt.Sprintf("P%d", p)
	}
}
