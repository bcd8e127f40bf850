package sim

import (
	"fmt"
	"sort"
)

// StatLine accumulates one player's in-game statistics.
//
// Blocks, Takeaways and Giveaways are never produced by the current event
// model and stay zero; they are scored for richer event generators.
type StatLine struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	TeamID    string `json:"team_id"`
	Goals     int    `json:"goals"`
	Assists   int    `json:"assists"`
	Shots     int    `json:"shots"`
	Hits      int    `json:"hits"`
	Penalties int    `json:"penalties"`
	Blocks    int    `json:"blocks"`
	Takeaways int    `json:"takeaways"`
	Giveaways int    `json:"giveaways"`
}

// Points returns the stars-of-the-game score for the line.
func (s StatLine) Points() float64 {
	return float64(s.Goals)*5 +
		float64(s.Assists)*3 +
		float64(s.Shots)*0.5 +
		float64(s.Hits)*1 +
		float64(s.Blocks)*1.5 +
		float64(s.Takeaways)*2 -
		float64(s.Giveaways)*1.5 -
		float64(s.Penalties)*2
}

// MaxStars is the number of stars awarded per game.
const MaxStars = 3

// RankStars returns the top MaxStars lines by Points, descending.
// Ties keep input order (home roster, then away roster).
//
// Postcondition: len(result) <= MaxStars; result[i].Points >= result[i+1].Points.
func RankStars(lines []StatLine) []Star {
	ranked := make([]StatLine, len(lines))
	copy(ranked, lines)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Points() > ranked[j].Points()
	})
	if len(ranked) > MaxStars {
		ranked = ranked[:MaxStars]
	}
	stars := make([]Star, 0, len(ranked))
	for _, l := range ranked {
		stars = append(stars, Star{
			PlayerID: l.PlayerID,
			Name:     l.Name,
			TeamID:   l.TeamID,
			Points:   l.Points(),
			Reason:   fmt.Sprintf("%dG %dA", l.Goals, l.Assists),
		})
	}
	return stars
}
