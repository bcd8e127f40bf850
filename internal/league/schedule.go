package league

import "time"

// Fixture is one scheduled pairing.
type Fixture struct {
	HomeTeamID string
	AwayTeamID string
	At         time.Time
}

// RoundRobin pairs every team with every other team once, one round per day
// starting at start. With double set, a second cycle follows with home and
// away swapped. An odd team count gives one team a bye each round.
//
// Postcondition: Each unordered pair appears once (twice with double); no
// team plays twice in one round.
func RoundRobin(teamIDs []string, start time.Time, double bool) []Fixture {
	ids := append([]string(nil), teamIDs...)
	if len(ids) < 2 {
		return nil
	}
	if len(ids)%2 == 1 {
		ids = append(ids, "")
	}
	n := len(ids)
	rounds := n - 1

	var out []Fixture
	for r := 0; r < rounds; r++ {
		day := start.AddDate(0, 0, r)
		for i := 0; i < n/2; i++ {
			home, away := ids[i], ids[n-1-i]
			if home == "" || away == "" {
				continue
			}
			if (r+i)%2 == 1 {
				home, away = away, home
			}
			out = append(out, Fixture{HomeTeamID: home, AwayTeamID: away, At: day})
		}
		// circle method: keep ids[0] fixed, rotate the rest clockwise
		last := ids[n-1]
		copy(ids[2:], ids[1:n-1])
		ids[1] = last
	}

	if double {
		first := len(out)
		for i := 0; i < first; i++ {
			f := out[i]
			out = append(out, Fixture{
				HomeTeamID: f.AwayTeamID,
				AwayTeamID: f.HomeTeamID,
				At:         f.At.AddDate(0, 0, rounds),
			})
		}
	}
	return out
}
