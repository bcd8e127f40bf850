package roster

// DefaultRating is substituted for any rating a player does not carry.
const DefaultRating = 50

// RatingOf returns p's rating for attr, or DefaultRating when absent.
// Every rating read in the simulator goes through this accessor.
func RatingOf(p *Player, attr Attribute) int {
	return RatingOr(p, attr, DefaultRating)
}

// RatingOr returns p's rating for attr, or def when p is nil or the rating is absent.
func RatingOr(p *Player, attr Attribute, def int) int {
	if p == nil || p.Ratings == nil {
		return def
	}
	v, ok := p.Ratings[attr]
	if !ok {
		return def
	}
	return v
}
