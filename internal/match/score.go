package match

import (
	"strings"

	"github.com/ameztoy/crosstune/internal/providers"
)

// Weights holds the scorer's heuristic constants. Passing them in rather
// than hard-coding lets a provider variant or a test override single knobs.
type Weights struct {
	// TitleContains is awarded when the whole normalized track string is a
	// substring of the candidate title.
	TitleContains int
	// TokenHit is awarded per track token found in the candidate title,
	// capped at TokenMax, when TitleContains does not apply.
	TokenHit int
	TokenMax int
	// ArtistInTitle is awarded when the artist appears in the candidate
	// title itself.
	ArtistInTitle int
	// ArtistInArtists is awarded when the artist appears in the joined
	// candidate artist names.
	ArtistInArtists int
	// Penalty is subtracted per penalty word present in the candidate
	// title and absent from the track string.
	Penalty      int
	PenaltyWords []string
}

// DefaultWeights returns the standard scoring constants.
func DefaultWeights() Weights {
	return Weights{
		TitleContains:   55,
		TokenHit:        7,
		TokenMax:        35,
		ArtistInTitle:   20,
		ArtistInArtists: 20,
		Penalty:         8,
		PenaltyWords:    []string{"cover", "karaoke", "remix", "instrumental", "live"},
	}
}

// Score rates how well a destination candidate matches a (track, artist)
// pair. The result is clipped to [0,100]. Deterministic for identical
// inputs; case and whitespace variations do not change the result.
func (w Weights) Score(track, artist string, c providers.Candidate) int {
	query := normalize(track)
	title := normalize(c.Title)

	score := 0

	if query != "" && strings.Contains(title, query) {
		score += w.TitleContains
	} else {
		hits := 0
		for _, token := range Tokenize(query) {
			if strings.Contains(title, token) {
				hits++
			}
		}
		score += min(w.TokenMax, w.TokenHit*hits)
	}

	if a := normalize(artist); a != "" {
		if strings.Contains(title, a) {
			score += w.ArtistInTitle
		}
		if strings.Contains(normalize(c.JoinedArtists()), a) {
			score += w.ArtistInArtists
		}
	}

	// A deliberate search for "X Live" is not penalized: the word has to
	// be absent from the query for the deduction to apply.
	for _, word := range w.PenaltyWords {
		if strings.Contains(title, word) && !strings.Contains(query, word) {
			score -= w.Penalty
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
