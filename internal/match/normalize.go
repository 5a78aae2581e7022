package match

import (
	"regexp"
	"strings"

	"github.com/ameztoy/crosstune/internal/shared"
)

// Parenthesized suffixes and --...-- markers usually carry remaster or
// edition metadata that pollutes the search string.
var titleNoiseRe = regexp.MustCompile(`\([^()]*\)|--.*?--`)

var tokenRe = regexp.MustCompile(`\W+`)

// CleanTitle strips parenthesized segments and --...-- markers from a track
// title and collapses the leftover whitespace. Case is preserved; callers
// normalize separately when comparing.
func CleanTitle(title string) string {
	cleaned := titleNoiseRe.ReplaceAllString(title, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

// Tokenize splits normalized text on non-word boundaries, dropping empty
// tokens.
func Tokenize(s string) []string {
	var tokens []string
	for _, tok := range tokenRe.Split(s, -1) {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// normalize is shorthand for the shared text normalization used throughout
// scoring.
func normalize(s string) string {
	return shared.NormalizeText(s)
}
