package diff

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance is the largest edit distance (after normalization)
// still considered a plausible rename.
const maxSuggestDistance = 2

// nearestKey returns the expected key closest to key by edit distance,
// or "" when nothing is within maxSuggestDistance. Used to annotate
// extra-in-tool items that look like renamed canonical entries.
func nearestKey(key string, exp []entry) string {
	norm := normalizeKey(key)
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, e := range exp {
		d := levenshtein.ComputeDistance(norm, normalizeKey(e.key))
		if d < bestDist {
			bestDist = d
			best = e.key
		}
	}
	return best
}

// normalizeKey lowercases and strips separators so MicrosoftLearn,
// microsoft-learn, and microsoft_learn compare as the same name.
func normalizeKey(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || r == ' ' || r == '.' {
			return -1
		}
		return r
	}, s)
}
