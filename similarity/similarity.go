// Package similarity scores how alike two strings are.
package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Score returns 1 - distance/maxLen, where distance is the unit-cost edit
// distance between a and b measured in runes. Two empty strings score 1.
// Comparison is case-sensitive.
func Score(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}
