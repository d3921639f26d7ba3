package reconcile

import (
	"github.com/agext/levenshtein"
)

// Similarity is the normalized edit-distance ratio of a and b scaled to 0-100.
func Similarity(a, b string) float64 {
	if a == b {
		return 100
	}
	return levenshtein.Similarity(a, b, nil) * 100
}
