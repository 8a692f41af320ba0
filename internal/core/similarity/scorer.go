package similarity

import (
	"strings"

	"github.com/snipsd/snipsd/internal/core/model"
)

// Blend weights for content vs name similarity. These are engine constants,
// not configurable per call.
const (
	ContentWeight = 0.8
	NameWeight    = 0.2
)

// Score compares two snippets and returns their blended similarity.
// It is a pure function: no side effects, deterministic for identical inputs,
// and symmetric (Score(a, b).Weighted == Score(b, a).Weighted).
func Score(a, b model.Snippet) model.SimilarityScore {
	content := Ratio(a.Content, b.Content)
	name := Ratio(a.Name, b.Name)

	return model.SimilarityScore{
		RecordA:  a.ID,
		RecordB:  b.ID,
		Content:  content,
		Name:     name,
		Weighted: ContentWeight*content + NameWeight*name,
	}
}

// Ratio returns the normalized Levenshtein similarity of two strings in [0, 1]:
// (maxLen - distance) / maxLen over case-folded runes. Two empty strings are
// identical, so the ratio is 1.0 rather than a division by zero.
func Ratio(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}

	dist := levenshtein(ra, rb)
	return float64(maxLen-dist) / float64(maxLen)
}
