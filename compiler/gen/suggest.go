package gen

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

const (
	// maxSuggestions bounds the candidates reported for a misspelled name.
	maxSuggestions = 3
	// maxDistance is the largest edit distance treated as a typo.
	maxDistance = 2
)

// candidates implements fuzzy.Source over lower-cased names.
type candidates []string

func (c candidates) String(i int) string { return c[i] }
func (c candidates) Len() int            { return len(c) }

// Suggest returns up to three names close to s, best first. Typos within a
// small edit distance rank before fuzzy subsequence matches, so "nubmer"
// suggests "number" and "rel" suggests "relation".
func Suggest(s string, names []string) []string {
	if s == "" || len(names) == 0 {
		return nil
	}
	target := strings.ToLower(s)
	lowered := make(candidates, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}
	type scored struct {
		name string
		dist int
	}
	var close []scored
	for i, n := range lowered {
		if d := levenshtein(target, n); d <= maxDistance && d < len(target) {
			close = append(close, scored{names[i], d})
		}
	}
	slices.SortStableFunc(close, func(a, b scored) int { return a.dist - b.dist })
	var out []string
	add := func(n string) {
		if len(out) < maxSuggestions && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	for _, c := range close {
		add(c.name)
	}
	for _, m := range fuzzy.FindFrom(target, lowered) {
		add(names[m.Index])
	}
	return out
}

// levenshtein returns the edit distance between a and b.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
