// Package dedup decides whether a proposed topic or title is too close to
// content already produced for a site.
package dedup

import "strings"

// Similarity returns the Jaccard similarity of the lowercase whitespace-split
// word sets of a and b. Two empty inputs score 0, not 1.
func Similarity(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)

	var intersection int
	for w := range wa {
		if _, ok := wb[w]; ok {
			intersection++
		}
	}

	union := len(wa) + len(wb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
