package dedup

import (
	"math/rand"
	"time"
)

// DefaultMaxAttempts bounds how many duplicate picks are retried.
const DefaultMaxAttempts = 5

// Selection is the result of SelectNonDuplicate. Forced is set when the
// selected candidate was still flagged duplicate because no alternatives or
// attempts remained.
type Selection struct {
	Selected string
	Attempts int
	Forced   bool
}

// SelectNonDuplicate picks a random candidate and, while it is flagged
// duplicate, drops it from the pool and picks again. It gives up after
// maxAttempts re-picks or when the pool is down to one candidate, returning
// the current pick either way. Avoidance is best effort.
func SelectNonDuplicate(candidates []string, isDuplicate func(string) bool, maxAttempts int, rng *rand.Rand) Selection {
	if len(candidates) == 0 {
		return Selection{}
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	pool := append([]string(nil), candidates...)
	idx := rng.Intn(len(pool))
	selected := pool[idx]

	var attempts int
	for attempts < maxAttempts && len(pool) > 1 {
		if !isDuplicate(selected) {
			return Selection{Selected: selected, Attempts: attempts}
		}
		pool = removeAll(pool, selected)
		if len(pool) == 0 {
			// Every remaining candidate was this same string.
			return Selection{Selected: selected, Attempts: attempts, Forced: true}
		}
		selected = pool[rng.Intn(len(pool))]
		attempts++
	}

	return Selection{Selected: selected, Attempts: attempts, Forced: isDuplicate(selected)}
}

func removeAll(pool []string, s string) []string {
	out := pool[:0]
	for _, p := range pool {
		if p != s {
			out = append(out, p)
		}
	}
	return out
}
