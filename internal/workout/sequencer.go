package workout

import "math/rand/v2"

// Rand is the randomness used for shuffling. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the runtime-seeded global generator.
var DefaultRand Rand = globalRand{}

// GenerateOrder returns every distinct id exactly once in a uniformly
// random order (Fisher-Yates). Duplicate ids are collapsed, keeping the
// first occurrence. An empty input yields an empty order.
func GenerateOrder(ids []string, rng Rand) []string {
	if rng == nil {
		rng = DefaultRand
	}

	seen := make(map[string]bool, len(ids))
	order := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
	}

	for i := len(order) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// OrderFor reuses a persisted order verbatim and generates one only when
// none exists.
func OrderFor(existing, ids []string, rng Rand) []string {
	if len(existing) > 0 {
		return existing
	}
	return GenerateOrder(ids, rng)
}
