package orchestrator

import "golang.org/x/exp/constraints"

// MinBy returns the first element with the smallest key. slice must not be
// empty.
func MinBy[T any, K constraints.Ordered](slice []T, keyFunc func(T) K) T {
	best := slice[0]
	bestKey := keyFunc(best)
	for _, v := range slice[1:] {
		if k := keyFunc(v); k < bestKey {
			best, bestKey = v, k
		}
	}
	return best
}
