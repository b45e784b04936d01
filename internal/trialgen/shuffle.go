package trialgen

import "math/rand/v2"

// Shuffle permutes list in place so that every permutation is equally likely
// (Fisher-Yates). For position i the swap index is drawn from [i, len(list)).
func Shuffle[T any](rng *rand.Rand, list []T) {
	n := len(list)
	for i := 0; i < n-1; i++ {
		j := i + rng.IntN(n-i)
		list[i], list[j] = list[j], list[i]
	}
}

// Shuffled returns a shuffled copy of list, leaving list untouched.
func Shuffled[T any](rng *rand.Rand, list []T) []T {
	out := append([]T(nil), list...)
	Shuffle(rng, out)
	return out
}
