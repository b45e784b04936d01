package trialgen_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/aretw0/timbre/internal/trialgen"
	"github.com/stretchr/testify/assert"
)

func TestShuffle_PreservesMultiset(t *testing.T) {
	rng := seeded(17)
	inputs := [][]int{
		nil,
		{1},
		{1, 1, 2},
		{5, 4, 3, 2, 1, 0},
		{7, 7, 7, 7},
	}
	for _, in := range inputs {
		list := append([]int(nil), in...)
		trialgen.Shuffle(rng, list)

		assert.Len(t, list, len(in))
		want := append([]int(nil), in...)
		sort.Ints(want)
		sort.Ints(list)
		if len(want) == 0 {
			assert.Empty(t, list)
			continue
		}
		assert.Equal(t, want, list)
	}
}

func TestShuffled_LeavesInputUntouched(t *testing.T) {
	in := []string{"a", "b", "c", "d"}
	out := trialgen.Shuffled(seeded(2), in)

	assert.Equal(t, []string{"a", "b", "c", "d"}, in)
	assert.ElementsMatch(t, in, out)
}

func TestShuffle_Uniform(t *testing.T) {
	const rounds = 60000
	rng := seeded(2024)
	counts := make(map[string]int)

	for i := 0; i < rounds; i++ {
		list := []string{"a", "b", "c"}
		trialgen.Shuffle(rng, list)
		counts[strings.Join(list, "")]++
	}

	assert.Len(t, counts, 6, "every permutation must occur")
	expected := rounds / 6
	for perm, n := range counts {
		// ~6 standard deviations for a binomial(60000, 1/6).
		assert.InDelta(t, expected, n, 600, "permutation %s", perm)
	}
}
