package compose

import (
	"math/rand/v2"

	"github.com/aretw0/timbre/internal/trialgen"
	"github.com/aretw0/timbre/pkg/domain"
)

// Chunk partitions items into ceil(len/size) consecutive chunks of at most
// size elements, keeping the original order.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// NumberTrials renumbers trials 1..n with total n.
func NumberTrials(trials []domain.Trial) []domain.Trial {
	out := make([]domain.Trial, len(trials))
	for i, t := range trials {
		t.TrialNumber = i + 1
		t.TotalTrials = len(trials)
		out[i] = t
	}
	return out
}

// SemanticTrials crosses descriptors with files. Files are reshuffled for each
// descriptor; trial numbers run across the whole block.
func SemanticTrials(rng *rand.Rand, files, descriptors []string) []domain.SemanticTrial {
	total := len(files) * len(descriptors)
	trials := make([]domain.SemanticTrial, 0, total)
	for _, descriptor := range descriptors {
		for _, file := range trialgen.Shuffled(rng, files) {
			trials = append(trials, domain.SemanticTrial{
				File:        file,
				Descriptor:  descriptor,
				TrialNumber: len(trials) + 1,
				TotalTrials: total,
			})
		}
	}
	return trials
}
