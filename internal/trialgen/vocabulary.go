package trialgen

import "github.com/aretw0/timbre/pkg/domain"

var semanticDescriptors = []string{
	"bright",
	"thick",
	"rough",
	"percussive",
	"clean",
	"complex",
	"sweet",
	"smooth",
	"warm",
	"raw",
	"big",
	"harsh",
	"metallic",
	"aggressive",
	"rich",
	"hard",
	"deep",
	"thin",
	"noisy",
	"plucky",
	"woody",
	"clear",
	"gritty",
	"dull",
	"mellow",
	"dark",
	"sharp",
}

// SemanticDescriptors returns the vocabulary in its canonical order.
func SemanticDescriptors() []string {
	return append([]string(nil), semanticDescriptors...)
}

// PracticeTrials returns the hand-authored practice set. The third pair is
// the only self-pair; it exercises the "rate identical sounds as zero" reminder.
func PracticeTrials() []domain.Trial {
	pairs := [][2]string{
		{"416ce07fc6375c188a73b743b6ec7b28.wav", "45510d0bf313673eb95ae4547f32f049.wav"},
		{"7b4f4e366c648bedfeb270531e71805e.wav", "80ae33835bc15702e2f8c350f181be62.wav"},
		{"db7408881411a2480563e3dfcfef327c.wav", "db7408881411a2480563e3dfcfef327c.wav"},
		{"80ae33835bc15702e2f8c350f181be62.wav", "0b8f117c39291bbb497e9d8b2b1119a3.wav"},
		{"5749dbf65a1757add060de9b9487f344.wav", "f33e90622b9b2ccde6c13f8341714dd0.wav"},
	}
	trials := make([]domain.Trial, len(pairs))
	for i, p := range pairs {
		trials[i] = domain.Trial{
			Left:        p[0],
			Right:       p[1],
			TrialNumber: i + 1,
			TotalTrials: len(pairs),
		}
	}
	return trials
}
