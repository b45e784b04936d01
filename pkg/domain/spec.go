package domain

// Trial is a single pairwise dissimilarity rating.
// Left and Right may name the same file (self-pair).
type Trial struct {
	Left        string `json:"left" yaml:"left" mapstructure:"left"`
	Right       string `json:"right" yaml:"right" mapstructure:"right"`
	TrialNumber int    `json:"trial_number" yaml:"trial_number" mapstructure:"trial_number"`
	TotalTrials int    `json:"total_trials" yaml:"total_trials" mapstructure:"total_trials"`
}

// IsSelfPair reports whether both sides present the same stimulus.
func (t Trial) IsSelfPair() bool {
	return t.Left == t.Right
}

// SemanticTrial rates one file against one descriptor.
type SemanticTrial struct {
	File        string `json:"file" yaml:"file" mapstructure:"file"`
	Descriptor  string `json:"descriptor" yaml:"descriptor" mapstructure:"descriptor"`
	TrialNumber int    `json:"trial_number" yaml:"trial_number" mapstructure:"trial_number"`
	TotalTrials int    `json:"total_trials" yaml:"total_trials" mapstructure:"total_trials"`
}

// ExperimentSpec is the randomized definition of one session.
// It is created once and must not be mutated afterwards; builders copy the
// slices they need before numbering trials.
type ExperimentSpec struct {
	SpecID              string   `json:"specId"`
	Files               []string `json:"files"`
	Trials              []Trial  `json:"trials"`
	PracticeTrials      []Trial  `json:"practiceTrials"`
	SemanticDescriptors []string `json:"semanticDescriptors"`
}

// NumSemantic is the size of the descriptor x file cross product.
func (s *ExperimentSpec) NumSemantic() int {
	return len(s.Files) * len(s.SemanticDescriptors)
}
