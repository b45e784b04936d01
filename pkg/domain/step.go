package domain

import "sync"

// StepKind tells the host which kind of interaction a Leaf needs.
type StepKind string

const (
	// StepText shows content and waits for a confirmation keypress.
	StepText StepKind = "text"
	// StepNotice shows content without a way to continue.
	StepNotice StepKind = "notice"
	// StepConsent asks for informed consent (yes/no).
	StepConsent StepKind = "consent"
	// StepHeadphoneCheck runs the external calibration and reports pass/fail.
	StepHeadphoneCheck StepKind = "headphone_check"
	// StepQuestionnaire collects the screening form.
	StepQuestionnaire StepKind = "questionnaire"
	// StepAudition lets the participant listen to every stimulus.
	StepAudition StepKind = "audition"
	// StepDissimilarity rates a pair of stimuli.
	StepDissimilarity StepKind = "dissimilarity"
	// StepSemantic rates one stimulus against a descriptor.
	StepSemantic StepKind = "semantic"
	// StepFeedback collects free-text feedback.
	StepFeedback StepKind = "feedback"
)

// Records reports whether a step of this kind contributes a ResponseRecord.
func (k StepKind) Records() bool {
	switch k {
	case StepConsent, StepHeadphoneCheck, StepQuestionnaire,
		StepDissimilarity, StepSemantic, StepFeedback:
		return true
	}
	return false
}

// Section groups leaves for progress accounting.
type Section string

const (
	SectionNone          Section = ""
	SectionWelcome       Section = "welcome"
	SectionHeadphones    Section = "headphones"
	SectionQuestionnaire Section = "questionnaire"
	SectionAudition      Section = "audition"
	SectionPractice      Section = "practice"
	SectionDissimilarity Section = "dissimilarity"
	SectionSemantic      Section = "semantic"
	SectionFeedback      Section = "feedback"
	SectionComplete      Section = "complete"
)

// Step is the scoped state of a running Leaf. The runtime creates it when the
// Leaf is entered and releases it when the Leaf ends; hosts attach their own
// per-step resources (playback, listeners) through Defer.
type Step struct {
	BlockID string
	Name    string
	Kind    StepKind
	Section Section
	Content string
	// Params is the Loop parameter this Leaf was materialized from
	// (Trial, SemanticTrial, []string of files) or nil.
	Params any

	mu       sync.Mutex
	cleanups []func()
	released bool
}

// Defer registers fn to run when the step is released.
// Registering on a released step runs fn immediately.
func (s *Step) Defer(fn func()) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
}

// Release runs registered cleanups in reverse order. It is idempotent.
func (s *Step) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	fns := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// Released reports whether Release has been called.
func (s *Step) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Response is the raw user input a host returns for a step.
// Values are decoded by the composer into typed forms.
type Response struct {
	Values map[string]any
}

// NoticeLevel tells the host how to present a Notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is an out-of-band message for the participant or operator.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	// ExportPath is set when collected responses were written to a local file.
	ExportPath string `json:"export_path,omitempty"`
}
