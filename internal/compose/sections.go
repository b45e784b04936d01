package compose

import (
	"context"
	"fmt"

	"github.com/aretw0/timbre/internal/branch"
	"github.com/aretw0/timbre/internal/flow"
	"github.com/aretw0/timbre/pkg/domain"
)

// Cancellation reasons set by the gate sections.
const (
	ReasonConsent    = "consent"
	ReasonHeadphones = "headphones"
)

// sections builds blocks for one session from prefetched content.
type sections struct {
	c       *Composer
	content Content
	spec    *domain.ExperimentSpec
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func (s *sections) text(parent, name string, section domain.Section) *flow.Leaf {
	return flow.NewLeaf(join(parent, name), name, domain.StepText, section, s.content[name])
}

func (s *sections) notice(parent, name string, section domain.Section) *flow.Leaf {
	return flow.NewLeaf(join(parent, name), name, domain.StepNotice, section, s.content[name])
}

// Welcome shows the introduction and asks for consent. Refusal cancels the
// session.
func (s *sections) Welcome(parent string) *flow.Sequence {
	id := join(parent, "welcome")
	failure := s.content[TplConsentFailure]
	consent := flow.NewLeaf(join(id, TplConsent), TplConsent, domain.StepConsent, domain.SectionWelcome, s.content[TplConsent],
		flow.WithResponseHandler(func(ctx context.Context, rt *flow.Runtime, resp *domain.Response) error {
			var form ConsentForm
			if err := Decode(resp, &form); err != nil {
				return err
			}
			if form.Consent {
				return nil
			}
			if err := rt.Host().Notify(ctx, domain.Notice{Level: domain.NoticeWarning, Message: failure}); err != nil {
				rt.Logger().Warn("consent failure notice not delivered", "err", err)
			}
			rt.Cancel(ReasonConsent)
			return nil
		}))
	return flow.NewSequence(id, "welcome", domain.SectionWelcome,
		s.text(id, TplWelcome1, domain.SectionWelcome),
		s.text(id, TplWelcome2, domain.SectionWelcome),
		consent,
		s.text(id, TplPDFDownload, domain.SectionWelcome),
	)
}

// Headphones runs the headphone check. A failed check cancels the session.
func (s *sections) Headphones(parent string) *flow.Sequence {
	id := join(parent, "headphones")
	failure := s.content[TplHeadphoneFailure]
	check := flow.NewLeaf(join(id, TplHeadphoneCheck), TplHeadphoneCheck, domain.StepHeadphoneCheck, domain.SectionHeadphones, s.content[TplHeadphoneCheck],
		flow.WithResponseHandler(func(ctx context.Context, rt *flow.Runtime, resp *domain.Response) error {
			var form HeadphoneForm
			if err := Decode(resp, &form); err != nil {
				return err
			}
			if form.Passed {
				return nil
			}
			if err := rt.Host().Notify(ctx, domain.Notice{Level: domain.NoticeWarning, Message: failure}); err != nil {
				rt.Logger().Warn("headphone failure notice not delivered", "err", err)
			}
			rt.Cancel(ReasonHeadphones)
			return nil
		}))
	return flow.NewSequence(id, "headphones", domain.SectionHeadphones,
		check,
		s.text(id, TplHeadphoneComplete, domain.SectionHeadphones),
	)
}

// Questionnaire collects the screening form and reports the answer to ctrl.
func (s *sections) Questionnaire(parent string, ctrl *branch.Controller) *flow.Sequence {
	id := join(parent, "questionnaire")
	form := flow.NewLeaf(join(id, TplQuestionnaire), TplQuestionnaire, domain.StepQuestionnaire, domain.SectionQuestionnaire, s.content[TplQuestionnaire],
		flow.WithValidation(ValidateQuestionnaire),
		flow.WithResponseHandler(func(_ context.Context, _ *flow.Runtime, resp *domain.Response) error {
			var form QuestionnaireForm
			if err := Decode(resp, &form); err != nil {
				return err
			}
			return ctrl.Screen(IsEnglishSpeakingCountry(form.CountryChildhood))
		}))
	return flow.NewSequence(id, "questionnaire", domain.SectionQuestionnaire,
		s.text(id, TplQuestionnaireExplanation, domain.SectionQuestionnaire),
		form,
	)
}

func (s *sections) auditionLeaf(parent, name string) *flow.Leaf {
	files := append([]string(nil), s.spec.Files...)
	content := s.c.render(s.content[TplAuditionFiles], map[string]any{"Files": files})
	return flow.NewLeaf(join(parent, name), TplAuditionFiles, domain.StepAudition, domain.SectionAudition, content,
		flow.WithParams(files))
}

// Audition explains the task and lets the participant hear every stimulus.
func (s *sections) Audition(parent string, nativeEnglish bool) *flow.Sequence {
	id := join(parent, "audition")
	explanation := TplAuditionExplanation
	if !nativeEnglish {
		explanation = TplAuditionExplanationNonNative
	}
	return flow.NewSequence(id, "audition", domain.SectionAudition,
		s.text(id, explanation, domain.SectionAudition),
		s.auditionLeaf(id, TplAuditionFiles),
	)
}

// AuditionAgain replays the stimuli without an explanation.
func (s *sections) AuditionAgain(parent string) *flow.Leaf {
	return s.auditionLeaf(parent, "audition_again")
}

func (s *sections) ratingFactory(name string, section domain.Section, reminder string) flow.Factory[domain.Trial] {
	return func(id, content string, trial domain.Trial) flow.Block {
		opts := []flow.LeafOption{
			flow.WithParams(trial),
			flow.WithValidation(ValidateRating),
		}
		if reminder != "" && trial.IsSelfPair() {
			opts = append(opts, flow.WithReminder(func(resp *domain.Response) (string, bool) {
				var form RatingForm
				if err := Decode(resp, &form); err != nil {
					return "", false
				}
				return reminder, form.Rating != 0
			}))
		}
		return flow.NewLeaf(id, name, domain.StepDissimilarity, section, s.c.render(content, trial), opts...)
	}
}

// Practice explains dissimilarity rating and runs the fixed practice trials.
// Rating an identical pair above zero shows a reminder.
func (s *sections) Practice(parent string) (*flow.Sequence, *flow.Loop) {
	id := join(parent, "practice")
	trials := NumberTrials(s.spec.PracticeTrials)
	loop := flow.NewLoop(join(id, "trials"), "practice_trials", domain.SectionPractice,
		s.content[TplDissimilarityRating], trials,
		s.ratingFactory(NamePractice, domain.SectionPractice, s.content[TplPracticeReminder]))
	seq := flow.NewSequence(id, "practice", domain.SectionPractice,
		s.text(id, TplPracticeExplanation1, domain.SectionPractice),
		s.text(id, TplPracticeExplanation2, domain.SectionPractice),
		loop,
	)
	return seq, loop
}

// Dissimilarity splits the trials into chunks separated by breaks, with an
// explanation before the first chunk and a completion screen after the last.
func (s *sections) Dissimilarity(parent string) (*flow.Sequence, []*flow.Loop) {
	id := join(parent, "dissimilarity")
	chunks := Chunk(s.spec.Trials, s.c.chunkSize)

	children := []flow.Block{s.text(id, TplDissimilarityExplanation, domain.SectionDissimilarity)}
	loops := make([]*flow.Loop, 0, len(chunks))
	for i, chunk := range chunks {
		loop := flow.NewLoop(join(id, fmt.Sprintf("chunk-%d", i+1)), "dissimilarity_chunk", domain.SectionDissimilarity,
			s.content[TplDissimilarityRating], chunk,
			s.ratingFactory(NameDissimilarity, domain.SectionDissimilarity, ""))
		loops = append(loops, loop)
		children = append(children, loop)
		if i < len(chunks)-1 {
			children = append(children, flow.NewLeaf(join(id, fmt.Sprintf("break-%d", i+1)), TplDissimilarityBreak,
				domain.StepText, domain.SectionDissimilarity, s.content[TplDissimilarityBreak]))
		}
	}
	children = append(children, s.text(id, TplDissimilarityComplete, domain.SectionDissimilarity))
	return flow.NewSequence(id, "dissimilarity", domain.SectionDissimilarity, children...), loops
}

// Semantic rates every file against every descriptor.
func (s *sections) Semantic(parent string) (*flow.Sequence, *flow.Loop) {
	id := join(parent, "semantic")
	trials := s.c.semanticTrials(s.spec.Files, s.spec.SemanticDescriptors)
	loop := flow.NewLoop(join(id, "trials"), "semantic_trials", domain.SectionSemantic,
		s.content[TplSemanticRating], trials,
		func(id, content string, trial domain.SemanticTrial) flow.Block {
			return flow.NewLeaf(id, NameSemantic, domain.StepSemantic, domain.SectionSemantic, s.c.render(content, trial),
				flow.WithParams(trial),
				flow.WithValidation(ValidateRating))
		})
	seq := flow.NewSequence(id, "semantic", domain.SectionSemantic,
		s.text(id, TplSemanticExplanation, domain.SectionSemantic),
		loop,
		s.text(id, TplSemanticComplete, domain.SectionSemantic),
	)
	return seq, loop
}

// Feedback collects free-text comments.
func (s *sections) Feedback(parent string) *flow.Leaf {
	return flow.NewLeaf(join(parent, TplFeedback), TplFeedback, domain.StepFeedback, domain.SectionFeedback, s.content[TplFeedback])
}

// Complete is the final screen of a finished session.
func (s *sections) Complete(parent string) *flow.Leaf {
	return s.notice(parent, TplExperimentComplete, domain.SectionComplete)
}

// Stop is shown after a cancelled session.
func (s *sections) Stop(parent string) *flow.Leaf {
	return s.notice(parent, TplStop, domain.SectionNone)
}
