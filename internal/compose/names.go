package compose

// Template names looked up through the TemplateProvider.
const (
	TplWelcome1                     = "welcome_1"
	TplWelcome2                     = "welcome_2"
	TplConsent                      = "consent"
	TplConsentFailure               = "consent_failure"
	TplPDFDownload                  = "pdf_download"
	TplHeadphoneCheck               = "headphone_check"
	TplHeadphoneComplete            = "headphone_complete"
	TplHeadphoneFailure             = "headphone_failure"
	TplQuestionnaireExplanation     = "questionnaire_explanation"
	TplQuestionnaire                = "questionnaire"
	TplAuditionExplanation          = "audition_explanation"
	TplAuditionExplanationNonNative = "audition_explanation_non_native"
	TplAuditionFiles                = "audition_files"
	TplPracticeExplanation1         = "practice_explanation_1"
	TplPracticeExplanation2         = "practice_explanation_2"
	TplPracticeReminder             = "practice_reminder"
	TplDissimilarityRating          = "dissimilarity_rating"
	TplDissimilarityExplanation     = "dissimilarity_explanation"
	TplDissimilarityBreak           = "dissimilarity_break"
	TplDissimilarityComplete        = "dissimilarity_complete"
	TplSemanticRating               = "semantic_rating"
	TplSemanticExplanation          = "semantic_explanation"
	TplSemanticComplete             = "semantic_complete"
	TplFeedback                     = "feedback"
	TplExperimentComplete           = "experiment_complete"
	TplStop                         = "stop"
)

var (
	welcomeTemplates   = []string{TplWelcome1, TplWelcome2, TplConsent, TplConsentFailure, TplPDFDownload}
	headphoneTemplates = []string{TplHeadphoneCheck, TplHeadphoneComplete, TplHeadphoneFailure}
	coreTemplates      = []string{
		TplQuestionnaireExplanation, TplQuestionnaire,
		TplAuditionExplanation, TplAuditionExplanationNonNative, TplAuditionFiles,
		TplPracticeExplanation1, TplPracticeExplanation2, TplPracticeReminder,
		TplDissimilarityRating, TplDissimilarityExplanation, TplDissimilarityBreak, TplDissimilarityComplete,
		TplSemanticRating, TplSemanticExplanation, TplSemanticComplete,
		TplFeedback, TplExperimentComplete, TplStop,
	}
)

// Record names of rating leaves.
const (
	NamePractice      = "practice_dissimilarity"
	NameDissimilarity = "dissimilarity"
	NameSemantic      = "semantic"
)
