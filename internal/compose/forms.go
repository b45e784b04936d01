package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/timbre/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// MaxRating is the upper bound of dissimilarity and semantic ratings.
const MaxRating = 10

// RatingForm is the answer to a dissimilarity or semantic step.
type RatingForm struct {
	Rating int `mapstructure:"rating"`
}

// ConsentForm is the answer to the consent step.
type ConsentForm struct {
	Consent bool `mapstructure:"consent"`
}

// HeadphoneForm is the outcome of the headphone check.
type HeadphoneForm struct {
	Passed bool `mapstructure:"passed"`
}

// QuestionnaireForm is the screening questionnaire.
type QuestionnaireForm struct {
	Age               int    `mapstructure:"age"`
	Gender            string `mapstructure:"gender"`
	CountryChildhood  string `mapstructure:"country_childhood"`
	CountryResidence  string `mapstructure:"country_residence"`
	FirstLanguage     string `mapstructure:"first_language"`
	MusicalExperience string `mapstructure:"musical_experience"`
}

// FeedbackForm is the closing free-text feedback.
type FeedbackForm struct {
	Feedback string `mapstructure:"feedback"`
}

// Decode converts raw host values into a typed form. String values from text
// hosts are converted to the target types.
func Decode(resp *domain.Response, out any) error {
	if resp == nil {
		return errors.New("empty response")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(resp.Values); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// ValidateRating rejects missing or out-of-range ratings.
func ValidateRating(resp *domain.Response) error {
	if _, ok := resp.Values["rating"]; !ok {
		return errors.New("a rating is required")
	}
	var form RatingForm
	if err := Decode(resp, &form); err != nil {
		return err
	}
	if form.Rating < 0 || form.Rating > MaxRating {
		return fmt.Errorf("rating must be between 0 and %d", MaxRating)
	}
	return nil
}

// ValidateQuestionnaire requires the screening field.
func ValidateQuestionnaire(resp *domain.Response) error {
	var form QuestionnaireForm
	if err := Decode(resp, &form); err != nil {
		return err
	}
	if strings.TrimSpace(form.CountryChildhood) == "" {
		return errors.New("country_childhood is required")
	}
	if form.Age < 0 {
		return errors.New("age must not be negative")
	}
	return nil
}
