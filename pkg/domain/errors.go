package domain

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned by a flow that ended through an explicit stop.
var ErrCancelled = errors.New("session cancelled")

// ErrScreeningPending is returned when a language arm is entered before the
// screening answer is known.
var ErrScreeningPending = errors.New("language screening has not been answered")

// ErrAlreadyScreened is returned when a second, different screening answer arrives.
var ErrAlreadyScreened = errors.New("language screening already answered")

// ErrBlockEnded is returned when a block that already ended is run again.
var ErrBlockEnded = errors.New("block already ended")

// ErrSubmissionNotFound is returned when a spec ID has no stored submission.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrTransmission marks a failed result upload.
var ErrTransmission = errors.New("result transmission failed")

// SpecFetchError is fatal: no session is started without a specification.
type SpecFetchError struct {
	Cause error
}

func (e *SpecFetchError) Error() string {
	return fmt.Sprintf("failed to fetch experiment spec: %v", e.Cause)
}

func (e *SpecFetchError) Unwrap() error {
	return e.Cause
}

// ConfigurationError reports an unusable study configuration.
type ConfigurationError struct {
	Reason string
	Cause  error
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Cause)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// ErrTemplateNotFound is returned by a TemplateProvider for unknown names.
var ErrTemplateNotFound = errors.New("template not found")
