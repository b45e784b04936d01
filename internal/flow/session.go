package flow

import (
	"sync"

	"github.com/aretw0/timbre/pkg/domain"
)

// Session is the canonical log of one participant's run. A single writer (the
// active Leaf) appends; observers read copies.
type Session struct {
	specID string

	mu        sync.Mutex
	records   []domain.ResponseRecord
	cancelled bool
	reason    string
	failure   error
}

// NewSession creates an empty log for specID.
func NewSession(specID string) *Session {
	return &Session{specID: specID}
}

// SpecID returns the correlation identifier of the session.
func (s *Session) SpecID() string {
	return s.specID
}

// Append adds a record, stamping it with the session's spec ID.
func (s *Session) Append(rec domain.ResponseRecord) {
	rec.SpecID = s.specID
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// Records returns a copy of the log in append order.
func (s *Session) Records() []domain.ResponseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ResponseRecord(nil), s.records...)
}

// Len returns the number of records.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Submission packages the log for transmission.
func (s *Session) Submission() domain.Submission {
	return domain.Submission{SpecID: s.specID, Responses: s.Records()}
}

// Cancel sets the cancellation flag. It returns false if it was already set;
// the first reason wins.
func (s *Session) Cancel(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return false
	}
	s.cancelled = true
	s.reason = reason
	return true
}

// Cancelled reports whether the session was stopped.
func (s *Session) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// CancelReason returns the reason given to the first Cancel.
func (s *Session) CancelReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Fail records the error that aborted the run. The first error wins.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure == nil {
		s.failure = err
	}
}

// Err returns the error that aborted the run, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}
