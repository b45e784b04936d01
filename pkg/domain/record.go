package domain

import "time"

// ResponseRecord is one recorded answer. Records are append-only and keep the
// order in which leaves ended.
type ResponseRecord struct {
	ID        string         `json:"id"`
	SpecID    string         `json:"specId"`
	BlockID   string         `json:"block_id"`
	Name      string         `json:"name"`
	Kind      StepKind       `json:"kind"`
	Section   Section        `json:"section"`
	Params    any            `json:"params,omitempty"`
	Values    map[string]any `json:"values,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Duration  time.Duration  `json:"duration"`
}

// Submission is the payload accepted by the results endpoint.
type Submission struct {
	SpecID    string           `json:"specId"`
	Responses []ResponseRecord `json:"responses"`
}
