package entity

import "github.com/klinikops/sgk-docflow/constants"

// ScoredPatient pairs a directory candidate with its composite confidence.
type ScoredPatient struct {
	Patient    *Patient `json:"patient"`
	Confidence float32  `json:"confidence"`
}

// MatchResult is the outcome of resolving extracted identity signals against
// the patient directory.
//
// Invariants: Matched implies Patient != nil, and Candidates is sorted
// descending by confidence.
type MatchResult struct {
	Matched              bool                 `json:"matched"`
	Patient              *Patient             `json:"patient,omitempty"`
	Confidence           float32              `json:"confidence"`
	Level                constants.MatchLevel `json:"level"`
	Candidates           []ScoredPatient      `json:"candidates,omitempty"`
	Method               string               `json:"method"`
	RequiresConfirmation bool                 `json:"requires_confirmation"`
}

// NoMatch returns the canonical empty result.
func NoMatch(method string) MatchResult {
	return MatchResult{
		Matched:    false,
		Confidence: 0,
		Level:      constants.MatchNone,
		Method:     method,
	}
}
