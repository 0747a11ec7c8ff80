package extract

import (
	"context"
	"time"
)

// Provider is one OCR capability: encoded image bytes -> plain text.
// "No text found" is a successful empty result, never an error; errors mean
// the capability itself failed.
type Provider interface {
	Name() string
	Extract(ctx context.Context, png []byte) (Result, error)
}

// Result is a single provider's raw output.
type Result struct {
	Text       string
	Method     string
	Language   string
	Confidence float32
	Duration   time.Duration
	Warnings   []string
}

// Candidate is one extracted entity value with its confidence in [0,1].
type Candidate struct {
	Value      string  `json:"value"`
	Confidence float32 `json:"confidence"`
}

// ExtractedText is the stage output: plain text plus structured entity
// candidates. Immutable after extraction.
type ExtractedText struct {
	Text        string      `json:"text"`
	Method      string      `json:"method"`
	Confidence  float32     `json:"confidence"`
	Names       []Candidate `json:"names,omitempty"`
	NationalIDs []Candidate `json:"national_ids,omitempty"`
	Dates       []Candidate `json:"dates,omitempty"`
}
