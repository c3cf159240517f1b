package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Analysis is the structured document the analysis call is asked to produce
// for a transcription. Date-times are ISO-8601 strings passed through as the
// model produced them.
type Analysis struct {
	Summary        string             `json:"summary"`
	SuggestedTitle string             `json:"suggestedTitle"`
	Events         []AnalysisEvent    `json:"events"`
	Reminders      []AnalysisReminder `json:"reminders"`
}

// AnalysisEvent is a calendar-worthy item extracted from a recording.
type AnalysisEvent struct {
	Title    string `json:"title"`
	StartsAt string `json:"startsAt,omitempty"`
	EndsAt   string `json:"endsAt,omitempty"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// AnalysisReminder is a follow-up task extracted from a recording.
type AnalysisReminder struct {
	Title string `json:"title"`
	DueAt string `json:"dueAt,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// DecodeAnalysis parses a raw analysis document into the schema. It is a
// single strict decode: the document must be a JSON object, and no recovery
// is attempted on malformed input. Callers fall back to exposing the raw
// text when this fails.
func DecodeAnalysis(raw string) (*Analysis, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, errors.New("analysis document is not a JSON object")
	}
	var a Analysis
	if err := json.Unmarshal([]byte(trimmed), &a); err != nil {
		return nil, fmt.Errorf("decoding analysis document: %w", err)
	}
	return &a, nil
}
