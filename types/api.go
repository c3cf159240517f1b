package types

import "time"

// RecordingView is the API representation of a recording. The analysis
// document is decoded once here: well-formed documents appear structured
// under Analysis, anything else is passed through verbatim in AnalysisRaw.
type RecordingView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"createdAt"`
	Duration      float64   `json:"duration"`
	AudioFormat   string    `json:"audioFormat"`
	Transcription *string   `json:"transcription,omitempty"`
	Analysis      *Analysis `json:"analysis,omitempty"`
	AnalysisRaw   string    `json:"analysisRaw,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// View maps a recording to its API representation.
func (r *Recording) View() RecordingView {
	v := RecordingView{
		ID:            r.ID,
		Title:         r.Title,
		CreatedAt:     r.CreatedAt,
		Duration:      r.Duration,
		AudioFormat:   r.AudioFormat,
		Transcription: r.Transcription,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.AnalysisJSON != nil {
		if a, err := DecodeAnalysis(*r.AnalysisJSON); err == nil {
			v.Analysis = a
		} else {
			v.AnalysisRaw = *r.AnalysisJSON
		}
	}
	return v
}

// Views maps a list of recordings, preserving order.
func Views(recs []*Recording) []RecordingView {
	out := make([]RecordingView, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.View())
	}
	return out
}

// UpdateRecordingRequest is the body of a recording rename.
type UpdateRecordingRequest struct {
	Title string `json:"title" binding:"required"`
}
