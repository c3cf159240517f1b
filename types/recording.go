package types

import (
	"fmt"
	"strings"
	"time"
)

// Recording represents one voice memo in the library. The backing folder on
// disk is the source of truth; the stored row is a derived cache of it.
type Recording struct {
	ID            string    // folder name, a UUID string kept verbatim
	Title         string
	CreatedAt     time.Time
	Duration      float64 // seconds, 0 when unknown
	AudioPath     string  // absolute path to the audio payload
	AudioFormat   string  // "m4a", "wav", "mp3", "flac"
	Transcription *string // nil when no sidecar exists
	AnalysisJSON  *string // raw analysis document, nil when no sidecar exists
	UpdatedAt     time.Time
}

// PlaceholderTitle returns the display title used for recordings that were
// never named, derived from the identifier so it stays stable across scans.
func PlaceholderTitle(id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("Recording %s", strings.ToUpper(short))
}

// HasPlaceholderTitle reports whether the recording still carries the
// generated title, meaning a suggested title may safely replace it.
func (r *Recording) HasPlaceholderTitle() bool {
	return r.Title == PlaceholderTitle(r.ID)
}

// Equal reports whether two recordings carry identical metadata. Used to
// decide whether a scan needs to write anything back to the store.
func (r *Recording) Equal(other *Recording) bool {
	if other == nil {
		return false
	}
	return r.ID == other.ID &&
		r.Title == other.Title &&
		r.CreatedAt.Equal(other.CreatedAt) &&
		r.Duration == other.Duration &&
		r.AudioPath == other.AudioPath &&
		r.AudioFormat == other.AudioFormat &&
		equalStringPtr(r.Transcription, other.Transcription) &&
		equalStringPtr(r.AnalysisJSON, other.AnalysisJSON)
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Clone returns a copy safe to mutate without aliasing the original's
// pointer fields.
func (r *Recording) Clone() *Recording {
	c := *r
	if r.Transcription != nil {
		t := *r.Transcription
		c.Transcription = &t
	}
	if r.AnalysisJSON != nil {
		a := *r.AnalysisJSON
		c.AnalysisJSON = &a
	}
	return &c
}
