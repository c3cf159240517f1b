package store

import (
	"context"
	"errors"

	"hera/types"
)

// ErrNotFound is returned when no recording matches the requested ID.
var ErrNotFound = errors.New("recording not found")

// RecordingStore is the metadata cache kept alongside the recording folders.
// The folders on disk stay authoritative; implementations only mirror them
// and get corrected by the next library scan when they drift.
type RecordingStore interface {
	// Get returns one recording, or ErrNotFound.
	Get(ctx context.Context, id string) (*types.Recording, error)

	// List returns every cached recording, newest first.
	List(ctx context.Context) ([]*types.Recording, error)

	// Search returns cached recordings whose title or transcription
	// contains the query, newest first.
	Search(ctx context.Context, query string) ([]*types.Recording, error)

	// Upsert inserts or replaces a single recording.
	Upsert(ctx context.Context, rec *types.Recording) error

	// Delete removes a recording. Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error

	// Apply performs a set of upserts and deletes as one transaction.
	Apply(ctx context.Context, upserts []*types.Recording, deletes []string) error

	Close() error
}
