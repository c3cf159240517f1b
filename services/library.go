package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hera/logger"
	"hera/store"
	"hera/types"
)

const (
	audioBaseName         = "audio"
	transcriptionFileName = "transcription.txt"
	analysisFileName      = "analysis.json"
)

// LibraryService owns the recording folders under the library root and the
// metadata cache derived from them. The folders are the source of truth:
// every read path goes through a scan that reconciles the cache against
// what is actually on disk.
type LibraryService interface {
	// Reconcile scans the library root, syncs the cache to it and returns
	// the full list, newest first. The bool reports whether any cache
	// mutation was needed. Scan problems are logged, never returned; an
	// unreadable root yields an empty list.
	Reconcile(ctx context.Context) ([]*types.Recording, bool)

	// Get returns one recording, rescanning once on a cache miss or a
	// stale audio path.
	Get(ctx context.Context, id string) (*types.Recording, error)

	// Search returns recordings whose title or transcription contains the
	// query, after reconciling.
	Search(ctx context.Context, query string) ([]*types.Recording, error)

	// Create adds a new recording folder with the audio payload streamed
	// from src.
	Create(ctx context.Context, src io.Reader, opts CreateOptions) (*types.Recording, error)

	// Rename retitles a recording.
	Rename(ctx context.Context, id, title string) (*types.Recording, error)

	// Delete removes the recording folder and its cache entry.
	Delete(ctx context.Context, id string) error

	// SetTranscription writes the transcription sidecar and syncs the cache.
	SetTranscription(ctx context.Context, id, text string) (*types.Recording, error)

	// SetAnalysis writes the analysis sidecar and syncs the cache.
	SetAnalysis(ctx context.Context, id, raw string) (*types.Recording, error)

	// Root returns the library root directory.
	Root() string
}

// CreateOptions carries what the caller already knows about a new
// recording. Missing title and duration are probed from the audio file,
// a zero RecordedAt falls back to the current time.
type CreateOptions struct {
	Format     string // "m4a", "wav", "mp3" or "flac"
	Title      string
	Duration   float64
	RecordedAt time.Time
}

// libraryService implements the LibraryService interface
type libraryService struct {
	root  string
	store store.RecordingStore
	mu    sync.Mutex // single writer across scans and mutations
}

// NewLibraryService creates a library service over the given root directory.
func NewLibraryService(root string, st store.RecordingStore) LibraryService {
	return &libraryService{root: root, store: st}
}

func (s *libraryService) Root() string {
	return s.root
}

func (s *libraryService) Reconcile(ctx context.Context) ([]*types.Recording, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconcileLocked(ctx)
}

func (s *libraryService) reconcileLocked(ctx context.Context) ([]*types.Recording, bool) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		// An unreadable root presents as an empty library, not a failure.
		if !os.IsNotExist(err) {
			logger.Warn("library root not readable",
				logger.String("root", s.root), logger.ErrorField(err))
		}
		return []*types.Recording{}, false
	}

	cached := s.loadCache(ctx)

	var result []*types.Recording
	var upserts []*types.Recording
	seen := make(map[string]bool)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, err := uuid.Parse(name); err != nil {
			logger.Debug("skipping foreign directory", logger.String("name", name))
			continue
		}

		dir := filepath.Join(s.root, name)
		audioPath, format, audioErr := findAudio(dir)
		if audioErr != nil {
			// I/O trouble, not confirmed absence. Keep any cache entry alive.
			logger.Warn("skipping unreadable recording folder",
				logger.String("id", name), logger.ErrorField(audioErr))
			seen[name] = true
			continue
		}
		if audioPath == "" {
			// No payload means this is not a recording; a cache entry for
			// it is an orphan and falls to the cleanup below.
			logger.Debug("skipping folder without audio payload", logger.String("id", name))
			continue
		}

		next, ok := buildEntry(name, dir, audioPath, format, cached[name])
		seen[name] = true
		if !ok {
			continue
		}

		result = append(result, next)
		if prev := cached[name]; prev == nil || !next.Equal(prev) {
			upserts = append(upserts, next)
		}
	}

	var deletes []string
	for id := range cached {
		if !seen[id] {
			deletes = append(deletes, id)
		}
	}

	changed := len(upserts) > 0 || len(deletes) > 0
	if changed {
		if err := s.store.Apply(ctx, upserts, deletes); err != nil {
			// The list below still reflects disk; the next scan redoes the writes.
			logger.Error("applying scan results to cache failed", logger.ErrorField(err))
		} else {
			logger.Info("library cache updated",
				logger.Int("upserts", len(upserts)), logger.Int("deletes", len(deletes)))
		}
	}

	sortRecordings(result)
	return result, changed
}

func (s *libraryService) loadCache(ctx context.Context) map[string]*types.Recording {
	cached := make(map[string]*types.Recording)
	recs, err := s.store.List(ctx)
	if err != nil {
		// Scanning against an empty cache re-inserts everything and can
		// delete nothing, which is safe.
		logger.Error("reading metadata cache failed", logger.ErrorField(err))
		return cached
	}
	for _, r := range recs {
		cached[r.ID] = r
	}
	return cached
}

// buildEntry assembles the next cache state for one folder. ok is false
// when a sidecar read failed and the folder has to be skipped this pass.
func buildEntry(id, dir, audioPath, format string, prev *types.Recording) (*types.Recording, bool) {
	var next *types.Recording
	if prev != nil {
		next = prev.Clone()
		next.AudioPath = audioPath
		next.AudioFormat = format
	} else {
		createdAt := time.Now()
		if info, err := os.Stat(dir); err == nil {
			createdAt = info.ModTime()
		}
		next = &types.Recording{
			ID:          id,
			Title:       types.PlaceholderTitle(id),
			CreatedAt:   createdAt,
			AudioPath:   audioPath,
			AudioFormat: format,
		}
	}

	text, found, err := readSidecar(filepath.Join(dir, transcriptionFileName))
	if err != nil {
		logger.Warn("skipping recording with unreadable transcription sidecar",
			logger.String("id", id), logger.ErrorField(err))
		return nil, false
	}
	if found {
		next.Transcription = &text
	} else {
		next.Transcription = nil
	}

	raw, found, err := readSidecar(filepath.Join(dir, analysisFileName))
	if err != nil {
		logger.Warn("skipping recording with unreadable analysis sidecar",
			logger.String("id", id), logger.ErrorField(err))
		return nil, false
	}
	if found {
		next.AnalysisJSON = &raw
	} else {
		next.AnalysisJSON = nil
	}

	return next, true
}

// findAudio locates the payload file inside a recording folder. An empty
// path with a nil error means the folder holds no audio.
func findAudio(dir string) (path, format string, err error) {
	for _, ext := range audioExtensions {
		candidate := filepath.Join(dir, audioBaseName+"."+ext)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				continue
			}
			return candidate, ext, nil
		}
		if !os.IsNotExist(err) {
			return "", "", err
		}
	}
	return "", "", nil
}

// readSidecar reads an optional sidecar file. found distinguishes a missing
// file from an empty one; err reports only real I/O trouble.
func readSidecar(path string) (content string, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func sortRecordings(recs []*types.Recording) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}

func (s *libraryService) Get(ctx context.Context, id string) (*types.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.Get(ctx, id)
	if err == nil {
		if _, statErr := os.Stat(rec.AudioPath); statErr == nil {
			return rec, nil
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// Cache miss or stale audio path. One rescan settles either way.
	s.reconcileLocked(ctx)
	return s.store.Get(ctx, id)
}

func (s *libraryService) Search(ctx context.Context, query string) ([]*types.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reconcileLocked(ctx)
	return s.store.Search(ctx, query)
}

func (s *libraryService) Create(ctx context.Context, src io.Reader, opts CreateOptions) (*types.Recording, error) {
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if !ValidAudioFormat(format) {
		return nil, fmt.Errorf("unsupported audio format %q", opts.Format)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating recording folder: %w", err)
	}

	audioPath := filepath.Join(dir, audioBaseName+"."+format)
	if err := writeAudio(audioPath, src); err != nil {
		// Don't leave a half-written folder behind.
		os.RemoveAll(dir)
		return nil, err
	}

	createdAt := opts.RecordedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = ProbeTitle(audioPath)
	}
	if title == "" {
		title = types.PlaceholderTitle(id)
	}

	duration := opts.Duration
	if duration == 0 {
		duration = ProbeDuration(audioPath, format)
	}

	// Align the folder timestamp with the capture time so a cache rebuild
	// keeps the library order.
	if err := os.Chtimes(dir, createdAt, createdAt); err != nil {
		logger.Warn("setting recording folder time failed",
			logger.String("id", id), logger.ErrorField(err))
	}

	rec := &types.Recording{
		ID:          id,
		Title:       title,
		CreatedAt:   createdAt,
		Duration:    duration,
		AudioPath:   audioPath,
		AudioFormat: format,
	}
	if err := s.store.Upsert(ctx, rec); err != nil {
		// The folder is on disk; the next scan inserts it.
		logger.Error("caching new recording failed",
			logger.String("id", id), logger.ErrorField(err))
	}

	logger.Info("recording created",
		logger.String("id", id), logger.String("format", format),
		logger.Float64("duration", duration))
	return rec, nil
}

func writeAudio(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating audio payload: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("writing audio payload: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing audio payload: %w", err)
	}
	return nil
}

func (s *libraryService) Rename(ctx context.Context, id, title string) (*types.Recording, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Title = title
	if err := s.store.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *libraryService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid recording id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(s.root, id)); err != nil {
		return fmt.Errorf("removing recording folder: %w", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("removing recording metadata: %w", err)
	}

	logger.Info("recording deleted", logger.String("id", id))
	return nil
}

func (s *libraryService) SetTranscription(ctx context.Context, id, text string) (*types.Recording, error) {
	return s.setSidecar(ctx, id, transcriptionFileName, text, func(rec *types.Recording, v string) {
		rec.Transcription = &v
	})
}

func (s *libraryService) SetAnalysis(ctx context.Context, id, raw string) (*types.Recording, error) {
	return s.setSidecar(ctx, id, analysisFileName, raw, func(rec *types.Recording, v string) {
		rec.AnalysisJSON = &v
	})
}

func (s *libraryService) setSidecar(ctx context.Context, id, filename, content string, assign func(*types.Recording, string)) (*types.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, id, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", filename, err)
	}

	assign(rec, content)
	if err := s.store.Upsert(ctx, rec); err != nil {
		// The sidecar is on disk; the next scan syncs the cache.
		logger.Error("caching sidecar update failed",
			logger.String("id", id), logger.String("file", filename), logger.ErrorField(err))
	}
	return rec, nil
}
