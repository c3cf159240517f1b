package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"hera/types"
)

// SQLiteStore implements RecordingStore on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the metadata database, creating the file and its
// parent directory as needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Single connection keeps concurrent writers from hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recordings (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		created_at    TIMESTAMP NOT NULL,
		duration      REAL NOT NULL DEFAULT 0,
		audio_path    TEXT NOT NULL,
		audio_format  TEXT NOT NULL,
		transcription TEXT,
		analysis_json TEXT,
		updated_at    TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_recordings_created_at ON recordings(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

const recordingColumns = "id, title, created_at, duration, audio_path, audio_format, transcription, analysis_json, updated_at"

func (s *SQLiteStore) Get(ctx context.Context, id string) (*types.Recording, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordingColumns+" FROM recordings WHERE id = ?", id)

	rec, err := scanRecording(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying recording %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]*types.Recording, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordingColumns+" FROM recordings ORDER BY created_at DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}
	defer rows.Close()

	return collectRecordings(rows)
}

func (s *SQLiteStore) Search(ctx context.Context, query string) ([]*types.Recording, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordingColumns+` FROM recordings
		 WHERE title LIKE ? OR transcription LIKE ?
		 ORDER BY created_at DESC, id ASC`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("searching recordings: %w", err)
	}
	defer rows.Close()

	return collectRecordings(rows)
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec *types.Recording) error {
	rec.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, upsertSQL, upsertArgs(rec)...)
	if err != nil {
		return fmt.Errorf("upserting recording %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM recordings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting recording %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Apply(ctx context.Context, upserts []*types.Recording, deletes []string) error {
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, rec := range upserts {
		rec.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, upsertSQL, upsertArgs(rec)...); err != nil {
			return fmt.Errorf("upserting recording %s: %w", rec.ID, err)
		}
	}
	for _, id := range deletes {
		if _, err := tx.ExecContext(ctx, "DELETE FROM recordings WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting recording %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing changes: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const upsertSQL = `
	INSERT OR REPLACE INTO recordings
	(id, title, created_at, duration, audio_path, audio_format, transcription, analysis_json, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func upsertArgs(rec *types.Recording) []interface{} {
	return []interface{}{
		rec.ID,
		rec.Title,
		rec.CreatedAt,
		rec.Duration,
		rec.AudioPath,
		rec.AudioFormat,
		nullable(rec.Transcription),
		nullable(rec.AnalysisJSON),
		rec.UpdatedAt,
	}
}

func nullable(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecording(row rowScanner) (*types.Recording, error) {
	var rec types.Recording
	var transcription, analysisJSON sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.Title,
		&rec.CreatedAt,
		&rec.Duration,
		&rec.AudioPath,
		&rec.AudioFormat,
		&transcription,
		&analysisJSON,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if transcription.Valid {
		rec.Transcription = &transcription.String
	}
	if analysisJSON.Valid {
		rec.AnalysisJSON = &analysisJSON.String
	}
	return &rec, nil
}

func collectRecordings(rows *sql.Rows) ([]*types.Recording, error) {
	var recs []*types.Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning recording row: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recording rows: %w", err)
	}
	return recs, nil
}
