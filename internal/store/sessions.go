// Package store persists listening sessions in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is the persisted timestamp format. Timestamps are stored
// as text so a damaged row degrades to a skipped aggregate entry
// rather than a query failure.
const timeLayout = time.RFC3339Nano

// Session is one contiguous play of a track. EndTime nil means the
// session is still open.
type Session struct {
	ID         int64
	TrackID    string
	TrackName  string
	Artists    string // joined display form, e.g. "A, B"
	AlbumName  string
	AlbumImage string
	StartTime  time.Time
	EndTime    *time.Time
}

// Store is a SQLite-backed session log.
type Store struct {
	db *sql.DB
}

// New opens (and if necessary creates) the session database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps in-memory databases coherent and
	// serializes the close-then-insert pair on a track change.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_id TEXT NOT NULL,
			track_name TEXT NOT NULL,
			artists TEXT NOT NULL,
			album_name TEXT,
			album_image TEXT,
			start_time TEXT NOT NULL,
			end_time TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_track_open ON sessions(track_id, end_time);
		CREATE INDEX IF NOT EXISTS idx_sessions_track_start ON sessions(track_id, start_time);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Open inserts a new open session and returns its id.
func (s *Store) Open(ctx context.Context, sess Session) (int64, error) {
	query := `
		INSERT INTO sessions (track_id, track_name, artists, album_name, album_image, start_time)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		sess.TrackID,
		sess.TrackName,
		sess.Artists,
		sess.AlbumName,
		sess.AlbumImage,
		sess.StartTime.Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// CloseOpen sets the end time on the open session for trackID, if one
// exists. The conditional WHERE makes a duplicate close a no-op, so a
// retry can never corrupt an already-closed row. Returns whether a row
// was closed.
func (s *Store) CloseOpen(ctx context.Context, trackID string, end time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET end_time = ?
		WHERE track_id = ? AND end_time IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, end.Format(timeLayout), trackID)
	if err != nil {
		return false, fmt.Errorf("failed to close session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// OpenSession returns the open session for trackID, or nil if none.
func (s *Store) OpenSession(ctx context.Context, trackID string) (*Session, error) {
	query := `
		SELECT id, track_id, track_name, artists, COALESCE(album_name, ''), COALESCE(album_image, ''), start_time, end_time
		FROM sessions
		WHERE track_id = ? AND end_time IS NULL
		ORDER BY id DESC
		LIMIT 1
	`
	return s.queryOne(ctx, query, trackID)
}

// LatestForTrack returns the most recent session for trackID (open or
// closed), or nil if the track has never been recorded.
func (s *Store) LatestForTrack(ctx context.Context, trackID string) (*Session, error) {
	query := `
		SELECT id, track_id, track_name, artists, COALESCE(album_name, ''), COALESCE(album_image, ''), start_time, end_time
		FROM sessions
		WHERE track_id = ?
		ORDER BY start_time DESC
		LIMIT 1
	`
	return s.queryOne(ctx, query, trackID)
}

// All returns every session, newest first. Used by tests and debugging.
func (s *Store) All(ctx context.Context) ([]Session, error) {
	query := `
		SELECT id, track_id, track_name, artists, COALESCE(album_name, ''), COALESCE(album_image, ''), start_time, end_time
		FROM sessions
		ORDER BY id DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// CountOpen returns the number of open sessions across all tracks.
func (s *Store) CountOpen(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE end_time IS NULL").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open sessions: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) queryOne(ctx context.Context, query string, args ...any) (*Session, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var start string
	var end sql.NullString

	err := row.Scan(
		&sess.ID,
		&sess.TrackID,
		&sess.TrackName,
		&sess.Artists,
		&sess.AlbumName,
		&sess.AlbumImage,
		&start,
		&end,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if t, err := time.Parse(timeLayout, start); err == nil {
		sess.StartTime = t
	}
	if end.Valid {
		if t, err := time.Parse(timeLayout, end.String); err == nil {
			sess.EndTime = &t
		}
	}

	return &sess, nil
}
