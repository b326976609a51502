package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielolaszy/ghinbox/internal/frontmatter"
)

// createNotesTableSQL defines the schema for the notes table.
const createNotesTableSQL = `
CREATE TABLE IF NOT EXISTS notes (
    path TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    state TEXT,
    timestamp INTEGER,  -- copied from front matter, NULL if absent
    written_at TEXT NOT NULL
);
`

// SQLiteStore keeps notes in a SQLite database, indexed by path.
// The inbox state and timestamp of each note are copied out of its front
// matter so the index can be queried without parsing every note.
type SQLiteStore struct {
	dbPath string
	conn   *sql.DB
}

// Entry is the indexed metadata of one stored note.
type Entry struct {
	Path      string
	State     string
	Timestamp int64
	WrittenAt string
}

// OpenSQLite creates or opens the database at path and initializes the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// SQLite only supports a single writer.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if _, err := conn.Exec(createNotesTableSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create notes table in %s: %w", path, err)
	}

	return &SQLiteStore{dbPath: path, conn: conn}, nil
}

// Path returns the database file the store was opened on.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Exists reports whether a note is stored at path.
func (s *SQLiteStore) Exists(ctx context.Context, path string) (bool, error) {
	var one int
	err := s.conn.QueryRowContext(ctx, "SELECT 1 FROM notes WHERE path = ?", path).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", path, err)
	}
	return true, nil
}

// Read returns the content of the note at path.
func (s *SQLiteStore) Read(ctx context.Context, path string) (string, error) {
	var content string
	err := s.conn.QueryRowContext(ctx, "SELECT content FROM notes WHERE path = ?", path).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return content, nil
}

// Write inserts or replaces the note at path.
func (s *SQLiteStore) Write(ctx context.Context, path, content string) error {
	var (
		state     sql.NullString
		timestamp sql.NullInt64
	)
	if fields, err := frontmatter.Parse(content); err == nil {
		if v := fields.String("state"); v != "" {
			state = sql.NullString{String: v, Valid: true}
		}
		if ts, err := fields.Timestamp(); err == nil {
			timestamp = sql.NullInt64{Int64: ts, Valid: true}
		}
	}

	query := `
		INSERT OR REPLACE INTO notes (path, content, state, timestamp, written_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.conn.ExecContext(ctx, query, path, content, state, timestamp, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Entries lists the indexed notes under prefix, ordered by path.
// An empty prefix lists everything.
func (s *SQLiteStore) Entries(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT path, COALESCE(state, ''), COALESCE(timestamp, 0), written_at
		FROM notes
		WHERE substr(path, 1, length(?)) = ?
		ORDER BY path
	`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes in %s: %w", s.dbPath, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.State, &e.Timestamp, &e.WrittenAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
