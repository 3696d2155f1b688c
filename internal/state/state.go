package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS browse_state (
    root       TEXT PRIMARY KEY,
    last_path  TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps a SQLite database that remembers where the user left off
// per root path, so relaunching lst against the same tree resumes there.
type Store struct {
	db *sql.DB
}

// Open creates or opens the state database at $XDG_STATE_HOME/lst/state.db.
func Open() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateHome, "lst")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for safe concurrent access across lst instances
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SavePath records the last browsed path for a root.
func (s *Store) SavePath(root, lastPath string) error {
	_, err := s.db.Exec(`
		INSERT INTO browse_state (root, last_path, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(root) DO UPDATE SET
			last_path = excluded.last_path,
			updated_at = CURRENT_TIMESTAMP
	`, root, lastPath)
	return err
}

// LoadPath returns the last browsed path for a root, or "" if none is
// recorded.
func (s *Store) LoadPath(root string) (string, error) {
	var p string
	err := s.db.QueryRow(
		"SELECT last_path FROM browse_state WHERE root = ?", root,
	).Scan(&p)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p, nil
}

// RecentRoot is one remembered root with its last browsed path.
type RecentRoot struct {
	Root     string
	LastPath string
	LastSeen time.Time
}

// ListRecent returns up to limit recently used roots, newest first.
func (s *Store) ListRecent(limit int) ([]RecentRoot, error) {
	rows, err := s.db.Query(`
		SELECT root, last_path, updated_at
		FROM browse_state
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RecentRoot
	for rows.Next() {
		var r RecentRoot
		var seen string
		if err := rows.Scan(&r.Root, &r.LastPath, &seen); err != nil {
			return nil, err
		}
		r.LastSeen, _ = time.Parse("2006-01-02 15:04:05", seen)
		result = append(result, r)
	}
	return result, rows.Err()
}
