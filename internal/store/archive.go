// Package store persists conversation turns to a cross-project SQLite
// archive. The archive outlives window compaction, so evicted turns remain
// searchable after the live window has dropped them.
package store

import (
	"database/sql"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"zagent/internal/conversation"
)

// Archive is the SQLite-backed turn archive.
type Archive struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
	logger *zap.Logger
}

// ArchivedTurn is one row of the archive.
type ArchivedTurn struct {
	ProjectID    string
	Role         string
	Content      string
	FilesTouched string
	ArchivedAt   time.Time
}

// Stats summarizes archive contents.
type Stats struct {
	Turns    int
	Projects int
}

// Open initializes the archive database at the given path.
func Open(path string, logger *zap.Logger) (*Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}

	a := &Archive{db: db, dbPath: path, logger: logger}
	if err := a.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// initialize creates the required tables.
func (a *Archive) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turn_archive (
		project_id TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		files_touched TEXT,
		archived_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (project_id, content_hash)
	);
	CREATE INDEX IF NOT EXISTS idx_archive_project ON turn_archive(project_id);
	`
	if _, err := a.db.Exec(schema); err != nil {
		return fmt.Errorf("create turn_archive table: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SyncWindow archives every turn currently in the window. Re-syncing is
// idempotent: duplicate turns are silently skipped, so callers may sync after
// every exchange without bloating the archive.
func (a *Archive) SyncWindow(projectID string, turns []conversation.Turn) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin archive sync: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO turn_archive (project_id, content_hash, role, content, files_touched)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare archive insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, t := range turns {
		res, err := stmt.Exec(projectID, turnHash(t), string(t.Role), t.Content, t.FilesTouched)
		if err != nil {
			return fmt.Errorf("archive turn: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive sync: %w", err)
	}

	a.logger.Debug("archive synced",
		zap.String("project_id", projectID),
		zap.Int("turns", len(turns)),
		zap.Int("new", inserted))
	return nil
}

// Search returns archived turns whose content contains the query, most
// recent first. An empty projectID searches across all projects.
func (a *Archive) Search(projectID, query string, limit int) ([]ArchivedTurn, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	q := `SELECT project_id, role, content, files_touched, archived_at
	      FROM turn_archive
	      WHERE content LIKE ?`
	args := []any{"%" + query + "%"}
	if projectID != "" {
		q += " AND project_id = ?"
		args = append(args, projectID)
	}
	q += " ORDER BY archived_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := a.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("search archive: %w", err)
	}
	defer rows.Close()

	var out []ArchivedTurn
	for rows.Next() {
		var t ArchivedTurn
		var files sql.NullString
		if err := rows.Scan(&t.ProjectID, &t.Role, &t.Content, &files, &t.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan archive row: %w", err)
		}
		t.FilesTouched = files.String
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats reports how many turns and distinct projects the archive holds.
func (a *Archive) Stats() (Stats, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var s Stats
	row := a.db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT project_id) FROM turn_archive`)
	if err := row.Scan(&s.Turns, &s.Projects); err != nil {
		return Stats{}, fmt.Errorf("archive stats: %w", err)
	}
	return s, nil
}

// turnHash keys a turn by role plus content so the same turn archived before
// and after window eviction dedupes to one row.
func turnHash(t conversation.Turn) string {
	h := crc32.ChecksumIEEE([]byte(string(t.Role) + "\x00" + t.Content))
	return fmt.Sprintf("%08x", h)
}
