// Package session persists expansion state between runs. Each expanded
// node owns one row keyed by (scope, node id); collapsing deletes the
// row, so the table is an exact snapshot of what should re-open on the
// next start. Scopes isolate tabs and store/type selections from each
// other.
package session

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rentscan/tagview/pkg/logging"
	"github.com/rentscan/tagview/pkg/tree"
)

const schema = `
CREATE TABLE IF NOT EXISTS expansion (
	scope      TEXT NOT NULL,
	node_id    TEXT NOT NULL,
	level      TEXT NOT NULL,
	parent_key TEXT NOT NULL DEFAULT '',
	page       INTEGER NOT NULL DEFAULT 1,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (scope, node_id)
);
`

// ScopeKey builds the session scope for one tab under the current store
// and inventory-type selection. Changing any part yields a different
// scope, so each combination remembers its own tree.
func ScopeKey(tab, store, invType string) string {
	return strings.Join([]string{tab, store, invType}, "|")
}

// Record is one persisted expansion row.
type Record struct {
	Scope     string
	NodeID    string
	Level     tree.Level
	ParentKey string
	Page      int
	UpdatedAt time.Time
}

// ScopeSummary aggregates one scope's rows for the session CLI.
type ScopeSummary struct {
	Scope     string
	Count     int
	UpdatedAt time.Time
}

// Store wraps the session SQLite database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates the database file (and parent directories) if missing and
// prepares the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open session database: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			logging.Debugf("session pragma %q: %v", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare session schema: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Put upserts one expansion row for the scope.
func (s *Store) Put(scope string, rec tree.Record) error {
	_, err := s.db.Exec(`
		INSERT INTO expansion (scope, node_id, level, parent_key, page, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (scope, node_id) DO UPDATE SET
			level = excluded.level,
			parent_key = excluded.parent_key,
			page = excluded.page,
			updated_at = excluded.updated_at`,
		scope, rec.NodeID, rec.Level.String(), rec.ParentKey, rec.Page, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert expansion row: %w", err)
	}
	return nil
}

// Delete removes the given node ids from the scope. Unknown ids are
// ignored.
func (s *Store) Delete(scope string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, 1+len(ids))
	args = append(args, scope)
	for _, id := range ids {
		args = append(args, id)
	}
	query := fmt.Sprintf("DELETE FROM expansion WHERE scope = ? AND node_id IN (%s)", placeholders)
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("delete expansion rows: %w", err)
	}
	return nil
}

// List returns the scope's rows ordered parents before children. Node ids
// extend their parent's id, so lexicographic order is already a valid
// restore order. Rows with an unknown level name are skipped; they come
// from newer or older builds and cannot be restored anyway.
func (s *Store) List(scope string) ([]Record, error) {
	rows, err := s.db.Query(`
		SELECT node_id, level, parent_key, page, updated_at
		FROM expansion
		WHERE scope = ?
		ORDER BY node_id`, scope)
	if err != nil {
		return nil, fmt.Errorf("query expansion rows: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			levelName string
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&rec.NodeID, &levelName, &rec.ParentKey, &rec.Page, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan expansion row: %w", err)
		}
		level, ok := tree.ParseLevel(levelName)
		if !ok {
			logging.Warnf("skipping session row %s with unknown level %q", rec.NodeID, levelName)
			continue
		}
		rec.Scope = scope
		rec.Level = level
		if updatedAt.Valid {
			rec.UpdatedAt = updatedAt.Time
		}
		if rec.Page < 1 {
			rec.Page = 1
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expansion rows: %w", err)
	}
	return out, nil
}

// ClearScope deletes every row of one scope.
func (s *Store) ClearScope(scope string) error {
	if _, err := s.db.Exec("DELETE FROM expansion WHERE scope = ?", scope); err != nil {
		return fmt.Errorf("clear scope %s: %w", scope, err)
	}
	return nil
}

// Clear deletes every row of every scope.
func (s *Store) Clear() error {
	if _, err := s.db.Exec("DELETE FROM expansion"); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Scopes summarizes the stored scopes for the session CLI.
func (s *Store) Scopes() ([]ScopeSummary, error) {
	rows, err := s.db.Query(`
		SELECT scope, COUNT(*), MAX(updated_at)
		FROM expansion
		GROUP BY scope
		ORDER BY scope`)
	if err != nil {
		return nil, fmt.Errorf("query scopes: %w", err)
	}
	defer rows.Close()

	var out []ScopeSummary
	for rows.Next() {
		var (
			sum       ScopeSummary
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&sum.Scope, &sum.Count, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan scope summary: %w", err)
		}
		if updatedAt.Valid {
			sum.UpdatedAt = updatedAt.Time
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scopes: %w", err)
	}
	return out, nil
}

// ForScope binds the store to one scope as a tree.RecordStore.
func (s *Store) ForScope(scope string) *ScopeStore {
	return &ScopeStore{store: s, scope: scope}
}

// ScopeStore adapts one scope of the Store to the registry's
// RecordStore interface.
type ScopeStore struct {
	store *Store
	scope string
}

var _ tree.RecordStore = (*ScopeStore)(nil)

// Put upserts one record under the bound scope.
func (s *ScopeStore) Put(rec tree.Record) error {
	return s.store.Put(s.scope, rec)
}

// Delete removes the ids under the bound scope.
func (s *ScopeStore) Delete(ids ...string) error {
	return s.store.Delete(s.scope, ids...)
}

// Scope returns the bound scope key.
func (s *ScopeStore) Scope() string { return s.scope }
