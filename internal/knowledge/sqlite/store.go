// Package sqlite persists the knowledge index's per-note metadata so a
// cold-started xnote process can skip re-tokenizing notes whose content
// hasn't changed since the last run.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CachePath returns the conventional cache location rooted under a vault's
// ".xnote/meta" metadata directory.
func CachePath(vaultRoot string) string {
	return filepath.Join(vaultRoot, ".xnote", "meta", "knowledge_cache.sqlite")
}

// CachedNote is one persisted row: everything RebuildFromVaultCached needs
// to reinsert a note into the in-memory index without re-reading its file.
type CachedNote struct {
	Path       string
	Title      string
	TagsCSV    string
	LinksCSV   string
	TokensCSV  string
	ModUnix    int64
	Size       int64
}

// Store wraps a SQLite-backed cache of CachedNote rows keyed by vault-
// relative path.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS note_cache (
			path       TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			tags_csv   TEXT NOT NULL DEFAULT '',
			links_csv  TEXT NOT NULL DEFAULT '',
			tokens_csv TEXT NOT NULL DEFAULT '',
			mod_unix   INTEGER NOT NULL,
			size       INTEGER NOT NULL
		);
	`)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces note's cached row.
func (s *Store) Upsert(ctx context.Context, note CachedNote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO note_cache (path, title, tags_csv, links_csv, tokens_csv, mod_unix, size)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			tags_csv = excluded.tags_csv,
			links_csv = excluded.links_csv,
			tokens_csv = excluded.tokens_csv,
			mod_unix = excluded.mod_unix,
			size = excluded.size
	`, note.Path, note.Title, note.TagsCSV, note.LinksCSV, note.TokensCSV, note.ModUnix, note.Size)
	return err
}

// Get returns the cached row for path, if present.
func (s *Store) Get(ctx context.Context, path string) (CachedNote, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT path, title, tags_csv, links_csv, tokens_csv, mod_unix, size
		FROM note_cache WHERE path = ?
	`, path)

	var n CachedNote
	if err := row.Scan(&n.Path, &n.Title, &n.TagsCSV, &n.LinksCSV, &n.TokensCSV, &n.ModUnix, &n.Size); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CachedNote{}, false, nil
		}
		return CachedNote{}, false, err
	}
	return n, true, nil
}

// ListPaths returns every cached path, for pruning against a live scan.
func (s *Store) ListPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM note_cache`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteNotIn removes every cached row whose path is not in keep.
func (s *Store) DeleteNotIn(ctx context.Context, keep []string) error {
	if len(keep) == 0 {
		_, err := s.db.ExecContext(ctx, `DELETE FROM note_cache`)
		return err
	}
	holders := make([]byte, 0, 2*len(keep))
	args := make([]any, len(keep))
	for i, p := range keep {
		if i > 0 {
			holders = append(holders, ',')
		}
		holders = append(holders, '?')
		args[i] = p
	}
	query := fmt.Sprintf(`DELETE FROM note_cache WHERE path NOT IN (%s)`, string(holders))
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Count returns the number of cached rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM note_cache`).Scan(&n)
	return n, err
}
