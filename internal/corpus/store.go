package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/filippog/doaddoad/internal/logging"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// stateFormat is written to the meta table and checked on load.
const stateFormat = "1"

// Store maps post ids to posts and snapshots the mapping to an SQLite file.
//
// The in-memory map is the source of truth while the process runs. Load
// replaces it from disk, Save trims it and replaces the file contents in a
// single transaction, so a crash mid-save leaves the previous snapshot.
type Store struct {
	path  string
	posts map[int64]*Post
}

// NewStore creates an empty store persisted at path. Nothing touches the
// filesystem until Load or Save.
func NewStore(path string) *Store {
	return &Store{
		path:  path,
		posts: make(map[int64]*Post),
	}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Add inserts p unless a post with the same id is already stored.
// Returns true if p was inserted.
func (s *Store) Add(p *Post) bool {
	if _, ok := s.posts[p.ID]; ok {
		return false
	}
	s.posts[p.ID] = p
	return true
}

// Get returns the post with the given id.
func (s *Store) Get(id int64) (*Post, bool) {
	p, ok := s.posts[id]
	return p, ok
}

// Len returns the number of stored posts.
func (s *Store) Len() int {
	return len(s.posts)
}

// IDs returns all post ids in ascending order.
func (s *Store) IDs() []int64 {
	ids := make([]int64, 0, len(s.posts))
	for id := range s.posts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Posts returns all posts ordered by ascending id.
func (s *Store) Posts() []*Post {
	ids := s.IDs()
	posts := make([]*Post, len(ids))
	for i, id := range ids {
		posts[i] = s.posts[id]
	}
	return posts
}

// Trim keeps only the limit posts with the largest ids and returns how
// many were deleted. A limit of 0 (or less) disables trimming.
//
// Ids are assumed to grow with posting time, so this keeps the newest posts
// without looking at timestamps.
func (s *Store) Trim(limit int) int {
	if limit <= 0 || len(s.posts) <= limit {
		return 0
	}
	ids := s.IDs()
	drop := ids[:len(ids)-limit]
	for _, id := range drop {
		delete(s.posts, id)
	}
	return len(drop)
}

// Load replaces the in-memory posts with the persisted snapshot. A missing
// state file leaves the store empty and is not an error; an unreadable one
// returns a *PersistenceError.
func (s *Store) Load(ctx context.Context) error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		logging.Debug("No state file, starting with an empty corpus", "path", s.path)
		s.posts = make(map[int64]*Post)
		return nil
	}

	logging.Debug("Loading state", "path", s.path)
	posts, err := s.read(ctx)
	if err != nil {
		return &PersistenceError{Path: s.path, Op: "load", Err: err}
	}
	s.posts = posts
	logging.Debug("State loaded", "path", s.path, "posts", len(posts))
	return nil
}

// Save trims the store to limit posts (0 keeps everything) and writes the
// whole mapping to the state file, replacing the previous snapshot.
func (s *Store) Save(ctx context.Context, limit int) error {
	if n := s.Trim(limit); n > 0 {
		logging.Debug("Trimmed state", "deleted", n, "limit", limit)
	}

	logging.Debug("Saving state", "path", s.path, "posts", len(s.posts))
	if err := s.write(ctx, time.Now()); err != nil {
		return &PersistenceError{Path: s.path, Op: "save", Err: err}
	}
	return nil
}

// SavedAt returns when the state file was last saved, or the zero time if
// it has never been saved.
func (s *Store) SavedAt(ctx context.Context) (time.Time, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}

	db, err := s.open()
	if err != nil {
		return time.Time{}, &PersistenceError{Path: s.path, Op: "load", Err: err}
	}
	defer db.Close()

	meta, err := readMeta(ctx, db)
	if err != nil {
		return time.Time{}, &PersistenceError{Path: s.path, Op: "load", Err: err}
	}
	if meta["saved_at"] == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, meta["saved_at"])
	if err != nil {
		return time.Time{}, &PersistenceError{Path: s.path, Op: "load", Err: fmt.Errorf("bad saved_at: %w", err)}
	}
	return t, nil
}

func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection so pragmas and the transaction share a handle.
	db.SetMaxOpenConns(1)
	return db, nil
}

func (s *Store) read(ctx context.Context) (map[int64]*Post, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	meta, err := readMeta(ctx, db)
	if err != nil {
		return nil, err
	}
	if meta["format"] != stateFormat {
		return nil, fmt.Errorf("unsupported state format %q", meta["format"])
	}

	rows, err := db.QueryContext(ctx, `SELECT id, text, author, lang, observed_at FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make(map[int64]*Post)
	for rows.Next() {
		p := &Post{}
		var language sql.NullString
		if err := rows.Scan(&p.ID, &p.Text, &p.Author, &language, &p.Observed); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		if language.Valid {
			p.setLanguage(language.String)
		}
		posts[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// readMeta fails when the file is not an SQLite database or was not
// written by this package.
func readMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("not a doaddoad state file: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan meta: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (s *Store) write(ctx context.Context, now time.Time) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback is safe to call even after commit - it's a no-op
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("clear posts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (id, text, author, lang, observed_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range s.posts {
		var language sql.NullString
		if p.tagged {
			language = sql.NullString{String: p.language, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Text, p.Author, language, p.Observed); err != nil {
			return fmt.Errorf("insert post %d: %w", p.ID, err)
		}
	}

	meta := map[string]string{
		"format":   stateFormat,
		"saved_at": now.UTC().Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO meta (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return fmt.Errorf("write meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY,
		text TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		lang TEXT,
		observed_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}
