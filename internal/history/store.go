// Package history persists clipboard items in an embedded SQLite
// database, content-addressed by digest. The engine's UNIQUE constraint
// on the digest column is the sole dedup/concurrency mechanism: a
// re-captured content never creates a second row, it only refreshes the
// existing row's recency timestamp.
package history

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/clipvault/clipvault/internal/item"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultLimit bounds list and search queries when the caller passes a
// non-positive limit.
const DefaultLimit = 100

// ErrNotFound is returned when an id does not exist.
var ErrNotFound = errors.New("history: item not found")

// Listener is notified of structural store changes. Only one listener
// is supported; it is invoked synchronously from the mutating call.
type Listener interface {
	ItemAdded(*item.Item)
	ItemRemoved(id int64)
	Cleared()
}

// Store is the content-addressed history database. The connection is
// owned by the store and, in the daemon, only ever touched from the
// event loop.
type Store struct {
	db       *sql.DB
	path     string
	listener Listener
}

// DefaultPath returns the per-user database location,
// <user-data-dir>/clipvault/history.db.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "clipvault", "history.db")
}

// Open opens (creating if necessary) the history database at path and
// applies pending migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SetListener registers a change listener. Calling again replaces it.
func (s *Store) SetListener(l Listener) { s.listener = l }

// Upsert stores an item, or touches the existing row when the digest is
// already present. It returns the row id and whether a new row was
// added. The item's ID and CapturedAt are updated in place.
func (s *Store) Upsert(ctx context.Context, it *item.Item) (int64, bool, error) {
	now := time.Now().Unix()

	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM items WHERE digest = ?`, it.Digest).Scan(&id)
	switch {
	case err == nil:
		return id, false, s.touch(ctx, it, id, now)
	case !errors.Is(err, sql.ErrNoRows):
		return 0, false, fmt.Errorf("lookup digest: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO items (type, source, digest, label, text_content, image_data, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int(it.Type), int(it.Source), it.Digest, it.Label,
		textColumn(it), imageColumn(it), now)
	if err != nil {
		// A concurrent writer may have won the UNIQUE(digest) race;
		// fall back to the touch path.
		var raceID int64
		if serr := s.db.QueryRowContext(ctx,
			`SELECT id FROM items WHERE digest = ?`, it.Digest).Scan(&raceID); serr == nil {
			return raceID, false, s.touch(ctx, it, raceID, now)
		}
		return 0, false, fmt.Errorf("insert item: %w", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("insert id: %w", err)
	}
	it.ID = id
	it.CapturedAt = time.Unix(now, 0)
	if s.listener != nil {
		s.listener.ItemAdded(it)
	}
	return id, true, nil
}

func (s *Store) touch(ctx context.Context, it *item.Item, id int64, now int64) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE items SET captured_at = ? WHERE id = ?`, now, id); err != nil {
		return fmt.Errorf("touch item: %w", err)
	}
	it.ID = id
	it.CapturedAt = time.Unix(now, 0)
	return nil
}

// Remove deletes the row with the given id. ErrNotFound when absent.
func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if s.listener != nil {
		s.listener.ItemRemoved(id)
	}
	return nil
}

// Clear deletes all rows.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	if s.listener != nil {
		s.listener.Cleared()
	}
	return nil
}

const selectCols = `id, type, source, digest, label, text_content, image_data, captured_at`

// List returns up to limit items, most recent first (ties broken by id
// descending). A non-positive limit means DefaultLimit.
func (s *Store) List(ctx context.Context, limit int) ([]*item.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectCols+` FROM items ORDER BY captured_at DESC, id DESC LIMIT ?`,
		normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return collect(rows)
}

// Search returns up to limit items whose raw text or label contains
// query as a literal substring, most recent first. An empty query
// behaves as List.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*item.Item, error) {
	if query == "" {
		return s.List(ctx, limit)
	}
	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectCols+` FROM items
		WHERE text_content LIKE ? ESCAPE '\' OR label LIKE ? ESCAPE '\'
		ORDER BY captured_at DESC, id DESC LIMIT ?`,
		pattern, pattern, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return collect(rows)
}

// Get returns the item with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*item.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+selectCols+` FROM items WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, err
}

// GetByDigest returns the item with the given digest, or ErrNotFound.
func (s *Store) GetByDigest(ctx context.Context, digest string) (*item.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+selectCols+` FROM items WHERE digest = ?`, digest))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, err
}

// Latest returns the most recently captured item, or ErrNotFound on an
// empty store.
func (s *Store) Latest(ctx context.Context) (*item.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+selectCols+` FROM items ORDER BY captured_at DESC, id DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return it, err
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n)
	return n, err
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// escapeLike makes query literal inside a LIKE pattern.
func escapeLike(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}

func textColumn(it *item.Item) any {
	if it.Type == item.TypeImage {
		return nil
	}
	return it.Text
}

func imageColumn(it *item.Item) any {
	if it.Type != item.TypeImage || len(it.Image) == 0 {
		return nil
	}
	return it.Image
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem reconstructs an item from a row. The persisted digest is
// reused as-is, never recomputed.
func scanItem(row rowScanner) (*item.Item, error) {
	var (
		it   item.Item
		typ  int
		src  int
		text sql.NullString
		ts   int64
	)
	if err := row.Scan(&it.ID, &typ, &src, &it.Digest, &it.Label,
		&text, &it.Image, &ts); err != nil {
		return nil, err
	}
	it.Type = item.Type(typ)
	it.Source = item.Source(src)
	it.CapturedAt = time.Unix(ts, 0)

	switch it.Type {
	case item.TypeText:
		it.Text = text.String
	case item.TypeFiles:
		it.Text = text.String
		if text.String != "" {
			it.URIs = strings.Split(text.String, "\n")
		}
	case item.TypeImage:
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(it.Image)); err == nil {
			it.Width, it.Height = cfg.Width, cfg.Height
		}
	}
	return &it, nil
}

func collect(rows *sql.Rows) ([]*item.Item, error) {
	defer rows.Close()
	var out []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
