package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"

	_ "modernc.org/sqlite" // pure-Go SQLite driver (no CGO)
)

// Store implements core.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite DB at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: SQLite serializes writers anyway and ":memory:" is per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;")
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL;")

	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying DB.
func (s *Store) Close() error { return s.db.Close() }

const selectColumns = `SELECT id, short_code, original_url, created_at, expiry_date, click_count FROM urls`

// FindByOriginalURL returns the newest mapping for originalURL.
func (s *Store) FindByOriginalURL(ctx context.Context, originalURL string) (*core.Mapping, error) {
	const q = selectColumns + `
WHERE original_url = ?
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	return scanMapping(s.db.QueryRowContext(ctx, q, originalURL))
}

// FindByShortCode returns a mapping for the given code (expired included).
func (s *Store) FindByShortCode(ctx context.Context, code string) (*core.Mapping, error) {
	const q = selectColumns + `
WHERE short_code = ?
LIMIT 1;`
	return scanMapping(s.db.QueryRowContext(ctx, q, code))
}

// Insert adds a new mapping. Returns core.ErrConflict if the code already exists.
func (s *Store) Insert(ctx context.Context, m *core.Mapping) error {
	const q = `
INSERT INTO urls(short_code, original_url, created_at, expiry_date, click_count)
VALUES (?, ?, ?, ?, ?);`
	res, err := s.db.ExecContext(ctx, q, m.ShortCode, m.OriginalURL, toNanos(m.CreatedAt), nullNanos(m.ExpiryDate), m.ClickCount)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrConflict
		}
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		m.ID = strconv.FormatInt(id, 10)
	}
	return nil
}

// Save writes every mutable field of m back to the row holding its short code.
func (s *Store) Save(ctx context.Context, m *core.Mapping) error {
	const q = `
UPDATE urls
SET original_url = ?, expiry_date = ?, click_count = ?
WHERE short_code = ?;`
	res, err := s.db.ExecContext(ctx, q, m.OriginalURL, nullNanos(m.ExpiryDate), m.ClickCount, m.ShortCode)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteExpiredBefore deletes mappings that expired strictly before now.
func (s *Store) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	const q = `
DELETE FROM urls
WHERE expiry_date IS NOT NULL AND expiry_date < ?;`
	res, err := s.db.ExecContext(ctx, q, toNanos(now))
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func scanMapping(row *sql.Row) (*core.Mapping, error) {
	var (
		rec     core.Mapping
		id      int64
		created int64
		expires sql.NullInt64
	)
	if err := row.Scan(&id, &rec.ShortCode, &rec.OriginalURL, &created, &expires, &rec.ClickCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	rec.ID = strconv.FormatInt(id, 10)
	rec.CreatedAt = time.Unix(0, created).UTC()
	if expires.Valid {
		t := time.Unix(0, expires.Int64).UTC()
		rec.ExpiryDate = &t
	}
	return &rec, nil
}

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func nullNanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toNanos(*t)
}

// isUniqueViolation detects unique violations by message to keep the driver import blank.
func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// Compile-time check: *Store implements core.Store.
var _ core.Store = (*Store)(nil)
