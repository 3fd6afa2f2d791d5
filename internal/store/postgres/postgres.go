// Package postgres is the PostgreSQL mapping store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"
)

const uniqueViolation = "23505"

// Store implements core.Store backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open connects to databaseURL (postgres://...) and migrates the schema.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrateUp(databaseURL); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

const selectColumns = `SELECT id, short_code, original_url, created_at, expiry_date, click_count FROM urls`

func (s *Store) FindByOriginalURL(ctx context.Context, originalURL string) (*core.Mapping, error) {
	const q = selectColumns + `
		WHERE original_url = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	return scanMapping(s.db.QueryRowContext(ctx, q, originalURL))
}

func (s *Store) FindByShortCode(ctx context.Context, code string) (*core.Mapping, error) {
	const q = selectColumns + `
		WHERE short_code = $1`
	return scanMapping(s.db.QueryRowContext(ctx, q, code))
}

// Insert adds m and fills its ID. A taken short code is core.ErrConflict.
func (s *Store) Insert(ctx context.Context, m *core.Mapping) error {
	const q = `
		INSERT INTO urls (short_code, original_url, created_at, expiry_date, click_count)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id int64
	err := s.db.QueryRowContext(ctx, q,
		m.ShortCode,
		m.OriginalURL,
		m.CreatedAt.UTC(),
		nullTime(m.ExpiryDate),
		m.ClickCount,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return core.ErrConflict
		}
		return err
	}
	m.ID = strconv.FormatInt(id, 10)
	return nil
}

// Save writes m back over the row with the same short code.
func (s *Store) Save(ctx context.Context, m *core.Mapping) error {
	const q = `
		UPDATE urls
		SET original_url = $1, expiry_date = $2, click_count = $3
		WHERE short_code = $4`
	res, err := s.db.ExecContext(ctx, q, m.OriginalURL, nullTime(m.ExpiryDate), m.ClickCount, m.ShortCode)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM urls WHERE expiry_date IS NOT NULL AND expiry_date < $1`
	res, err := s.db.ExecContext(ctx, q, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanMapping(row *sql.Row) (*core.Mapping, error) {
	var (
		rec     core.Mapping
		id      int64
		expires sql.NullTime
	)
	err := row.Scan(&id, &rec.ShortCode, &rec.OriginalURL, &rec.CreatedAt, &expires, &rec.ClickCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	rec.ID = strconv.FormatInt(id, 10)
	rec.CreatedAt = rec.CreatedAt.UTC()
	if expires.Valid {
		t := expires.Time.UTC()
		rec.ExpiryDate = &t
	}
	return &rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

var _ core.Store = (*Store)(nil)
