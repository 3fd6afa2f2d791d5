package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shivamsaksham/Mini-Url-Shortener/internal/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	tc.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("urlshorty"),
		tcpostgres.WithUsername("urlshorty"),
		tcpostgres.WithPassword("urlshorty"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	// a second Open finds the schema already migrated
	again, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, again.Close())
	return s
}

func ptr(t time.Time) *time.Time { return &t }

func TestStore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("insert and find", func(t *testing.T) {
		m := &core.Mapping{ShortCode: "abc123", OriginalURL: "https://example.com/a/b?x=1", CreatedAt: now, ExpiryDate: ptr(now.AddDate(0, 0, 15))}
		require.NoError(t, s.Insert(ctx, m))
		assert.NotEmpty(t, m.ID)

		got, err := s.FindByShortCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, m.OriginalURL, got.OriginalURL)
		assert.True(t, now.Equal(got.CreatedAt))
		require.NotNil(t, got.ExpiryDate)
		assert.True(t, now.AddDate(0, 0, 15).Equal(*got.ExpiryDate))

		_, err = s.FindByShortCode(ctx, "zzz999")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("conflict", func(t *testing.T) {
		err := s.Insert(ctx, &core.Mapping{ShortCode: "abc123", OriginalURL: "https://other.example", CreatedAt: now})
		assert.ErrorIs(t, err, core.ErrConflict)
	})

	t.Run("newest by original url", func(t *testing.T) {
		later := now.Add(time.Hour)
		require.NoError(t, s.Insert(ctx, &core.Mapping{ShortCode: "abc124", OriginalURL: "https://example.com/a/b?x=1", CreatedAt: later}))

		got, err := s.FindByOriginalURL(ctx, "https://example.com/a/b?x=1")
		require.NoError(t, err)
		assert.Equal(t, "abc124", got.ShortCode)
		assert.Nil(t, got.ExpiryDate)
	})

	t.Run("save", func(t *testing.T) {
		got, err := s.FindByShortCode(ctx, "abc123")
		require.NoError(t, err)
		got.ClickCount++
		require.NoError(t, s.Save(ctx, got))

		got, err = s.FindByShortCode(ctx, "abc123")
		require.NoError(t, err)
		assert.EqualValues(t, 1, got.ClickCount)

		assert.ErrorIs(t, s.Save(ctx, &core.Mapping{ShortCode: "ghost1"}), core.ErrNotFound)
	})

	t.Run("delete expired", func(t *testing.T) {
		require.NoError(t, s.Insert(ctx, &core.Mapping{ShortCode: "old001", OriginalURL: "https://old.example", CreatedAt: now, ExpiryDate: ptr(now.Add(-time.Minute))}))

		n, err := s.DeleteExpiredBefore(ctx, now)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		_, err = s.FindByShortCode(ctx, "old001")
		assert.ErrorIs(t, err, core.ErrNotFound)
		_, err = s.FindByShortCode(ctx, "abc123")
		assert.NoError(t, err)
	})
}
