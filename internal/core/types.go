package core

import (
	"context"
	"time"
)

// Mapping is a persisted short code → original URL record.
type Mapping struct {
	ID          string     `json:"-"`
	ShortCode   string     `json:"shortCode"`
	OriginalURL string     `json:"originalUrl"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiryDate  *time.Time `json:"expiryDate"` // nil means the mapping never expires
	ClickCount  int64      `json:"clickCount"`
}

// ExpiredAt reports whether the mapping's expiry is strictly before now.
func (m *Mapping) ExpiredAt(now time.Time) bool {
	return m.ExpiryDate != nil && m.ExpiryDate.Before(now)
}

// ShortURL is the result of a shorten call.
type ShortURL struct {
	ShortURL  string `json:"shortUrl"`
	ShortCode string `json:"shortCode"`
	// Reused is true when an existing live mapping was returned.
	Reused bool `json:"-"`
}

// Store abstracts persistence for mappings.
type Store interface {
	// FindByOriginalURL returns the newest mapping for an exact URL string, or ErrNotFound.
	FindByOriginalURL(ctx context.Context, originalURL string) (*Mapping, error)
	// FindByShortCode returns the mapping for a code (expired ones included), or ErrNotFound.
	FindByShortCode(ctx context.Context, code string) (*Mapping, error)
	// Insert persists a new mapping. Must fail with ErrConflict if the code is taken.
	Insert(ctx context.Context, m *Mapping) error
	// Save updates an existing mapping in place, keyed by its short code.
	Save(ctx context.Context, m *Mapping) error
	// DeleteExpiredBefore deletes mappings whose expiry is strictly before now.
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)
	// Close releases the underlying connection.
	Close() error
}

// CodeGenerator supplies candidate short codes of a given length.
type CodeGenerator interface {
	NewCode(length int) string
}
