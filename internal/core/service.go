package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultCodeLength is the length of generated short codes.
	DefaultCodeLength = 6
	// RetentionDays is how long a new mapping stays resolvable.
	RetentionDays = 15

	// attemptsPerLength bounds the uniqueness probes at each code length.
	attemptsPerLength = 10
	// fallbackLengths is how many longer lengths are tried once the default one is crowded.
	fallbackLengths = 1
)

// Service implements the business logic for creating and resolving short URLs.
type Service struct {
	store      Store
	gen        CodeGenerator
	baseURL    string
	codeLength int
	nowFunc    func() time.Time
	log        *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.nowFunc = now }
}

// WithCodeLength sets the generated code length (default 6).
func WithCodeLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.codeLength = n
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(store Store, gen CodeGenerator, baseURL string, opts ...Option) *Service {
	s := &Service{
		store:      store,
		gen:        gen,
		baseURL:    strings.TrimRight(baseURL, "/"),
		codeLength: DefaultCodeLength,
		nowFunc:    time.Now,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateShortURL validates originalURL and returns a short link for it. A live mapping for
// the exact same string is reused; an expired one is left alone and a new row is created.
func (s *Service) CreateShortURL(ctx context.Context, originalURL string) (*ShortURL, error) {
	if !ValidURL(originalURL) {
		return nil, ErrInvalidURL
	}

	now := s.nowFunc()
	existing, err := s.store.FindByOriginalURL(ctx, originalURL)
	switch {
	case err == nil:
		if existing.ExpiryDate == nil || existing.ExpiryDate.After(now) {
			return &ShortURL{ShortURL: s.compose(existing.ShortCode), ShortCode: existing.ShortCode, Reused: true}, nil
		}
	case !IsNotFound(err):
		return nil, fmt.Errorf("find by original url: %w", err)
	}

	expiry := now.AddDate(0, 0, RetentionDays)
	rec := &Mapping{
		OriginalURL: originalURL,
		CreatedAt:   now,
		ExpiryDate:  &expiry,
		ClickCount:  0,
	}
	if err := s.insertUnique(ctx, rec); err != nil {
		return nil, err
	}
	return &ShortURL{ShortURL: s.compose(rec.ShortCode), ShortCode: rec.ShortCode}, nil
}

// insertUnique assigns rec a code that no row (live or expired) holds yet and inserts it.
// A lost insert race counts as a collision.
func (s *Service) insertUnique(ctx context.Context, rec *Mapping) error {
	for length := s.codeLength; length <= s.codeLength+fallbackLengths; length++ {
		for i := 0; i < attemptsPerLength; i++ {
			code := s.gen.NewCode(length)
			_, err := s.store.FindByShortCode(ctx, code)
			if err == nil {
				continue
			}
			if !IsNotFound(err) {
				return fmt.Errorf("probe code: %w", err)
			}

			rec.ShortCode = code
			err = s.store.Insert(ctx, rec)
			if err == nil {
				return nil
			}
			if !IsConflict(err) {
				return fmt.Errorf("insert mapping: %w", err)
			}
		}
		s.log.Warn("short code space crowded, trying longer codes",
			zap.Int("length", length), zap.Int("attempts", attemptsPerLength))
	}
	return ErrExhaustedCodespace
}

// GetOriginalURL resolves code and counts the click. Unknown and expired codes are ErrNotFound.
// The increment is read-modify-write, so concurrent resolutions may lose clicks.
func (s *Service) GetOriginalURL(ctx context.Context, code string) (string, error) {
	rec, err := s.store.FindByShortCode(ctx, code)
	if err != nil {
		if IsNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("find by code: %w", err)
	}
	if rec.ExpiredAt(s.nowFunc()) {
		return "", ErrNotFound
	}

	rec.ClickCount++
	if err := s.store.Save(ctx, rec); err != nil {
		return "", fmt.Errorf("save click: %w", err)
	}
	return rec.OriginalURL, nil
}

// GetURLStats returns the record whether or not it is expired.
func (s *Service) GetURLStats(ctx context.Context, code string) (*Mapping, error) {
	rec, err := s.store.FindByShortCode(ctx, code)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find by code: %w", err)
	}
	return rec, nil
}

// CleanupExpiredURLs purges mappings whose expiry has passed and returns how many were removed.
func (s *Service) CleanupExpiredURLs(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredBefore(ctx, s.nowFunc())
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	return n, nil
}

func (s *Service) compose(code string) string {
	return s.baseURL + "/" + code
}

// ValidURL reports whether raw is an absolute http or https URL with a host.
func ValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
