package shortener

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shivam-2310/ShortAI/internal/metadata"
	"github.com/Shivam-2310/ShortAI/internal/models"
	"github.com/Shivam-2310/ShortAI/internal/password"
)

// Resolve runs the redirect state machine for an effective key. A mapping is
// in exactly one of five states at resolve time: Missing, Gated, Inactive,
// Expired or Open. Gated resolves only with a verifying password and never
// touches the hot cache.
func (s *Service) Resolve(ctx context.Context, key, suppliedPassword string) (string, error) {
	mapping, err := models.GetMappingByKey(s.DB, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("resolve %q: %w", key, err)
	}

	if mapping.IsPasswordProtected {
		if suppliedPassword == "" {
			return "", ErrNeedsPassword
		}
		if !password.Verify(suppliedPassword, mapping.PasswordHash) {
			return "", ErrBadPassword
		}
	}

	if !mapping.IsActive {
		return "", ErrInactive
	}

	if mapping.IsExpired(time.Now().UTC()) {
		// Drop the stale entry before reporting, so the next request cannot
		// be served an expired redirect from cache.
		s.Cache.Invalidate(ctx, mapping.ShortKey)
		return "", ErrExpired
	}

	if mapping.IsPasswordProtected {
		return mapping.OriginalURL, nil
	}

	if cached, ok := s.Cache.Get(ctx, mapping.ShortKey); ok {
		return cached, nil
	}
	s.Cache.Put(ctx, mapping.ShortKey, mapping.OriginalURL)
	return mapping.OriginalURL, nil
}

type Stats struct {
	OriginalURL string     `json:"originalUrl"`
	ClickCount  int64      `json:"clickCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

func (s *Service) Stats(key string) (*Stats, error) {
	mapping, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	return &Stats{
		OriginalURL: mapping.OriginalURL,
		ClickCount:  mapping.ClickCount,
		CreatedAt:   mapping.CreatedAt,
		ExpiresAt:   mapping.ExpiresAt,
	}, nil
}

type ListItem struct {
	ShortKey            string     `json:"shortKey"`
	CustomAlias         string     `json:"customAlias,omitempty"`
	EffectiveKey        string     `json:"effectiveKey"`
	OriginalURL         string     `json:"originalUrl"`
	ShortURL            string     `json:"shortUrl"`
	ClickCount          int64      `json:"clickCount"`
	CreatedAt           time.Time  `json:"createdAt"`
	ExpiresAt           *time.Time `json:"expiresAt,omitempty"`
	IsPasswordProtected bool       `json:"isPasswordProtected"`
	MetaTitle           string     `json:"metaTitle,omitempty"`
	AICategory          string     `json:"aiCategory,omitempty"`
}

// ListRecent returns the newest active mappings.
func (s *Service) ListRecent() ([]ListItem, error) {
	mappings, err := models.ListRecentMappings(s.DB, recentListLimit)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, 0, len(mappings))
	for i := range mappings {
		m := &mappings[i]
		items = append(items, ListItem{
			ShortKey:            m.ShortKey,
			CustomAlias:         m.CustomAlias,
			EffectiveKey:        m.EffectiveKey(),
			OriginalURL:         m.OriginalURL,
			ShortURL:            s.BaseURL + "/" + m.EffectiveKey(),
			ClickCount:          m.ClickCount,
			CreatedAt:           m.CreatedAt,
			ExpiresAt:           m.ExpiresAt,
			IsPasswordProtected: m.IsPasswordProtected,
			MetaTitle:           m.MetaTitle,
			AICategory:          m.AICategory,
		})
	}
	return items, nil
}

// Preview exposes stored decorations without resolving the target, so a
// gated link can show something before password entry.
func (s *Service) Preview(key string) (*metadata.Metadata, error) {
	mapping, err := s.lookup(key)
	if err != nil {
		return nil, err
	}
	return &metadata.Metadata{
		URL:         s.BaseURL + "/" + mapping.EffectiveKey(),
		Title:       mapping.MetaTitle,
		Description: mapping.MetaDescription,
		ImageURL:    mapping.MetaImageURL,
		FaviconURL:  mapping.MetaFaviconURL,
	}, nil
}

func (s *Service) IsProtected(key string) (bool, error) {
	mapping, err := s.lookup(key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return mapping.IsPasswordProtected, nil
}

// Lookup fetches a mapping by effective key for read-only endpoints.
func (s *Service) Lookup(key string) (*models.Mapping, error) {
	return s.lookup(key)
}

func (s *Service) lookup(key string) (*models.Mapping, error) {
	mapping, err := models.GetMappingByKey(s.DB, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup %q: %w", key, err)
	}
	return mapping, nil
}
