package annotation

import (
	"database/sql"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/Shivam-2310/ShortAI/internal/models"
)

const memCacheSize = 1024

// Store is the content-addressed annotation cache: an in-process expirable
// LRU in front of the sqlite table. Repeat analyses of the same URL coalesce
// on the LRU without touching the database.
type Store struct {
	db  *sql.DB
	mem *expirable.LRU[string, *models.Annotation]
	ttl time.Duration
}

func NewStore(db *sql.DB, ttl time.Duration) *Store {
	return &Store{
		db:  db,
		mem: expirable.NewLRU[string, *models.Annotation](memCacheSize, nil, ttl),
		ttl: ttl,
	}
}

// TTL is the configured annotation lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the cached annotation for a URL hash, or false when absent or
// expired. Expired rows are deleted lazily.
func (s *Store) Get(urlHash string) (*models.Annotation, bool) {
	now := time.Now().UTC()

	if a, ok := s.mem.Get(urlHash); ok && !a.IsExpired(now) {
		return a, true
	}

	a, err := models.GetAnnotationByHash(s.db, urlHash)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Str("hash", urlHash).Msg("annotation lookup failed")
		}
		return nil, false
	}
	if a.IsExpired(now) {
		if _, err := s.db.Exec(`DELETE FROM ai_annotations WHERE url_hash = ?`, urlHash); err != nil {
			log.Warn().Err(err).Str("hash", urlHash).Msg("expired annotation delete failed")
		}
		s.mem.Remove(urlHash)
		return nil, false
	}

	s.mem.Add(urlHash, a)
	return a, true
}

// Put replaces any prior annotation for the hash. Last writer wins.
func (s *Store) Put(a *models.Annotation) error {
	if err := models.UpsertAnnotation(s.db, a); err != nil {
		return err
	}
	s.mem.Add(a.URLHash, a)
	return nil
}

// Sweep removes expired rows. Called by the hourly cleanup job.
func (s *Store) Sweep(now time.Time) (int64, error) {
	s.mem.Purge()
	return models.DeleteExpiredAnnotations(s.db, now)
}
