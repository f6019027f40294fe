package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Annotation is the content-addressed cache row for one analyzed URL, keyed
// by SHA-256 of the URL. It exists independently of any mapping.
type Annotation struct {
	ID            int64
	URLHash       string
	OriginalURL   string
	Summary       string
	Category      string
	Tags          string
	SafetyScore   float64
	IsSafe        bool
	SafetyReasons string
	AnalyzedAt    time.Time
	ExpiresAt     time.Time
}

func (a *Annotation) IsExpired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}

func GetAnnotationByHash(db *sql.DB, urlHash string) (*Annotation, error) {
	a := &Annotation{}
	var safe int
	err := db.QueryRow(
		`SELECT id, url_hash, original_url, COALESCE(summary, ''), COALESCE(category, ''),
			COALESCE(tags, ''), COALESCE(safety_score, 0), is_safe, COALESCE(safety_reasons, ''),
			analyzed_at, expires_at
		 FROM ai_annotations WHERE url_hash = ?`,
		urlHash,
	).Scan(&a.ID, &a.URLHash, &a.OriginalURL, &a.Summary, &a.Category,
		&a.Tags, &a.SafetyScore, &safe, &a.SafetyReasons, &a.AnalyzedAt, &a.ExpiresAt)
	if err != nil {
		return nil, err
	}
	a.IsSafe = safe == 1
	return a, nil
}

// UpsertAnnotation replaces any prior row for the same hash. Last writer wins.
func UpsertAnnotation(db *sql.DB, a *Annotation) error {
	_, err := db.Exec(
		`INSERT INTO ai_annotations (url_hash, original_url, summary, category, tags, safety_score, is_safe, safety_reasons, analyzed_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url_hash) DO UPDATE SET
			original_url = excluded.original_url,
			summary = excluded.summary,
			category = excluded.category,
			tags = excluded.tags,
			safety_score = excluded.safety_score,
			is_safe = excluded.is_safe,
			safety_reasons = excluded.safety_reasons,
			analyzed_at = excluded.analyzed_at,
			expires_at = excluded.expires_at`,
		a.URLHash, a.OriginalURL, a.Summary, a.Category, a.Tags,
		a.SafetyScore, boolToInt(a.IsSafe), a.SafetyReasons, a.AnalyzedAt, a.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert annotation: %w", err)
	}
	return nil
}

func DeleteExpiredAnnotations(db *sql.DB, now time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM ai_annotations WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired annotations: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
