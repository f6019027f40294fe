package models

import (
	"database/sql"
	"fmt"
	"time"
)

type Mapping struct {
	ID                  int64      `json:"id"`
	OriginalURL         string     `json:"originalUrl"`
	ShortKey            string     `json:"shortKey"`
	CustomAlias         string     `json:"customAlias,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	ExpiresAt           *time.Time `json:"expiresAt,omitempty"`
	ClickCount          int64      `json:"clickCount"`
	IsActive            bool       `json:"isActive"`
	PasswordHash        string     `json:"-"`
	IsPasswordProtected bool       `json:"isPasswordProtected"`

	MetaTitle       string     `json:"metaTitle,omitempty"`
	MetaDescription string     `json:"metaDescription,omitempty"`
	MetaImageURL    string     `json:"metaImageUrl,omitempty"`
	MetaFaviconURL  string     `json:"metaFaviconUrl,omitempty"`
	MetaFetchedAt   *time.Time `json:"metaFetchedAt,omitempty"`

	AISummary     string     `json:"aiSummary,omitempty"`
	AICategory    string     `json:"aiCategory,omitempty"`
	AITags        string     `json:"aiTags,omitempty"`
	AISafetyScore *float64   `json:"aiSafetyScore,omitempty"`
	AIAnalyzedAt  *time.Time `json:"aiAnalyzedAt,omitempty"`
}

// EffectiveKey is the alias when present, else the short key. It is the form
// used in the public short URL.
func (m *Mapping) EffectiveKey() string {
	if m.CustomAlias != "" {
		return m.CustomAlias
	}
	return m.ShortKey
}

// IsExpired treats expires_at exactly equal to now as expired.
func (m *Mapping) IsExpired(now time.Time) bool {
	if m.ExpiresAt == nil {
		return false
	}
	return !m.ExpiresAt.After(now)
}

const mappingColumns = `id, original_url, COALESCE(short_key, ''), COALESCE(custom_alias, ''),
	created_at, expires_at, click_count, is_active, COALESCE(password_hash, ''), is_password_protected,
	COALESCE(meta_title, ''), COALESCE(meta_description, ''), COALESCE(meta_image_url, ''),
	COALESCE(meta_favicon_url, ''), meta_fetched_at,
	COALESCE(ai_summary, ''), COALESCE(ai_category, ''), COALESCE(ai_tags, ''), ai_safety_score, ai_analyzed_at`

func InsertMapping(db *sql.DB, m *Mapping) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	res, err := db.Exec(
		`INSERT INTO url_mappings (original_url, custom_alias, created_at, expires_at, password_hash, is_password_protected, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, 1)`,
		m.OriginalURL, nullIfEmpty(m.CustomAlias), m.CreatedAt, m.ExpiresAt,
		nullIfEmpty(m.PasswordHash), boolToInt(m.IsPasswordProtected),
	)
	if err != nil {
		return fmt.Errorf("insert mapping: %w", err)
	}
	id, _ := res.LastInsertId()
	m.ID = id
	m.IsActive = true
	return nil
}

// AssignShortKey attaches the minted short key to a freshly inserted row.
// The unique index rejects concurrent mints of the same key.
func AssignShortKey(db *sql.DB, id int64, shortKey string) error {
	_, err := db.Exec(`UPDATE url_mappings SET short_key = ? WHERE id = ?`, shortKey, id)
	if err != nil {
		return fmt.Errorf("assign short key: %w", err)
	}
	return nil
}

// GetMappingByKey resolves either a short key or a custom alias.
func GetMappingByKey(db *sql.DB, key string) (*Mapping, error) {
	row := db.QueryRow(
		`SELECT `+mappingColumns+` FROM url_mappings WHERE short_key = ? OR custom_alias = ?`,
		key, key,
	)
	return scanMapping(row)
}

func GetMappingByID(db *sql.DB, id int64) (*Mapping, error) {
	row := db.QueryRow(`SELECT `+mappingColumns+` FROM url_mappings WHERE id = ?`, id)
	return scanMapping(row)
}

func ShortKeyExists(db *sql.DB, key string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM url_mappings WHERE short_key = ?`, key).Scan(&count)
	return count > 0, err
}

func AliasExists(db *sql.DB, alias string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM url_mappings WHERE custom_alias = ?`, alias).Scan(&count)
	return count > 0, err
}

// KeyTaken reports whether the candidate collides with any short key or alias.
// Short keys and aliases share one namespace.
func KeyTaken(db *sql.DB, key string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM url_mappings WHERE short_key = ? OR custom_alias = ?`,
		key, key,
	).Scan(&count)
	return count > 0, err
}

// IncrementClickCount is an atomic UPDATE keyed by the system short key.
func IncrementClickCount(db *sql.DB, shortKey string) error {
	_, err := db.Exec(`UPDATE url_mappings SET click_count = click_count + 1 WHERE short_key = ?`, shortKey)
	if err != nil {
		return fmt.Errorf("increment clicks: %w", err)
	}
	return nil
}

// MarkExpired flips is_active on rows whose expiry has passed. Rows persist.
func MarkExpired(db *sql.DB, now time.Time) (int64, error) {
	res, err := db.Exec(
		`UPDATE url_mappings SET is_active = 0 WHERE expires_at IS NOT NULL AND expires_at <= ? AND is_active = 1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("mark expired: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func ListRecentMappings(db *sql.DB, limit int) ([]Mapping, error) {
	rows, err := db.Query(
		`SELECT `+mappingColumns+` FROM url_mappings WHERE is_active = 1 ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var out []Mapping
	for rows.Next() {
		m, err := scanMappingRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// UpdateMappingDecorations persists the post-creation enrichment columns.
func UpdateMappingDecorations(db *sql.DB, m *Mapping) error {
	_, err := db.Exec(
		`UPDATE url_mappings SET
			meta_title = ?, meta_description = ?, meta_image_url = ?, meta_favicon_url = ?, meta_fetched_at = ?,
			ai_summary = ?, ai_category = ?, ai_tags = ?, ai_safety_score = ?, ai_analyzed_at = ?
		 WHERE id = ?`,
		nullIfEmpty(m.MetaTitle), nullIfEmpty(m.MetaDescription), nullIfEmpty(m.MetaImageURL),
		nullIfEmpty(m.MetaFaviconURL), m.MetaFetchedAt,
		nullIfEmpty(m.AISummary), nullIfEmpty(m.AICategory), nullIfEmpty(m.AITags),
		m.AISafetyScore, m.AIAnalyzedAt,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("update mapping: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(row *sql.Row) (*Mapping, error) {
	return scanMappingFrom(row)
}

func scanMappingRows(rows *sql.Rows) (*Mapping, error) {
	return scanMappingFrom(rows)
}

func scanMappingFrom(s rowScanner) (*Mapping, error) {
	m := &Mapping{}
	var active, protected int
	var score sql.NullFloat64
	if err := s.Scan(
		&m.ID, &m.OriginalURL, &m.ShortKey, &m.CustomAlias,
		&m.CreatedAt, &m.ExpiresAt, &m.ClickCount, &active, &m.PasswordHash, &protected,
		&m.MetaTitle, &m.MetaDescription, &m.MetaImageURL, &m.MetaFaviconURL, &m.MetaFetchedAt,
		&m.AISummary, &m.AICategory, &m.AITags, &score, &m.AIAnalyzedAt,
	); err != nil {
		return nil, err
	}
	m.IsActive = active == 1
	m.IsPasswordProtected = protected == 1
	if score.Valid {
		m.AISafetyScore = &score.Float64
	}
	return m, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
