package analytics

import (
	"database/sql"
	"time"

	"github.com/Shivam-2310/ShortAI/internal/models"
)

// DetailedAnalytics is the aggregated view behind the analytics endpoint.
type DetailedAnalytics struct {
	ShortKey    string     `json:"shortKey"`
	OriginalURL string     `json:"originalUrl"`
	TotalClicks int64      `json:"totalClicks"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`

	ClicksByCountry map[string]int64 `json:"clicksByCountry"`
	ClicksByDevice  map[string]int64 `json:"clicksByDevice"`
	ClicksByBrowser map[string]int64 `json:"clicksByBrowser"`
	ClicksByOS      map[string]int64 `json:"clicksByOs"`
	ClicksByReferer map[string]int64 `json:"clicksByReferer"`
	ClicksOverTime  map[string]int64 `json:"clicksOverTime"`

	AISummary  string `json:"aiSummary,omitempty"`
	AICategory string `json:"aiCategory,omitempty"`
	AITags     string `json:"aiTags,omitempty"`

	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
	MetaImageURL    string `json:"metaImageUrl,omitempty"`
}

const timeSeriesDays = 30

// Detailed builds the full breakdown for one mapping.
func Detailed(db *sql.DB, m *models.Mapping) (*DetailedAnalytics, error) {
	out := &DetailedAnalytics{
		ShortKey:    m.EffectiveKey(),
		OriginalURL: m.OriginalURL,
		TotalClicks: m.ClickCount,
		CreatedAt:   m.CreatedAt,
		ExpiresAt:   m.ExpiresAt,

		AISummary:  m.AISummary,
		AICategory: m.AICategory,
		AITags:     m.AITags,

		MetaTitle:       m.MetaTitle,
		MetaDescription: m.MetaDescription,
		MetaImageURL:    m.MetaImageURL,
	}

	var err error
	if out.ClicksByCountry, err = models.ClicksByCountry(db, m.ID); err != nil {
		return nil, err
	}
	if out.ClicksByDevice, err = models.ClicksByDevice(db, m.ID); err != nil {
		return nil, err
	}
	if out.ClicksByBrowser, err = models.ClicksByBrowser(db, m.ID); err != nil {
		return nil, err
	}
	if out.ClicksByOS, err = models.ClicksByOS(db, m.ID); err != nil {
		return nil, err
	}
	if out.ClicksByReferer, err = models.ClicksByReferer(db, m.ID); err != nil {
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -timeSeriesDays)
	if out.ClicksOverTime, err = models.ClicksByDay(db, m.ID, since); err != nil {
		return nil, err
	}

	return out, nil
}
