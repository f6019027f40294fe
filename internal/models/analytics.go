package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Aggregation queries feeding the analytics endpoint. Empty dimension values
// are excluded from every breakdown.

func countBreakdown(db *sql.DB, column string, mappingID int64) (map[string]int64, error) {
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) FROM click_events WHERE url_mapping_id = ? AND %s != '' GROUP BY %s ORDER BY COUNT(*) DESC`,
		column, column, column,
	)
	rows, err := db.Query(query, mappingID)
	if err != nil {
		return nil, fmt.Errorf("breakdown %s: %w", column, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		out[key] = count
	}
	return out, rows.Err()
}

func ClicksByCountry(db *sql.DB, mappingID int64) (map[string]int64, error) {
	return countBreakdown(db, "country_code", mappingID)
}

func ClicksByDevice(db *sql.DB, mappingID int64) (map[string]int64, error) {
	return countBreakdown(db, "device_type", mappingID)
}

func ClicksByBrowser(db *sql.DB, mappingID int64) (map[string]int64, error) {
	return countBreakdown(db, "browser_name", mappingID)
}

func ClicksByOS(db *sql.DB, mappingID int64) (map[string]int64, error) {
	return countBreakdown(db, "os_name", mappingID)
}

func ClicksByReferer(db *sql.DB, mappingID int64) (map[string]int64, error) {
	return countBreakdown(db, "referer", mappingID)
}

// ClicksByDay returns a day → count series for clicks since the given time.
func ClicksByDay(db *sql.DB, mappingID int64, since time.Time) (map[string]int64, error) {
	rows, err := db.Query(
		`SELECT substr(clicked_at, 1, 10), COUNT(*) FROM click_events
		 WHERE url_mapping_id = ? AND clicked_at >= ?
		 GROUP BY substr(clicked_at, 1, 10) ORDER BY substr(clicked_at, 1, 10)`,
		mappingID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("clicks by day: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var day string
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		out[day] = count
	}
	return out, rows.Err()
}
