package models

import (
	"database/sql"
	"fmt"
	"time"
)

type ClickEvent struct {
	ID           int64
	URLMappingID int64
	ClickedAt    time.Time
	ClientIP     string
	UserAgent    string
	Referer      string

	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
	DeviceType     string

	CountryCode string
	CountryName string
	City        string
	Region      string
	Timezone    string
}

func InsertClickEvent(db *sql.DB, c *ClickEvent) error {
	res, err := db.Exec(
		`INSERT INTO click_events (url_mapping_id, clicked_at, client_ip, user_agent, referer,
			browser_name, browser_version, os_name, os_version, device_type,
			country_code, country_name, city, region, timezone)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.URLMappingID, c.ClickedAt, c.ClientIP, c.UserAgent, c.Referer,
		c.BrowserName, c.BrowserVersion, c.OSName, c.OSVersion, c.DeviceType,
		c.CountryCode, c.CountryName, c.City, c.Region, c.Timezone,
	)
	if err != nil {
		return fmt.Errorf("insert click event: %w", err)
	}
	id, _ := res.LastInsertId()
	c.ID = id
	return nil
}

func ClickCountForMapping(db *sql.DB, mappingID int64) (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM click_events WHERE url_mapping_id = ?`, mappingID).Scan(&count)
	return count, err
}
