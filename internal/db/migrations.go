package db

import "database/sql"

func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS url_mappings (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    original_url          TEXT    NOT NULL,
    short_key             TEXT    UNIQUE,
    custom_alias          TEXT    UNIQUE,
    created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    expires_at            DATETIME,
    click_count           INTEGER NOT NULL DEFAULT 0,
    is_active             INTEGER NOT NULL DEFAULT 1,
    password_hash         TEXT,
    is_password_protected INTEGER NOT NULL DEFAULT 0,
    meta_title            TEXT,
    meta_description      TEXT,
    meta_image_url        TEXT,
    meta_favicon_url      TEXT,
    meta_fetched_at       DATETIME,
    ai_summary            TEXT,
    ai_category           TEXT,
    ai_tags               TEXT,
    ai_safety_score       REAL,
    ai_analyzed_at        DATETIME
);

CREATE INDEX IF NOT EXISTS idx_mappings_created_at ON url_mappings(is_active, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_mappings_ai_category ON url_mappings(ai_category);

CREATE TABLE IF NOT EXISTS click_events (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    url_mapping_id  INTEGER NOT NULL,
    clicked_at      DATETIME NOT NULL,
    client_ip       TEXT,
    user_agent      TEXT,
    referer         TEXT,
    browser_name    TEXT,
    browser_version TEXT,
    os_name         TEXT,
    os_version      TEXT,
    device_type     TEXT,
    country_code    TEXT,
    country_name    TEXT,
    city            TEXT,
    region          TEXT,
    timezone        TEXT,
    FOREIGN KEY (url_mapping_id) REFERENCES url_mappings(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_clicks_mapping ON click_events(url_mapping_id);
CREATE INDEX IF NOT EXISTS idx_clicks_clicked_at ON click_events(clicked_at);
CREATE INDEX IF NOT EXISTS idx_clicks_country ON click_events(country_code);
CREATE INDEX IF NOT EXISTS idx_clicks_device ON click_events(device_type);

CREATE TABLE IF NOT EXISTS ai_annotations (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    url_hash       TEXT    NOT NULL UNIQUE,
    original_url   TEXT    NOT NULL,
    summary        TEXT,
    category       TEXT,
    tags           TEXT,
    safety_score   REAL,
    is_safe        INTEGER NOT NULL DEFAULT 1,
    safety_reasons TEXT,
    analyzed_at    DATETIME NOT NULL,
    expires_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_annotations_expires ON ai_annotations(expires_at);
`
