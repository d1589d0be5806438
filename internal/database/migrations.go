package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS wordpress_sites (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    url TEXT NOT NULL,
    username TEXT NOT NULL,
    password_encrypted TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_settings (
    user_id TEXT PRIMARY KEY,
    default_cta_text TEXT,
    default_cta_link TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS automation_settings (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    site_id TEXT NOT NULL REFERENCES wordpress_sites(id) ON DELETE CASCADE,
    business_category TEXT NOT NULL,
    days_per_week INTEGER NOT NULL DEFAULT 1,
    frequency TEXT NOT NULL,
    selected_days TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS automation_executions (
    id TEXT PRIMARY KEY,
    automation_id TEXT NOT NULL REFERENCES automation_settings(id) ON DELETE CASCADE,
    user_id TEXT NOT NULL,
    site_id TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('pending', 'running', 'completed', 'failed')),
    post_id TEXT,
    error_message TEXT,
    started_at TEXT NOT NULL,
    completed_at TEXT
);

CREATE TABLE IF NOT EXISTS published_posts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    site_id TEXT NOT NULL,
    topic TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    keywords TEXT,
    image_url TEXT,
    wordpress_post_id INTEGER NOT NULL,
    wordpress_post_url TEXT NOT NULL,
    status TEXT NOT NULL,
    trend_source TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS automated_posts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    site_id TEXT NOT NULL,
    topic TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    keywords TEXT,
    image_url TEXT,
    wordpress_post_id INTEGER NOT NULL,
    wordpress_post_url TEXT NOT NULL,
    status TEXT NOT NULL,
    trend_source TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sites_user ON wordpress_sites(user_id);
CREATE INDEX IF NOT EXISTS idx_automation_site ON automation_settings(site_id);
CREATE INDEX IF NOT EXISTS idx_executions_automation ON automation_executions(automation_id, status, started_at);
CREATE INDEX IF NOT EXISTS idx_published_site_created ON published_posts(site_id, created_at);
CREATE INDEX IF NOT EXISTS idx_automated_site_created ON automated_posts(site_id, created_at);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "per-site CTA override",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`ALTER TABLE wordpress_sites ADD COLUMN cta_text TEXT`); err != nil {
				return err
			}
			_, err := tx.Exec(`ALTER TABLE wordpress_sites ADD COLUMN cta_link TEXT`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
