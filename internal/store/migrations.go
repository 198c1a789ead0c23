package store

import "fmt"

// migrate creates all tables if they don't exist.
func (s *SQLiteStore) migrate() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS issues (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			url          TEXT NOT NULL DEFAULT '',
			publish_date TIMESTAMP NOT NULL,
			periods      TEXT NOT NULL DEFAULT '[]',
			topics       TEXT NOT NULL DEFAULT '[]',
			processed_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cards (
			issue_id   TEXT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			card_index INTEGER NOT NULL,
			claim      TEXT NOT NULL,
			then_start INTEGER,
			then_end   INTEGER,
			now_label  TEXT NOT NULL DEFAULT '',
			link_type  TEXT NOT NULL DEFAULT '',
			tags       TEXT NOT NULL DEFAULT '[]',
			evidence   TEXT NOT NULL DEFAULT '[]',
			confidence REAL NOT NULL DEFAULT 0.75,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (issue_id, card_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_then_start ON cards(then_start)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_publish_date ON issues(publish_date)`,
	}

	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ddl: %w", err)
		}
	}
	return nil
}
