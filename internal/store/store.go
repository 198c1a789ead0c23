// Package store provides the SQLite persistence layer for issues and cards.
//
// Cards are always written through ReplaceCards with the full validated set
// for one issue; there is no incremental card write path.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"hindsite/internal/model"
)

// IssueRecord is the stored form of a processed issue.
type IssueRecord struct {
	Issue       model.Issue
	Periods     []string
	Topics      []string
	ProcessedAt time.Time
}

// CardRow is the read-side card shape, joined with its issue's metadata.
type CardRow struct {
	model.Card
	PublishDate time.Time `json:"publish_date"`
	IssueTitle  string    `json:"issue_title"`
	IssueURL    string    `json:"issue_url"`
}

// CardStore is the persistence contract the pipeline depends on.
type CardStore interface {
	// UpsertIssue inserts or updates the issue row by id.
	UpsertIssue(ctx context.Context, rec IssueRecord) error

	// ReplaceCards deletes all existing cards for issueID and inserts
	// cards in index order, atomically. Callers must pass the complete
	// final set for the issue.
	ReplaceCards(ctx context.Context, issueID string, cards []model.Card) error

	// CardsForIssue returns the stored cards for one issue in index order.
	CardsForIssue(ctx context.Context, issueID string) ([]model.Card, error)

	// ListCards returns all cards ordered by temporal anchor ascending
	// (nulls last), then issue publish date ascending.
	ListCards(ctx context.Context) ([]CardRow, error)

	// ListIssues returns all issue records ordered by publish date ascending.
	ListIssues(ctx context.Context) ([]IssueRecord, error)

	Close() error
}

// SQLiteStore implements CardStore on a single SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (or creates) the database at dbPath and runs migrations.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = expandPath(model.DefaultConfig().Store.DBPath)
	} else {
		dbPath = expandPath(dbPath)
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
