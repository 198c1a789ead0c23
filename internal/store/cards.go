package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"hindsite/internal/model"
)

// UpsertIssue inserts or updates the issue row by id.
func (s *SQLiteStore) UpsertIssue(ctx context.Context, rec IssueRecord) error {
	periods, err := encodeStrings(rec.Periods)
	if err != nil {
		return err
	}
	topics, err := encodeStrings(rec.Topics)
	if err != nil {
		return err
	}

	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO issues (id, title, url, publish_date, periods, topics, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			publish_date = excluded.publish_date,
			periods = excluded.periods,
			topics = excluded.topics,
			processed_at = excluded.processed_at`,
		rec.Issue.ID, rec.Issue.Title, rec.Issue.URL, rec.Issue.PublishedAt.UTC(),
		periods, topics, processedAt)
	if err != nil {
		return fmt.Errorf("upsert issue %s: %w", rec.Issue.ID, err)
	}
	return nil
}

// ReplaceCards deletes all existing cards for issueID, then inserts cards in
// index order, in a single transaction. A failure anywhere leaves the prior
// card set untouched.
func (s *SQLiteStore) ReplaceCards(ctx context.Context, issueID string, cards []model.Card) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE issue_id = ?`, issueID); err != nil {
		return fmt.Errorf("delete cards for %s: %w", issueID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (issue_id, card_index, claim, then_start, then_end,
			now_label, link_type, tags, evidence, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cards {
		tags, err := encodeStrings(c.Tags)
		if err != nil {
			return err
		}
		evidence, err := encodeStrings(c.Evidence)
		if err != nil {
			return err
		}

		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		if _, err := stmt.ExecContext(ctx, issueID, c.Index, c.Claim,
			nullableInt(c.ThenStart), nullableInt(c.ThenEnd),
			c.NowLabel, c.LinkType, tags, evidence, c.Confidence, createdAt); err != nil {
			return fmt.Errorf("insert card %s/%d: %w", issueID, c.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CardsForIssue returns the stored cards for one issue in index order.
func (s *SQLiteStore) CardsForIssue(ctx context.Context, issueID string) ([]model.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT issue_id, card_index, claim, then_start, then_end,
			now_label, link_type, tags, evidence, confidence, created_at
		FROM cards
		WHERE issue_id = ?
		ORDER BY card_index ASC`, issueID)
	if err != nil {
		return nil, fmt.Errorf("query cards for %s: %w", issueID, err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// ListCards returns all cards ordered by temporal anchor ascending with
// NULL anchors last, then by issue publish date ascending.
func (s *SQLiteStore) ListCards(ctx context.Context) ([]CardRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.issue_id, c.card_index, c.claim, c.then_start, c.then_end,
			c.now_label, c.link_type, c.tags, c.evidence, c.confidence, c.created_at,
			i.publish_date, i.title, i.url
		FROM cards c
		JOIN issues i ON i.id = c.issue_id
		ORDER BY (c.then_start IS NULL) ASC, c.then_start ASC, i.publish_date ASC, c.card_index ASC`)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var out []CardRow
	for rows.Next() {
		var (
			row        CardRow
			start, end sql.NullInt64
			tags, ev   string
		)
		if err := rows.Scan(&row.IssueID, &row.Index, &row.Claim, &start, &end,
			&row.NowLabel, &row.LinkType, &tags, &ev, &row.Confidence, &row.CreatedAt,
			&row.PublishDate, &row.IssueTitle, &row.IssueURL); err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		row.ThenStart = fromNullInt(start)
		row.ThenEnd = fromNullInt(end)
		if err := decodeStrings(tags, &row.Tags); err != nil {
			return nil, err
		}
		if err := decodeStrings(ev, &row.Evidence); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListIssues returns all issue records ordered by publish date ascending.
func (s *SQLiteStore) ListIssues(ctx context.Context) ([]IssueRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, url, publish_date, periods, topics, processed_at
		FROM issues
		ORDER BY publish_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	var out []IssueRecord
	for rows.Next() {
		var (
			rec             IssueRecord
			periods, topics string
		)
		if err := rows.Scan(&rec.Issue.ID, &rec.Issue.Title, &rec.Issue.URL,
			&rec.Issue.PublishedAt, &periods, &topics, &rec.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan issue row: %w", err)
		}
		if err := decodeStrings(periods, &rec.Periods); err != nil {
			return nil, err
		}
		if err := decodeStrings(topics, &rec.Topics); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanCard(rows *sql.Rows) (model.Card, error) {
	var (
		c          model.Card
		start, end sql.NullInt64
		tags, ev   string
	)
	if err := rows.Scan(&c.IssueID, &c.Index, &c.Claim, &start, &end,
		&c.NowLabel, &c.LinkType, &tags, &ev, &c.Confidence, &c.CreatedAt); err != nil {
		return model.Card{}, fmt.Errorf("scan card: %w", err)
	}
	c.ThenStart = fromNullInt(start)
	c.ThenEnd = fromNullInt(end)
	if err := decodeStrings(tags, &c.Tags); err != nil {
		return model.Card{}, err
	}
	if err := decodeStrings(ev, &c.Evidence); err != nil {
		return model.Card{}, err
	}
	return c, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode strings: %w", err)
	}
	return string(data), nil
}

func decodeStrings(data string, into *[]string) error {
	if data == "" {
		*into = nil
		return nil
	}
	if err := json.Unmarshal([]byte(data), into); err != nil {
		return fmt.Errorf("decode strings: %w", err)
	}
	if len(*into) == 0 {
		*into = nil
	}
	return nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
