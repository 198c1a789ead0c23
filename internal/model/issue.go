package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Issue is one newsletter edition fetched from the upstream content source.
// Immutable once fetched; owned by the import run that fetched it.
type Issue struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	RawContent  string    `json:"raw_content"` // HTML or plain text, as delivered
}

// rawIssue mirrors the upstream post record. Content and timestamps arrive
// under several alternate field names depending on API version, so the
// flexible fields are decoded lazily.
type rawIssue struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	WebURL      string          `json:"web_url"`
	Content     json.RawMessage `json:"content"`
	ContentHTML string          `json:"content_html"`
	BodyHTML    string          `json:"body_html"`
	PublishedAt json.RawMessage `json:"published_at"`
	CreatedAt   json.RawMessage `json:"created_at"`
	UpdatedAt   json.RawMessage `json:"updated_at"`
}

// DecodeIssue decodes an upstream post record into an Issue, resolving the
// alternate content and timestamp fields. now is used when no timestamp
// field is populated.
func DecodeIssue(data []byte, now time.Time) (Issue, error) {
	var raw rawIssue
	if err := json.Unmarshal(data, &raw); err != nil {
		return Issue{}, err
	}

	title := raw.Title
	if title == "" {
		title = "Untitled"
	}

	issue := Issue{
		ID:          raw.ID,
		Title:       title,
		URL:         raw.WebURL,
		PublishedAt: resolveTimestamp(now, raw.PublishedAt, raw.CreatedAt, raw.UpdatedAt),
		RawContent:  resolveContent(raw),
	}
	return issue, nil
}

// resolveContent picks the richest populated content field.
func resolveContent(raw rawIssue) string {
	if raw.ContentHTML != "" {
		return raw.ContentHTML
	}
	if raw.BodyHTML != "" {
		return raw.BodyHTML
	}
	return flattenContent(raw.Content)
}

// flattenContent resolves the polymorphic content field: a plain string, a
// map keyed by format (html preferred over text), or a list of fragments
// joined in order. Nested maps and lists are resolved recursively.
func flattenContent(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(content, &m); err == nil {
		// Richer formats first.
		for _, key := range []string{"html", "web", "free", "text", "plain"} {
			if v, ok := m[key]; ok {
				if s := flattenContent(v); s != "" {
					return s
				}
			}
		}
		return ""
	}

	var list []json.RawMessage
	if err := json.Unmarshal(content, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, frag := range list {
			if s := flattenContent(frag); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}

	return ""
}

// resolveTimestamp walks the candidate timestamp fields in order, accepting
// RFC 3339 strings or Unix epoch numbers, and falls back to now.
func resolveTimestamp(now time.Time, candidates ...json.RawMessage) time.Time {
	for _, c := range candidates {
		if t, ok := parseTimestamp(c); ok {
			return t
		}
	}
	return now
}

func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}

	if sec, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64); err == nil && sec > 0 {
		return time.Unix(sec, 0).UTC(), true
	}

	return time.Time{}, false
}
