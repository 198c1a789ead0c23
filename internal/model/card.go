package model

import "time"

// Card is a single evidence-backed claim extracted from an Issue, anchored to
// a historical time period. Identity is (issue_id, index) and is regenerated
// from scratch on every re-import.
type Card struct {
	IssueID string `json:"issue_id"`
	Index   int    `json:"index"` // 0-based, generation order

	Claim      string   `json:"claim"`                // 12-220 chars, whitespace-normalized
	ThenStart  *int     `json:"then_start,omitempty"` // anchor start year, within year bounds
	ThenEnd    *int     `json:"then_end,omitempty"`   // anchor end year, >= ThenStart
	NowLabel   string   `json:"now_label,omitempty"`
	LinkType   string   `json:"link_type,omitempty"` // one of LinkTypes, or empty
	Tags       []string `json:"tags,omitempty"`
	Evidence   []string `json:"evidence"` // verbatim quotes from the normalized text, 1-4
	Confidence float64  `json:"confidence"`

	CreatedAt time.Time `json:"created_at"`
}

// DefaultConfidence is assigned when a candidate carries no usable score.
const DefaultConfidence = 0.75

// LinkTypes is the closed vocabulary for the kind of historical connection a
// card draws. Anything else is nulled out during validation.
var LinkTypes = []string{
	"recurrence",
	"inversion",
	"tactic-transfer",
	"regulatory-echo",
	"platform-lifecycle",
	"narrative-laundering",
	"rebranding",
	"capability-jump",
}

// ValidLinkType reports whether lt is a member of the closed link-type set.
func ValidLinkType(lt string) bool {
	for _, known := range LinkTypes {
		if lt == known {
			return true
		}
	}
	return false
}

// Topics is the closed issue-level topic vocabulary used for category
// filtering. Unknown topics proposed by the assisted strategy are dropped.
var Topics = []string{"tech", "memes", "politics", "entertainment"}

// DefaultTopic is assigned when no valid topic survives filtering.
const DefaultTopic = "tech"

// FilterTopics keeps only known topics, preserving order, defaulting to
// DefaultTopic when nothing survives.
func FilterTopics(proposed []string) []string {
	var kept []string
	seen := make(map[string]bool)
	for _, t := range proposed {
		for _, known := range Topics {
			if t == known && !seen[t] {
				seen[t] = true
				kept = append(kept, t)
			}
		}
	}
	if len(kept) == 0 {
		return []string{DefaultTopic}
	}
	return kept
}

// IntPtr returns a pointer to y. Convenience for anchor years.
func IntPtr(y int) *int { return &y }
