// Package entity extracts tag candidates from text with two heuristic tiers:
// curated vocabulary matching plus a capitalized-sequence fallback. No
// external calls; identical input always yields identical tags.
package entity

import (
	"regexp"
	"sort"
	"strings"

	"hindsite/internal/model"
)

// properNoun matches runs of capitalized words, allowing multi-word proper
// nouns ("Mark Zuckerberg", "Google Reader").
var properNoun = regexp.MustCompile(`\b[A-Z][a-zA-Z]{2,}(?:\s+[A-Z][a-zA-Z]{2,})*\b`)

// stopwords filters common capitalized function words the proper-noun tier
// would otherwise pick up at sentence starts.
var stopwords = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"When": true, "Where": true, "What": true, "Which": true, "While": true,
	"Here": true, "There": true, "Then": true, "Now": true, "And": true,
	"But": true, "For": true, "Not": true, "You": true, "They": true,
	"His": true, "Her": true, "Its": true, "Our": true, "Their": true,
	"Just": true, "Like": true, "Back": true, "After": true, "Before": true,
	"Today": true, "Yesterday": true, "Remember": true, "Meanwhile": true,
}

// Tagger derives a bounded, sorted tag set from text.
type Tagger struct {
	vocab   Vocabulary
	maxTags int
}

// NewTagger builds a tagger. A configured vocabulary file replaces the
// built-in lists; load errors surface to the caller so a bad deployment
// fails at startup rather than silently tagging with defaults.
func NewTagger(cfg model.EntityConfig) (*Tagger, error) {
	vocab := DefaultVocabulary()
	if cfg.VocabFile != "" {
		v, err := LoadVocabulary(cfg.VocabFile)
		if err != nil {
			return nil, err
		}
		vocab = v
	}

	maxTags := cfg.MaxTags
	if maxTags <= 0 {
		maxTags = model.DefaultConfig().Entity.MaxTags
	}

	return &Tagger{vocab: vocab, maxTags: maxTags}, nil
}

// Tag extracts entity tags from text: exact vocabulary hits merged with
// proper-noun candidates, sorted, truncated to the cap.
func (t *Tagger) Tag(text string) []string {
	seen := make(map[string]bool)

	// Tier 1: curated vocabularies, case-sensitive substring match.
	for _, known := range t.vocab.All() {
		if strings.Contains(text, known) {
			seen[known] = true
		}
	}

	// Tier 2: capitalized sequences with stopword filtering. Multi-word
	// candidates are kept whole; single stopwords are dropped.
	for _, m := range properNoun.FindAllString(text, -1) {
		words := strings.Fields(m)
		// Trim leading stopwords so "The MySpace" still yields "MySpace".
		for len(words) > 0 && stopwords[words[0]] {
			words = words[1:]
		}
		if len(words) == 0 {
			continue
		}
		candidate := strings.Join(words, " ")
		if len(candidate) >= 3 && !stopwords[candidate] {
			seen[candidate] = true
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	if len(tags) > t.maxTags {
		tags = tags[:t.maxTags]
	}
	return tags
}
