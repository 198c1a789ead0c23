// Package temporal detects years and relative-time phrases. Temporal
// grounding is the primary signal deciding whether a sentence is card-worthy
// in the deterministic strategy.
package temporal

import (
	"regexp"
	"sort"
	"strconv"

	"hindsite/internal/model"
)

// yearPattern matches bare 4-digit years in the modern range. The exact
// accepted window is narrowed further by the configured bounds.
var yearPattern = regexp.MustCompile(`\b(19\d{2}|20[0-2]\d)\b`)

// phrasePatterns match relative-time references that qualify a sentence even
// without a bare year surviving the range filter.
var phrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bin (19|20)\d{2}\b`),
	regexp.MustCompile(`(?i)\b\d+ years ago\b`),
	regexp.MustCompile(`(?i)\ba decade ago\b`),
	regexp.MustCompile(`(?i)\bback in (19|20)\d{2}\b`),
	regexp.MustCompile(`(?i)\bsince (19|20)\d{2}\b`),
	regexp.MustCompile(`\b(19|20)\d{2}\s*[-–]\s*(19|20)\d{2}\b`),
	regexp.MustCompile(`(?i)\bduring the \w+ administration\b`),
}

// Extractor detects temporal references within a configured year range.
type Extractor struct {
	minYear int
	maxYear int
}

// NewExtractor builds an extractor bounded by cfg. Zero bounds fall back to
// the defaults.
func NewExtractor(cfg model.TemporalConfig) *Extractor {
	def := model.DefaultConfig().Temporal
	if cfg.MinYear == 0 {
		cfg.MinYear = def.MinYear
	}
	if cfg.MaxYear == 0 {
		cfg.MaxYear = def.MaxYear
	}
	return &Extractor{minYear: cfg.MinYear, maxYear: cfg.MaxYear}
}

// HasTemporalReference reports whether text contains a bare in-range year or
// any relative-time phrase.
func (e *Extractor) HasTemporalReference(text string) bool {
	if len(e.ExtractYears(text)) > 0 {
		return true
	}
	for _, p := range phrasePatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// ExtractYears returns the sorted distinct in-range years mentioned in text.
func (e *Extractor) ExtractYears(text string) []int {
	matches := yearPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	var years []int
	for _, m := range matches {
		y, err := strconv.Atoi(m)
		if err != nil || y < e.minYear || y > e.maxYear {
			continue
		}
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}

	sort.Ints(years)
	return years
}
