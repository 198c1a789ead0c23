package generate

import (
	"context"
	"strconv"
	"strings"

	"hindsite/internal/entity"
	"hindsite/internal/model"
	"hindsite/internal/normalize"
	"hindsite/internal/temporal"
	"hindsite/internal/validate"
)

// connectionPhrases qualify a sentence in loose mode even without a temporal
// reference: language that draws a then/now parallel.
var connectionPhrases = []string{
	"similar to", "echoes", "happened before", "just like",
	"recurring", "cyclical", "déjà vu", "deja vu",
}

const maxContextLen = 1200

// Heuristic generates cards from pure rules over the normalized text. Given
// identical input and configuration it always emits identical candidates.
type Heuristic struct {
	extractor *temporal.Extractor
	tagger    *entity.Tagger

	strict            bool
	includeTitleYears bool
	maxCards          int
	minUnitLen        int
	maxUnitLen        int
}

// NewHeuristic builds the deterministic strategy.
func NewHeuristic(cfg model.GeneratorConfig, extractor *temporal.Extractor, tagger *entity.Tagger) *Heuristic {
	def := model.DefaultConfig().Generator
	if cfg.MaxCards <= 0 {
		cfg.MaxCards = def.MaxCards
	}
	if cfg.MinUnitLen <= 0 {
		cfg.MinUnitLen = def.MinUnitLen
	}
	if cfg.MaxUnitLen <= 0 {
		cfg.MaxUnitLen = def.MaxUnitLen
	}
	return &Heuristic{
		extractor:         extractor,
		tagger:            tagger,
		strict:            cfg.Strict,
		includeTitleYears: cfg.IncludeTitleYears,
		maxCards:          cfg.MaxCards,
		minUnitLen:        cfg.MinUnitLen,
		maxUnitLen:        cfg.MaxUnitLen,
	}
}

// Name returns the strategy name.
func (h *Heuristic) Name() string { return "heuristic" }

// Generate walks sentence units in document order and promotes qualifying
// units to candidates until the per-issue cap is reached.
func (h *Heuristic) Generate(_ context.Context, issue model.Issue, norm normalize.Result) ([]validate.Candidate, []string, error) {
	units := normalize.SplitSentences(norm.Text, h.minUnitLen, h.maxUnitLen)

	var candidates []validate.Candidate
	for _, unit := range units {
		if !h.qualifies(unit) {
			continue
		}

		para := findContext(norm.Paragraphs, unit)
		year := h.timelineYear(unit, issue.Title)

		cand := validate.Candidate{
			Claim:    truncate(unit, validate.MaxClaimLen),
			Tags:     h.tagger.Tag(para),
			Evidence: buildEvidence(unit, para),
		}
		if year != 0 {
			cand.ThenStart = strconv.Itoa(year)
			cand.ThenEnd = strconv.Itoa(year)
		}

		candidates = append(candidates, cand)
		if len(candidates) >= h.maxCards {
			break
		}
	}

	return candidates, nil, nil
}

// qualifies requires a temporal reference; loose mode also accepts a
// connection phrase. Text without any qualifying signal never becomes a card.
func (h *Heuristic) qualifies(unit string) bool {
	if h.extractor.HasTemporalReference(unit) {
		return true
	}
	if h.strict {
		return false
	}
	lower := strings.ToLower(unit)
	for _, phrase := range connectionPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// timelineYear is the minimum bare year in the unit (plus the issue title
// when configured). Zero when no bare year was present, even if a
// relative-time phrase matched.
func (h *Heuristic) timelineYear(unit, title string) int {
	years := h.extractor.ExtractYears(unit)
	if h.includeTitleYears {
		years = append(years, h.extractor.ExtractYears(title)...)
	}

	min := 0
	for _, y := range years {
		if min == 0 || y < min {
			min = y
		}
	}
	return min
}

// findContext recovers the first paragraph containing the unit, falling back
// to the unit itself when sentence splitting rewrote whitespace.
func findContext(paragraphs []string, unit string) string {
	for _, p := range paragraphs {
		if strings.Contains(normalize.Flatten(p), normalize.Flatten(unit)) {
			return p
		}
	}
	return unit
}

// buildEvidence quotes the unit verbatim, plus its surrounding paragraph when
// that adds anything beyond the unit itself.
func buildEvidence(unit, para string) []string {
	evidence := []string{unit}
	para = truncate(para, maxContextLen)
	if normalize.Flatten(para) != normalize.Flatten(unit) {
		evidence = append(evidence, para)
	}
	return evidence
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Cut on a rune boundary.
	for max > 0 && s[max]&0xc0 == 0x80 {
		max--
	}
	return s[:max]
}
