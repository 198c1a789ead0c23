// Package validate enforces evidence-grounding and shape guardrails on
// candidate cards. Both generation strategies pass through the same gate; no
// card without at least one exact, locatable source quote is ever stored.
package validate

import (
	"regexp"
	"strconv"
	"strings"

	"hindsite/internal/model"
	"hindsite/internal/normalize"
)

// Claim length bounds after whitespace normalization.
const (
	MinClaimLen = 12
	MaxClaimLen = 220
)

// Candidate is a proposed card before validation. Anchor years arrive as
// free-form strings because the completion service returns them in whatever
// representation it likes; Confidence is equally untyped.
type Candidate struct {
	Claim      string
	ThenStart  string
	ThenEnd    string
	NowLabel   string
	LinkType   string
	Tags       []string
	Evidence   []string
	Confidence any
}

// yearDigits extracts a 4-digit year from any anchor representation.
var yearDigits = regexp.MustCompile(`(19|20)\d{2}`)

// Validator applies the guardrails from the configured bounds.
type Validator struct {
	minYear     int
	maxYear     int
	maxCards    int
	maxEvidence int
	maxTags     int
}

// NewValidator builds a validator. Zero bounds fall back to defaults.
func NewValidator(cfg model.ValidatorConfig) *Validator {
	def := model.DefaultConfig().Validator
	if cfg.MinYear == 0 {
		cfg.MinYear = def.MinYear
	}
	if cfg.MaxYear == 0 {
		cfg.MaxYear = def.MaxYear
	}
	if cfg.MaxCards <= 0 {
		cfg.MaxCards = def.MaxCards
	}
	if cfg.MaxEvidence <= 0 {
		cfg.MaxEvidence = def.MaxEvidence
	}
	if cfg.MaxTags <= 0 {
		cfg.MaxTags = def.MaxTags
	}
	return &Validator{
		minYear:     cfg.MinYear,
		maxYear:     cfg.MaxYear,
		maxCards:    cfg.MaxCards,
		maxEvidence: cfg.MaxEvidence,
		maxTags:     cfg.MaxTags,
	}
}

// Validate filters, sanitizes, and caps candidates against the issue's
// normalized clean text. Rejection is silent and per-candidate; survivors
// keep proposal order and are truncated to the card cap with indices
// assigned 0..n-1.
func (v *Validator) Validate(cleanText string, candidates []Candidate) []model.Card {
	flatText := normalize.Flatten(cleanText)

	var cards []model.Card
	for _, cand := range candidates {
		card, ok := v.validateOne(flatText, cand)
		if !ok {
			continue
		}
		card.Index = len(cards)
		cards = append(cards, card)
		if len(cards) >= v.maxCards {
			break
		}
	}
	return cards
}

func (v *Validator) validateOne(flatText string, cand Candidate) (model.Card, bool) {
	claim := normalize.Flatten(cand.Claim)
	if len(claim) < MinClaimLen || len(claim) > MaxClaimLen {
		return model.Card{}, false
	}

	// Grounding: keep only quotes that are exact substrings of the source.
	var evidence []string
	for _, q := range cand.Evidence {
		q = normalize.Flatten(q)
		if q != "" && strings.Contains(flatText, q) {
			evidence = append(evidence, q)
		}
		if len(evidence) >= v.maxEvidence {
			break
		}
	}
	if len(evidence) == 0 {
		return model.Card{}, false
	}

	linkType := strings.TrimSpace(cand.LinkType)
	if !model.ValidLinkType(linkType) {
		linkType = ""
	}

	// Swap inverted anchors before range-checking, so an in-range bound
	// survives even when its out-of-range partner arrived in the wrong slot.
	start := parseYear(cand.ThenStart)
	end := parseYear(cand.ThenEnd)
	if start != nil && end != nil && *start > *end {
		start, end = end, start
	}
	start = v.boundYear(start)
	end = v.boundYear(end)

	var tags []string
	for _, tag := range cand.Tags {
		tag = strings.TrimSpace(tag)
		if len(tag) >= 1 && len(tag) <= 40 {
			tags = append(tags, tag)
		}
		if len(tags) >= v.maxTags {
			break
		}
	}

	return model.Card{
		Claim:      claim,
		ThenStart:  start,
		ThenEnd:    end,
		NowLabel:   normalize.Flatten(cand.NowLabel),
		LinkType:   linkType,
		Tags:       tags,
		Evidence:   evidence,
		Confidence: coerceConfidence(cand.Confidence),
	}, true
}

// parseYear extracts a 4-digit year from any representation.
func parseYear(raw string) *int {
	m := yearDigits.FindString(raw)
	if m == "" {
		return nil
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &y
}

// boundYear nulls a year outside the configured bounds.
func (v *Validator) boundYear(y *int) *int {
	if y == nil || *y < v.minYear || *y > v.maxYear {
		return nil
	}
	return y
}

// coerceConfidence accepts whatever the proposal carried; anything
// non-numeric falls back to the default.
func coerceConfidence(raw any) float64 {
	switch c := raw.(type) {
	case float64:
		return c
	case float32:
		return float64(c)
	case int:
		return float64(c)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(c), 64); err == nil {
			return f
		}
	}
	return model.DefaultConfidence
}
