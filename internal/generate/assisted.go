package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"hindsite/internal/llm"
	"hindsite/internal/model"
	"hindsite/internal/normalize"
	"hindsite/internal/period"
	"hindsite/internal/validate"
)

const systemPrompt = "You are an expert at analyzing internet culture and history content. " +
	"Always respond with valid JSON only."

// fence strips markdown code blocks some models wrap around JSON.
var fence = regexp.MustCompile("(?m)^```(?:json)?\\s*|\\s*```$")

// Assisted delegates candidate generation to a completion service. The
// service is untrusted: its output is a proposal, never persisted without
// passing the validation gate, and a response that is not valid JSON yields
// a single safe-default fallback card instead of aborting the issue.
type Assisted struct {
	provider       llm.Provider
	maxPromptChars int
}

// NewAssisted builds the completion-backed strategy.
func NewAssisted(cfg model.GeneratorConfig, provider llm.Provider) *Assisted {
	maxChars := cfg.MaxPromptChars
	if maxChars <= 0 {
		maxChars = model.DefaultConfig().Generator.MaxPromptChars
	}
	return &Assisted{provider: provider, maxPromptChars: maxChars}
}

// Name returns the strategy name.
func (a *Assisted) Name() string { return "assisted" }

// assistedResponse is the contract the completion service is instructed to
// follow. Anchor years arrive as raw JSON because models return them as
// numbers, strings, or ranges interchangeably.
type assistedResponse struct {
	Cards  []assistedCard `json:"cards"`
	Topics []string       `json:"topics"`
}

type assistedCard struct {
	Claim      string          `json:"claim"`
	ThenStart  json.RawMessage `json:"then_start"`
	ThenEnd    json.RawMessage `json:"then_end"`
	NowLabel   string          `json:"now_label"`
	LinkType   string          `json:"link_type"`
	Tags       []string        `json:"tags"`
	Evidence   []string        `json:"evidence"`
	Confidence any             `json:"confidence"`
}

// Generate sends the normalized text to the completion service and maps its
// proposals to candidates. Transport failures surface as errors (the issue is
// skipped upstream); unparsable responses fall back per the safety contract.
func (a *Assisted) Generate(ctx context.Context, issue model.Issue, norm normalize.Result) ([]validate.Candidate, []string, error) {
	text := norm.Text
	if len(text) > a.maxPromptChars {
		text = truncate(text, a.maxPromptChars) + "..."
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System: systemPrompt,
		Prompt: buildPrompt(issue, text),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("completion: %w", err)
	}

	parsed, ok := parseResponse(resp.Text)
	if !ok {
		return []validate.Candidate{fallbackCandidate(norm.Text)}, nil, nil
	}

	candidates := make([]validate.Candidate, 0, len(parsed.Cards))
	for _, c := range parsed.Cards {
		candidates = append(candidates, validate.Candidate{
			Claim:      c.Claim,
			ThenStart:  rawString(c.ThenStart),
			ThenEnd:    rawString(c.ThenEnd),
			NowLabel:   c.NowLabel,
			LinkType:   c.LinkType,
			Tags:       c.Tags,
			Evidence:   c.Evidence,
			Confidence: c.Confidence,
		})
	}
	return candidates, parsed.Topics, nil
}

func buildPrompt(issue model.Issue, text string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze this newsletter issue and extract historical cards.\n\n")
	fmt.Fprintf(&b, "Title: %s\n", issue.Title)
	if !issue.PublishedAt.IsZero() {
		// Advisory only: the anchor must come from the text, not the
		// publish date.
		fmt.Fprintf(&b, "Published: %s (approximate)\n", issue.PublishedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Content:\n%s\n\n", text)

	b.WriteString(`Respond with ONLY a JSON object (no markdown, no explanation) with this structure:
{
  "cards": [
    {
      "claim": "short declarative claim, 12-220 characters",
      "then_start": 2003,
      "then_end": 2003,
      "now_label": "optional short label for the present-day side",
      "link_type": "one of: recurrence, inversion, tactic-transfer, regulatory-echo, platform-lifecycle, narrative-laundering, rebranding, capability-jump",
      "tags": ["entities", "platforms", "people"],
      "evidence": ["verbatim quote from the supplied text"],
      "confidence": 0.8
    }
  ],
  "topics": ["tech", "memes", "politics", "entertainment"]
}

RULES:
1. Produce between 2 and 6 cards.
2. Every evidence string MUST be an EXACT substring of the supplied content, copied verbatim. No paraphrasing.
3. then_start/then_end are the years the claim is historically anchored to, taken from the text, not the publish date. Omit them when the text names no year.
4. link_type is optional; omit it rather than inventing a new value.
5. Focus on WHAT happened, WHEN it happened, and WHO was involved. Be specific with names, platforms, and dates.
6. Select topics based on the issue as a whole; multiple topics are fine.`)

	return b.String()
}

// parseResponse decodes the completion output, tolerating markdown fences.
func parseResponse(text string) (assistedResponse, bool) {
	text = strings.TrimSpace(fence.ReplaceAllString(strings.TrimSpace(text), ""))

	var parsed assistedResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return assistedResponse{}, false
	}
	return parsed, true
}

// fallbackCandidate builds the safe-default card from the head of the clean
// text, tagged to the default era bucket. It quotes exactly what it claims,
// so it passes the grounding gate whenever the text is long enough to
// matter.
func fallbackCandidate(cleanText string) validate.Candidate {
	head := truncate(normalize.Flatten(cleanText), 200)
	return validate.Candidate{
		Claim:    head,
		Tags:     []string{period.DefaultBucketID},
		Evidence: []string{head},
	}
}

// rawString renders a raw JSON scalar as trimmed text.
func rawString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	if s == "null" {
		return ""
	}
	return s
}
