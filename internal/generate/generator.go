// Package generate produces candidate cards from normalized issue text. Two
// interchangeable strategies exist: a deterministic heuristic over sentence
// units and an assisted strategy that delegates proposals to a completion
// service. Candidates from either are proposals only; the validation gate
// decides what gets stored.
package generate

import (
	"context"
	"fmt"

	"hindsite/internal/entity"
	"hindsite/internal/llm"
	"hindsite/internal/model"
	"hindsite/internal/normalize"
	"hindsite/internal/temporal"
	"hindsite/internal/validate"
)

// Generator emits candidate cards for one issue. Implementations must not
// persist anything; topics are issue-level proposals (assisted only).
type Generator interface {
	Name() string
	Generate(ctx context.Context, issue model.Issue, norm normalize.Result) (candidates []validate.Candidate, topics []string, err error)
}

// New selects the configured strategy. The assisted strategy requires a
// completion provider; passing nil falls back to an error so a misconfigured
// deployment fails at startup.
func New(cfg model.GeneratorConfig, extractor *temporal.Extractor, tagger *entity.Tagger, provider llm.Provider) (Generator, error) {
	switch cfg.Strategy {
	case "", "heuristic":
		return NewHeuristic(cfg, extractor, tagger), nil

	case "assisted":
		if provider == nil {
			return nil, fmt.Errorf("assisted strategy requires an llm provider")
		}
		return NewAssisted(cfg, provider), nil

	default:
		return nil, fmt.Errorf("unknown generator strategy: %s (supported: heuristic, assisted)", cfg.Strategy)
	}
}
