// Package pipeline orchestrates the extraction run: fetch, normalize,
// generate, validate, derive periods, persist. Per-issue failures are logged
// and skipped; only source-level failures stop a batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hindsite/internal/cache"
	"hindsite/internal/entity"
	"hindsite/internal/generate"
	"hindsite/internal/llm"
	"hindsite/internal/model"
	"hindsite/internal/normalize"
	"hindsite/internal/period"
	"hindsite/internal/source"
	"hindsite/internal/store"
	"hindsite/internal/temporal"
	"hindsite/internal/validate"
	"hindsite/internal/worker"
)

// Fetcher pages through upstream issues.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) (issues []model.Issue, hasMore bool, err error)
}

// Pipeline runs the full extraction for issues, one at a time or fanned out
// across distinct issue ids.
type Pipeline struct {
	fetcher   Fetcher
	generator generate.Generator
	validator *validate.Validator
	cards     store.CardStore

	locks   *worker.KeyedMutex
	runLock worker.RunLock
	workers int
	logger  *zap.Logger
}

// NewPipeline assembles a pipeline from its components. Used directly by
// tests; production wiring goes through FromConfig.
func NewPipeline(fetcher Fetcher, gen generate.Generator, v *validate.Validator, cards store.CardStore, workers int, logger *zap.Logger) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		fetcher:   fetcher,
		generator: gen,
		validator: v,
		cards:     cards,
		locks:     worker.NewKeyedMutex(),
		workers:   workers,
		logger:    logger,
	}
}

// FromConfig wires the full production pipeline: source client, strategy,
// validator, and store.
func FromConfig(cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	extractor := temporal.NewExtractor(cfg.Temporal)

	tagger, err := entity.NewTagger(cfg.Entity)
	if err != nil {
		return nil, fmt.Errorf("entity tagger: %w", err)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	gen, err := generate.New(cfg.Generator, extractor, tagger, provider)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	// The validated cap tracks the strategy: the assisted proposal cap is
	// tighter than the heuristic document-order cap.
	vcfg := cfg.Validator
	if gen.Name() == "heuristic" {
		vcfg.MaxCards = cfg.Generator.MaxCards
	}

	cardStore, err := store.NewStore(cfg.Store.DBPath)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	var responseCache cache.Cache
	if cfg.Cache.Enabled {
		responseCache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	fetcher := source.NewClient(cfg, responseCache, logger)

	return NewPipeline(fetcher, gen, validate.NewValidator(vcfg), cardStore, cfg.Concurrency.Workers, logger), nil
}

// Store exposes the card store for read-side consumers (API, CLI listings).
func (p *Pipeline) Store() store.CardStore {
	return p.cards
}

// ProcessIssue runs the extraction for one issue and replaces its stored
// card set. Writers on the same issue id are serialized; a failure anywhere
// leaves the previously stored cards untouched.
func (p *Pipeline) ProcessIssue(ctx context.Context, issue model.Issue) error {
	p.locks.Lock(issue.ID)
	defer p.locks.Unlock(issue.ID)

	norm := normalize.Normalize(issue.RawContent)
	if norm.Text == "" {
		return fmt.Errorf("issue %s has no content", issue.ID)
	}

	candidates, topics, err := p.generator.Generate(ctx, issue, norm)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	cards := p.validator.Validate(norm.Text, candidates)

	now := time.Now().UTC()
	for i := range cards {
		cards[i].IssueID = issue.ID
		cards[i].CreatedAt = now
	}

	rec := store.IssueRecord{
		Issue:       issue,
		Periods:     period.PeriodsForCards(cards),
		Topics:      model.FilterTopics(topics),
		ProcessedAt: now,
	}
	if err := p.cards.UpsertIssue(ctx, rec); err != nil {
		return fmt.Errorf("upsert issue: %w", err)
	}

	if err := p.cards.ReplaceCards(ctx, issue.ID, cards); err != nil {
		return fmt.Errorf("replace cards: %w", err)
	}

	p.logger.Info("processed issue",
		zap.String("issue_id", issue.ID),
		zap.String("title", issue.Title),
		zap.Int("candidates", len(candidates)),
		zap.Int("cards", len(cards)),
		zap.Strings("periods", rec.Periods))

	return nil
}

// ErrImportInProgress is returned when an import run is already holding the
// run lock.
var ErrImportInProgress = errors.New("an import run is already in progress")

// ImportAll pages through the source and processes every issue. Returns the
// number of issues successfully processed; a source failure stops the loop
// early with partial progress preserved, never rolled back. Runs are
// mutually exclusive.
func (p *Pipeline) ImportAll(ctx context.Context) (int, error) {
	if !p.runLock.TryAcquire() {
		return 0, ErrImportInProgress
	}
	defer p.runLock.Release()

	return p.importRun(ctx)
}

// StartImport launches an import run in the background, or reports
// ErrImportInProgress when one is already in flight.
func (p *Pipeline) StartImport(ctx context.Context) error {
	if !p.runLock.TryAcquire() {
		return ErrImportInProgress
	}

	go func() {
		defer p.runLock.Release()

		processed, err := p.importRun(ctx)
		if err != nil {
			p.logger.Error("import run stopped early",
				zap.Int("processed", processed),
				zap.Error(err))
			return
		}
		p.logger.Info("import run complete", zap.Int("processed", processed))
	}()

	return nil
}

func (p *Pipeline) importRun(ctx context.Context) (int, error) {
	if p.workers > 1 {
		return p.importConcurrent(ctx)
	}
	return p.importSequential(ctx)
}

func (p *Pipeline) importSequential(ctx context.Context) (int, error) {
	processed := 0
	for page := 1; ; page++ {
		issues, hasMore, err := p.fetcher.FetchPage(ctx, page)
		if err != nil {
			return processed, fmt.Errorf("fetch page %d: %w", page, err)
		}
		if len(issues) == 0 {
			break
		}

		p.logger.Info("fetched page", zap.Int("page", page), zap.Int("issues", len(issues)))

		for _, issue := range issues {
			if err := p.ProcessIssue(ctx, issue); err != nil {
				p.logger.Warn("skipping issue",
					zap.String("issue_id", issue.ID),
					zap.Error(err))
				continue
			}
			processed++
		}

		if !hasMore {
			break
		}
	}
	return processed, nil
}

// importConcurrent fans issue processing out across the worker pool. Same-id
// writes stay serialized by the keyed mutex inside ProcessIssue.
func (p *Pipeline) importConcurrent(ctx context.Context) (int, error) {
	pool := worker.NewPool(p.workers)
	pool.Start(ctx)

	var fetchErr error
	for page := 1; ; page++ {
		issues, hasMore, err := p.fetcher.FetchPage(ctx, page)
		if err != nil {
			fetchErr = fmt.Errorf("fetch page %d: %w", page, err)
			break
		}
		if len(issues) == 0 {
			break
		}

		for _, issue := range issues {
			pool.Submit(ctx, &issueJob{pipeline: p, issue: issue})
		}

		if !hasMore {
			break
		}
	}

	processed := 0
	for _, result := range pool.Wait() {
		r := result.(*issueResult)
		if r.err != nil {
			p.logger.Warn("skipping issue", zap.String("issue_id", r.issueID), zap.Error(r.err))
			continue
		}
		processed++
	}
	return processed, fetchErr
}

type issueJob struct {
	pipeline *Pipeline
	issue    model.Issue
}

func (j *issueJob) Execute(ctx context.Context) worker.Result {
	return &issueResult{
		issueID: j.issue.ID,
		err:     j.pipeline.ProcessIssue(ctx, j.issue),
	}
}

type issueResult struct {
	issueID string
	err     error
}

func (r *issueResult) GetError() error { return r.err }
