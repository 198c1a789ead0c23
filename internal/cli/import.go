package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hindsite/internal/pipeline"
)

var (
	importTimeout     time.Duration
	strategy          string
	loose             bool
	includeTitleYears bool
	importWorkers     int
	llmProvider       string
	llmModel          string
	noCache           bool
	dbPath            string
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import all newsletter issues and regenerate their cards",
	Long: `Import pages through the publication's posts, runs the extraction
pipeline per issue, and replaces each issue's stored card set.

Per-issue failures are logged and skipped; a source failure stops the run
with partial progress preserved.

Example:
  hindsite import
  hindsite import --strategy assisted --llm-provider openai --llm-model gpt-4o-mini
  hindsite import --loose --include-title-years --workers 4`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().DurationVar(&importTimeout, "timeout", 30*time.Minute, "overall import timeout")
	importCmd.Flags().StringVar(&strategy, "strategy", "", "generation strategy (heuristic, assisted)")
	importCmd.Flags().BoolVar(&loose, "loose", false, "also qualify sentences on connection phrases, not only temporal references")
	importCmd.Flags().BoolVar(&includeTitleYears, "include-title-years", false, "also consider years in the issue title for the timeline anchor")
	importCmd.Flags().IntVar(&importWorkers, "workers", 0, "fan out across issues (same-id writes stay serialized)")
	importCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "completion provider for the assisted strategy (openai, ollama)")
	importCmd.Flags().StringVar(&llmModel, "llm-model", "", "completion model name")
	importCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the source response cache")
	importCmd.Flags().StringVar(&dbPath, "db", "", "database path (default: ~/.hindsite/hindsite.db)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if strategy != "" {
		cfg.Generator.Strategy = strategy
	}
	if loose {
		cfg.Generator.Strict = false
	}
	if includeTitleYears {
		cfg.Generator.IncludeTitleYears = true
	}
	if importWorkers > 0 {
		cfg.Concurrency.Workers = importWorkers
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if dbPath != "" {
		cfg.Store.DBPath = dbPath
	}
	if cfg.Generator.Strategy == "assisted" && cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}

	if cfg.Source.PublicationID == "" {
		return fmt.Errorf("source publication id is not configured (set source.publication_id or BEEHIIV_PUBLICATION_ID)")
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	p, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer func() { _ = p.Store().Close() }()

	processed, err := p.ImportAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import stopped early after %d issue(s): %v\n", processed, err)
		return err
	}

	fmt.Printf("✓ Import complete: processed %d issue(s)\n", processed)
	return nil
}
