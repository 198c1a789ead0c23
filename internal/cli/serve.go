package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hindsite/internal/api"
	"hindsite/internal/pipeline"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the card read API and import trigger",
	Long: `Serve starts the HTTP API:

  GET  /api/cards   - cards ordered by temporal anchor, then publish date
  GET  /api/issues  - issues ordered by publish date
  POST /api/import  - trigger a background import (409 while one runs)
  GET  /healthz`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
	serveCmd.Flags().StringVar(&strategy, "strategy", "", "generation strategy for triggered imports (heuristic, assisted)")
	serveCmd.Flags().StringVar(&dbPath, "db", "", "database path (default: ~/.hindsite/hindsite.db)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if strategy != "" {
		cfg.Generator.Strategy = strategy
	}
	if dbPath != "" {
		cfg.Store.DBPath = dbPath
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

	server := api.NewServer(p.Store(), p, logger)

	logger.Info("serving API", zap.String("addr", cfg.Server.Addr))
	return server.Run(cfg.Server.Addr)
}
