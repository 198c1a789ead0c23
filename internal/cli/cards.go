package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hindsite/internal/store"
)

var cardsJSON bool

// cardsCmd represents the cards command
var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List stored cards in display order",
	Long: `List all stored cards ordered by temporal anchor ascending (cards
without an anchor last), then by issue publish date.`,
	Args: cobra.NoArgs,
	RunE: runCards,
}

func init() {
	rootCmd.AddCommand(cardsCmd)

	cardsCmd.Flags().BoolVar(&cardsJSON, "json", false, "emit JSON instead of a summary line per card")
	cardsCmd.Flags().StringVar(&dbPath, "db", "", "database path (default: ~/.hindsite/hindsite.db)")
}

func runCards(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.Store.DBPath = dbPath
	}

	s, err := store.NewStore(cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = s.Close() }()

	cards, err := s.ListCards(context.Background())
	if err != nil {
		return fmt.Errorf("list cards: %w", err)
	}

	if cardsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cards)
	}

	for _, c := range cards {
		anchor := "      "
		if c.ThenStart != nil {
			anchor = fmt.Sprintf("%d", *c.ThenStart)
			if c.ThenEnd != nil && *c.ThenEnd != *c.ThenStart {
				anchor = fmt.Sprintf("%d-%d", *c.ThenStart, *c.ThenEnd)
			}
		}
		fmt.Printf("%-9s  %s  [%s #%d]\n", anchor, c.Claim, c.IssueID, c.Index)
	}
	fmt.Fprintf(os.Stderr, "\n%d card(s)\n", len(cards))
	return nil
}
