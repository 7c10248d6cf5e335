package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Yrd980/starsearch/internal/searcher"
	"github.com/Yrd980/starsearch/internal/storage"
)

var (
	suggestLimit  int
	suggestFormat string
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [partial-query]",
	Short: "Show completion suggestions for a partial query",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 10, "Maximum number of suggestions")
	suggestCmd.Flags().StringVar(&suggestFormat, "format", "text", "Output format: text or json")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	store, err := storage.NewSQLiteStore(cfg.Index.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = store.Close() }()

	suggestions, err := searcher.New(store).Suggestions(ctx, args[0], suggestLimit)
	if err != nil {
		return err
	}

	if suggestFormat == "json" {
		output, err := json.MarshalIndent(suggestions, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	for _, s := range suggestions {
		fmt.Println(s)
	}
	return nil
}
