package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Yrd980/starsearch/internal/searcher"
	"github.com/Yrd980/starsearch/internal/storage"
)

var (
	searchLimit    int
	searchMinScore float64
	searchFormat   string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the local index",
	Long: `Search indexed repositories by name, description, README content
and topics. An empty query lists the most-starred repositories.

Examples:
  # Basic search
  starsearch search "json parser"

  # Limit results and raise the relevance floor
  starsearch search kubernetes --limit 5 --min-score 0.5

  # JSON output for scripting
  starsearch search redis --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", searcher.DefaultLimit, "Maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", searcher.DefaultMinScore, "Minimum relevance score")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "Output format: text or json")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	cfg := GetConfig()
	store, err := storage.NewSQLiteStore(cfg.Index.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = store.Close() }()

	resp, err := searcher.New(store).Search(ctx, searcher.Request{
		Query:    query,
		Limit:    searchLimit,
		MinScore: searchMinScore,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(resp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if searchFormat == "json" {
		output, err := json.MarshalIndent(resp.Results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	for i, result := range resp.Results {
		fmt.Printf("%2d. %s (%d stars, score %.2f)\n", i+1, result.FullName, result.Stars, result.Score)
		if result.Description != "" {
			fmt.Printf("    %s\n", result.Description)
		}
		if len(result.MatchedFields) > 0 {
			fmt.Printf("    matched: %s\n", strings.Join(result.MatchedFields, ", "))
		}
	}
	return nil
}
