package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Yrd980/starsearch/internal/doccache"
	"github.com/Yrd980/starsearch/internal/github"
	"github.com/Yrd980/starsearch/internal/indexer"
	"github.com/Yrd980/starsearch/internal/storage"
)

var indexWorkers int

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Fetch the starred listing and update the local index",
	Long: `Fetch every repository starred by the authenticated user, resolve
README content through the local document cache, and upsert the results into
the index. Repositories whose content is unchanged since the last run are
skipped.

Examples:
  # Full index run
  STARSEARCH_GITHUB_TOKEN=ghp_xxx starsearch index

  # Limit concurrent README fetches
  starsearch index --workers 4`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().IntVar(&indexWorkers, "workers", 0, "Concurrent README fetches (default: CPU count)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	if cfg.GitHub.Token == "" {
		return fmt.Errorf("github token not configured (set STARSEARCH_GITHUB_TOKEN)")
	}

	store, err := storage.NewSQLiteStore(cfg.Index.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = store.Close() }()

	cache, err := doccache.New(cfg.Index.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to open document cache: %w", err)
	}

	client := github.NewClient(cfg.GitHub.Token, github.WithBaseURL(cfg.GitHub.APIURL))

	workers := indexWorkers
	if workers <= 0 {
		workers = cfg.Index.Workers
	}

	idx := indexer.New(client, store, cache, &indexer.Config{Workers: workers})
	report, err := idx.Run(ctx)
	if err != nil {
		return fmt.Errorf("index run failed: %w", err)
	}

	fmt.Printf("Indexed %d repositories in %s: %d written, %d skipped, %d failed\n",
		report.Processed, report.Duration.Round(time.Millisecond), report.Written, report.Skipped, report.Failed)
	for _, msg := range report.Errors {
		fmt.Printf("  failed: %s\n", msg)
	}
	return nil
}
