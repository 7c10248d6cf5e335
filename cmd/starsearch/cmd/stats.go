package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Yrd980/starsearch/internal/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	store, err := storage.NewSQLiteStore(cfg.Index.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Repositories:    %d\n", stats.TotalRepositories)
	fmt.Printf("With README:     %d (%.1f%%)\n", stats.WithReadme, stats.ReadmeCoverage)
	fmt.Printf("Languages:       %d\n", stats.UniqueLanguages)
	return nil
}
