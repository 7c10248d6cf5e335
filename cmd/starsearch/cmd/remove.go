package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Yrd980/starsearch/internal/doccache"
	"github.com/Yrd980/starsearch/internal/indexer"
	"github.com/Yrd980/starsearch/internal/storage"
)

var removeCmd = &cobra.Command{
	Use:   "remove [owner/repo]",
	Short: "Remove a repository from the index",
	Long: `Remove a repository and its cached README from the local index,
for example after unstarring it.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	store, err := storage.NewSQLiteStore(cfg.Index.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = store.Close() }()

	cache, err := doccache.New(cfg.Index.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to open document cache: %w", err)
	}

	idx := indexer.New(nil, store, cache, nil)
	if err := idx.Remove(ctx, args[0]); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s is not in the index", args[0])
		}
		return err
	}

	fmt.Printf("Removed %s\n", args[0])
	return nil
}
