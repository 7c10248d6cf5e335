// Package indexer coordinates the indexing pipeline: fetch -> clean -> store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Yrd980/starsearch/internal/doccache"
	"github.com/Yrd980/starsearch/internal/markdown"
	"github.com/Yrd980/starsearch/internal/storage"
	"github.com/Yrd980/starsearch/pkg/types"
)

// ErrIndexInProgress is returned when a run is started while another run
// holds the index lock.
var ErrIndexInProgress = errors.New("index run already in progress")

// Fetcher provides the remote repository listing and README documents.
type Fetcher interface {
	ListStarred(ctx context.Context) ([]types.RawRepo, error)
	FetchReadme(ctx context.Context, fullName string) (string, error)
}

// Indexer drives full index runs over the starred listing.
type Indexer struct {
	fetcher Fetcher
	store   storage.Store
	cache   *doccache.Cache
	logger  *slog.Logger

	// Worker pool configuration
	workers int

	lock IndexLock
}

// Config contains configuration for the indexer
type Config struct {
	Workers int // Number of concurrent README fetchers (default: runtime.NumCPU())
}

// Report summarizes a completed index run.
type Report struct {
	Processed int
	Written   int
	Skipped   int
	Failed    int
	Duration  time.Duration
	Errors    []string
}

// New creates a new Indexer instance
func New(fetcher Fetcher, store storage.Store, cache *doccache.Cache, config *Config) *Indexer {
	workers := runtime.NumCPU()
	if config != nil && config.Workers > 0 {
		workers = config.Workers
	}
	return &Indexer{
		fetcher: fetcher,
		store:   store,
		cache:   cache,
		logger:  slog.Default(),
		workers: workers,
	}
}

// Run fetches the full starred listing and indexes it.
func (idx *Indexer) Run(ctx context.Context) (*Report, error) {
	raw, err := idx.fetcher.ListStarred(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list starred repositories: %w", err)
	}
	return idx.IndexRepos(ctx, raw)
}

// IndexRepos indexes the given listing. README documents are fetched
// concurrently; writes to the store are serialized. One failing repository
// never aborts the run.
func (idx *Indexer) IndexRepos(ctx context.Context, raw []types.RawRepo) (*Report, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	startTime := time.Now()
	report := &Report{
		Processed: len(raw),
		Errors:    make([]string, 0),
	}

	var failed int32
	var mu sync.Mutex // Protect report.Errors

	prepared := make([]*types.Repository, len(raw))

	semaphore := make(chan struct{}, idx.workers)
	g, gctx := errgroup.WithContext(ctx)

	for i := range raw {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			repo, err := idx.prepare(gctx, raw[i])
			if err != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", raw[i].FullName, err))
				mu.Unlock()
				// Continue with other repositories
				return nil
			}
			prepared[i] = repo
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, repo := range prepared {
		if repo == nil {
			continue
		}
		result, err := idx.store.Upsert(ctx, repo)
		if err != nil {
			failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", repo.FullName, err))
			continue
		}
		switch result {
		case storage.Written:
			report.Written++
		case storage.Skipped:
			report.Skipped++
		}
	}

	report.Failed = int(failed)
	report.Duration = time.Since(startTime)

	idx.logger.Info("index run complete",
		"processed", report.Processed,
		"written", report.Written,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration)

	return report, nil
}

// prepare converts one listing entry into a storable record, resolving its
// README through the document cache.
func (idx *Indexer) prepare(ctx context.Context, raw types.RawRepo) (*types.Repository, error) {
	repo := raw.ToRepository()
	repo.LastIndexed = time.Now().UTC()

	readme, err := idx.resolveReadme(ctx, &repo)
	if err != nil {
		return nil, err
	}
	repo.ReadmeContent = readme

	return &repo, nil
}

func (idx *Indexer) resolveReadme(ctx context.Context, repo *types.Repository) (string, error) {
	// Archived repositories index with empty readme content, no matter
	// what the cache holds. Checking the cache first would hand back the
	// pre-archive readme, leave the fingerprint unchanged, and the
	// archived flag would never reach the store.
	if repo.Archived {
		return "", nil
	}

	if cached, ok := idx.cache.Get(repo.FullName, repo.UpdatedAt); ok {
		return cached, nil
	}

	readme, err := idx.fetcher.FetchReadme(ctx, repo.FullName)
	if err != nil {
		if errors.Is(err, types.ErrReadmeNotFound) {
			return "", nil
		}
		return "", err
	}

	cleaned := markdown.Clean(readme)
	idx.cache.Put(repo.FullName, cleaned)
	return cleaned, nil
}

// Remove deletes a repository from the index and drops its cached document.
func (idx *Indexer) Remove(ctx context.Context, fullName string) error {
	if err := idx.store.Delete(ctx, fullName); err != nil {
		return err
	}
	idx.cache.Remove(fullName)
	return nil
}
