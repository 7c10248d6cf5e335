package indexer

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yrd980/starsearch/internal/doccache"
	"github.com/Yrd980/starsearch/internal/storage"
	"github.com/Yrd980/starsearch/pkg/types"
)

type fakeFetcher struct {
	repos      []types.RawRepo
	readmes    map[string]string
	readmeErrs map[string]error
	fetchCalls atomic.Int32
	listErr    error
	listCalls  atomic.Int32
}

func (f *fakeFetcher) ListStarred(ctx context.Context) ([]types.RawRepo, error) {
	f.listCalls.Add(1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.repos, nil
}

func (f *fakeFetcher) FetchReadme(ctx context.Context, fullName string) (string, error) {
	f.fetchCalls.Add(1)
	if err, ok := f.readmeErrs[fullName]; ok {
		return "", err
	}
	if readme, ok := f.readmes[fullName]; ok {
		return readme, nil
	}
	return "", types.ErrReadmeNotFound
}

func rawRepo(fullName string, stars int) types.RawRepo {
	return types.RawRepo{
		FullName:  fullName,
		Name:      fullName[len("owner/"):],
		Stars:     stars,
		UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		HTMLURL:   "https://github.com/" + fullName,
	}
}

func setupIndexer(t *testing.T, fetcher *fakeFetcher) (*Indexer, storage.Store) {
	t.Helper()
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cache, err := doccache.New(t.TempDir())
	require.NoError(t, err)

	return New(fetcher, store, cache, &Config{Workers: 2}), store
}

func TestRunIndexesListing(t *testing.T) {
	fetcher := &fakeFetcher{
		repos: []types.RawRepo{
			rawRepo("owner/alpha", 100),
			rawRepo("owner/beta", 200),
		},
		readmes: map[string]string{
			"owner/alpha": "# Alpha\n\nDoes alpha things",
			"owner/beta":  "# Beta\n\nDoes beta things",
		},
	}
	idx, store := setupIndexer(t, fetcher)

	report, err := idx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, report.Written)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.Errors)

	got, err := store.Get(context.Background(), "owner/alpha")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Does alpha things", got.ReadmeContent, "readme is stored cleaned")
}

func TestRunSecondPassSkipsUnchanged(t *testing.T) {
	fetcher := &fakeFetcher{
		repos:   []types.RawRepo{rawRepo("owner/alpha", 100)},
		readmes: map[string]string{"owner/alpha": "readme"},
	}
	idx, _ := setupIndexer(t, fetcher)

	report, err := idx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)

	report, err = idx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Written)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, int32(1), fetcher.fetchCalls.Load(),
		"second run must resolve the readme from the document cache")
}

func TestRunCapturesPerRepoFailures(t *testing.T) {
	fetcher := &fakeFetcher{
		repos: []types.RawRepo{
			rawRepo("owner/good", 100),
			rawRepo("owner/bad", 50),
		},
		readmes: map[string]string{"owner/good": "fine"},
		readmeErrs: map[string]error{
			"owner/bad": fmt.Errorf("%w: boom", types.ErrFetchFailed),
		},
	}
	idx, store := setupIndexer(t, fetcher)

	report, err := idx.Run(context.Background())
	require.NoError(t, err, "one failing repo must not abort the run")
	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "owner/bad")

	_, err = store.Get(context.Background(), "owner/good")
	assert.NoError(t, err)
	_, err = store.Get(context.Background(), "owner/bad")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunMissingReadmeIsNotFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		repos: []types.RawRepo{rawRepo("owner/noreadme", 5)},
	}
	idx, store := setupIndexer(t, fetcher)

	report, err := idx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 0, report.Failed)

	got, err := store.Get(context.Background(), "owner/noreadme")
	require.NoError(t, err)
	assert.Empty(t, got.ReadmeContent)
}

func TestRunArchivedSkipsFetch(t *testing.T) {
	archived := rawRepo("owner/frozen", 10)
	archived.Archived = true

	fetcher := &fakeFetcher{
		repos:   []types.RawRepo{archived},
		readmes: map[string]string{"owner/frozen": "should not be fetched"},
	}
	idx, store := setupIndexer(t, fetcher)

	report, err := idx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)
	assert.Equal(t, int32(0), fetcher.fetchCalls.Load())

	got, err := store.Get(context.Background(), "owner/frozen")
	require.NoError(t, err)
	assert.True(t, got.Archived)
	assert.Empty(t, got.ReadmeContent)
}

func TestRunArchivedFlipPersistedDespiteFreshCache(t *testing.T) {
	fetcher := &fakeFetcher{
		repos:   []types.RawRepo{rawRepo("owner/alpha", 100)},
		readmes: map[string]string{"owner/alpha": "alpha readme body"},
	}
	idx, store := setupIndexer(t, fetcher)

	report, err := idx.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Written)

	// Same updated_at, so the cache entry for the old readme is still
	// fresh. The archived flag must win over the cache.
	flipped := rawRepo("owner/alpha", 100)
	flipped.Archived = true
	fetcher.repos = []types.RawRepo{flipped}

	report, err = idx.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 0, report.Skipped)

	got, err := store.Get(context.Background(), "owner/alpha")
	require.NoError(t, err)
	assert.True(t, got.Archived)
	assert.Empty(t, got.ReadmeContent)
}

func TestRunListFailure(t *testing.T) {
	fetcher := &fakeFetcher{listErr: fmt.Errorf("%w: rate limited", types.ErrFetchFailed)}
	idx, _ := setupIndexer(t, fetcher)

	_, err := idx.Run(context.Background())
	assert.ErrorIs(t, err, types.ErrFetchFailed)
}

func TestConcurrentRunsRejected(t *testing.T) {
	fetcher := &fakeFetcher{repos: []types.RawRepo{rawRepo("owner/alpha", 1)}}
	idx, _ := setupIndexer(t, fetcher)

	require.True(t, idx.lock.TryAcquire())
	defer idx.lock.Release()

	_, err := idx.IndexRepos(context.Background(), fetcher.repos)
	assert.ErrorIs(t, err, ErrIndexInProgress)
}

func TestRemove(t *testing.T) {
	fetcher := &fakeFetcher{
		repos:   []types.RawRepo{rawRepo("owner/alpha", 100)},
		readmes: map[string]string{"owner/alpha": "readme"},
	}
	idx, store := setupIndexer(t, fetcher)

	_, err := idx.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, idx.Remove(context.Background(), "owner/alpha"))
	_, err = store.Get(context.Background(), "owner/alpha")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = idx.Remove(context.Background(), "owner/alpha")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
