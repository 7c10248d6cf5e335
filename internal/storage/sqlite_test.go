package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yrd980/starsearch/pkg/types"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testRepo(fullName string) *types.Repository {
	name := fullName
	if idx := len("owner/"); len(fullName) > idx {
		name = fullName[idx:]
	}
	return &types.Repository{
		FullName:      fullName,
		Name:          name,
		Description:   "A fast JSON parser",
		Language:      "Go",
		Stars:         100,
		UpdatedAt:     time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		HTMLURL:       "https://github.com/" + fullName,
		OwnerLogin:    "owner",
		Archived:      false,
		ReadmeContent: "Parses JSON really fast",
		Topics:        []string{"json", "parser"},
		LastIndexed:   time.Now().UTC(),
	}
}

func TestUpsertAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	repo := testRepo("owner/fastjson")
	result, err := store.Upsert(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, Written, result)

	got, err := store.Get(ctx, "owner/fastjson")
	require.NoError(t, err)
	assert.Equal(t, "fastjson", got.Name)
	assert.Equal(t, "A fast JSON parser", got.Description)
	assert.Equal(t, []string{"json", "parser"}, got.Topics)
	assert.NotEmpty(t, got.ContentHash)
}

func TestGetNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Get(context.Background(), "owner/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertUnchangedSkips(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	repo := testRepo("owner/fastjson")
	repo.LastIndexed = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.Upsert(ctx, repo)
	require.NoError(t, err)

	// Same content, different stars and a later last_indexed. The stored
	// row must keep its original last_indexed because stars are not part
	// of the fingerprint.
	again := testRepo("owner/fastjson")
	again.Stars = 5000
	again.LastIndexed = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	result, err := store.Upsert(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, Skipped, result)

	got, err := store.Get(ctx, "owner/fastjson")
	require.NoError(t, err)
	assert.Equal(t, 100, got.Stars)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), got.LastIndexed.UTC())
}

func TestUpsertChangedRewrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	repo := testRepo("owner/fastjson")
	_, err := store.Upsert(ctx, repo)
	require.NoError(t, err)

	changed := testRepo("owner/fastjson")
	changed.Description = "A very fast JSON parser"
	result, err := store.Upsert(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, Written, result)

	got, err := store.Get(ctx, "owner/fastjson")
	require.NoError(t, err)
	assert.Equal(t, "A very fast JSON parser", got.Description)

	repoRows, shadowRows, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repoRows)
	assert.Equal(t, 1, shadowRows, "rewrite must not duplicate shadow entries")
}

func TestShadowStaysInSync(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"owner/alpha", "owner/beta", "owner/gamma"} {
		_, err := store.Upsert(ctx, testRepo(name))
		require.NoError(t, err)
	}

	repoRows, shadowRows, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, repoRows)
	assert.Equal(t, repoRows, shadowRows)

	require.NoError(t, store.Delete(ctx, "owner/beta"))

	repoRows, shadowRows, err = store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repoRows)
	assert.Equal(t, repoRows, shadowRows)
}

func TestDeleteNotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.Delete(context.Background(), "owner/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearchFTS(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	small := testRepo("owner/slowjson")
	small.Stars = 10
	_, err := store.Upsert(ctx, small)
	require.NoError(t, err)

	big := testRepo("owner/fastjson")
	big.Stars = 9000
	_, err = store.Upsert(ctx, big)
	require.NoError(t, err)

	other := testRepo("owner/webserver")
	other.Description = "An HTTP server"
	other.ReadmeContent = "Serves web pages"
	other.Topics = []string{"http", "web"}
	_, err = store.Upsert(ctx, other)
	require.NoError(t, err)

	results, err := store.SearchFTS(ctx, "json", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "owner/fastjson", results[0].FullName, "most starred match comes first")
	assert.Equal(t, "owner/slowjson", results[1].FullName)

	all, err := store.SearchFTS(ctx, "json", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2, "non-positive limit returns every match")

	one, err := store.SearchFTS(ctx, "json", 1)
	require.NoError(t, err)
	require.Len(t, one, 1)
}

func TestSearchFTSAfterRewrite(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	repo := testRepo("owner/tool")
	repo.ReadmeContent = "Works with YAML files"
	_, err := store.Upsert(ctx, repo)
	require.NoError(t, err)

	changed := testRepo("owner/tool")
	changed.ReadmeContent = "Works with TOML files"
	_, err = store.Upsert(ctx, changed)
	require.NoError(t, err)

	stale, err := store.SearchFTS(ctx, "yaml", 10)
	require.NoError(t, err)
	assert.Empty(t, stale, "old content must not remain searchable")

	fresh, err := store.SearchFTS(ctx, "toml", 10)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
}

func TestListAllOrdering(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i, name := range []string{"owner/a", "owner/b", "owner/c"} {
		repo := testRepo(name)
		repo.Stars = (i + 1) * 100
		_, err := store.Upsert(ctx, repo)
		require.NoError(t, err)
	}

	all, err := store.ListAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "owner/c", all[0].FullName)
	assert.Equal(t, "owner/a", all[2].FullName)

	limited, err := store.ListAll(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSuggestRows(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	repo := testRepo("owner/fastjson")
	_, err := store.Upsert(ctx, repo)
	require.NoError(t, err)

	rows, err := store.SuggestRows(ctx, "json", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "fastjson", rows[0].Name)
	assert.Equal(t, []string{"json", "parser"}, rows[0].Topics)

	none, err := store.SuggestRows(ctx, "zzz", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	withReadme := testRepo("owner/documented")
	_, err := store.Upsert(ctx, withReadme)
	require.NoError(t, err)

	bare := testRepo("owner/bare")
	bare.ReadmeContent = ""
	bare.Language = "Rust"
	_, err = store.Upsert(ctx, bare)
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRepositories)
	assert.Equal(t, 1, stats.WithReadme)
	assert.Equal(t, 2, stats.UniqueLanguages)
	assert.InDelta(t, 50.0, stats.ReadmeCoverage, 0.001)
}
