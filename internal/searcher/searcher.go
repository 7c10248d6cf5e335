package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Yrd980/starsearch/internal/storage"
	"github.com/Yrd980/starsearch/pkg/types"
)

// Field weights for relevance scoring
var fieldWeights = []struct {
	name   string
	weight float64
}{
	{"name", 3.0},
	{"full_name", 2.5},
	{"description", 2.0},
	{"readme_content", 1.5},
	{"topics", 2.5},
}

const (
	// DefaultLimit is used when a request doesn't specify one
	DefaultLimit = 50
	// MaxLimit caps the result window
	MaxLimit = 100
	// DefaultMinScore filters out weak matches
	DefaultMinScore = 0.1

	archivedPenalty = 0.7
	maxStarBoost    = 0.5
)

// Request contains parameters for a search operation
type Request struct {
	Query    string
	Limit    int
	MinScore float64
	UseCache bool
	CacheTTL time.Duration
}

// Response contains search results and metadata
type Response struct {
	Results  []types.ScoredRepo
	Total    int
	Query    string
	Duration time.Duration
	CacheHit bool
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// Searcher ranks indexed repositories against free-text queries, combining
// full-text matches with a fuzzy full scan when the index comes up short.
type Searcher struct {
	store   storage.Store
	logger  *slog.Logger
	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// New creates a new Searcher instance
func New(store storage.Store) *Searcher {
	// Create LRU cache with 1000 entry limit
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		store:  store,
		logger: slog.Default(),
		cache:  cache,
	}
}

// Search ranks repositories against req.Query. An empty or all-stop-word
// query returns the most-starred repositories unscored.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	startTime := time.Now()
	s.validateRequest(&req)

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	keywords := ExtractKeywords(NormalizeQuery(req.Query))

	var response *Response
	var err error
	if len(keywords) == 0 {
		response, err = s.browse(ctx, req)
	} else {
		response, err = s.rankedSearch(ctx, req, keywords)
	}
	if err != nil {
		return nil, err
	}

	response.Query = req.Query
	response.Duration = time.Since(startTime)

	if req.UseCache && len(response.Results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

func (s *Searcher) validateRequest(req *Request) {
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	// Zero is a valid floor (keep everything scored); only negative values
	// fall back to the default.
	if req.MinScore < 0 {
		req.MinScore = DefaultMinScore
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = 5 * time.Minute
	}
}

// browse returns the most-starred repositories without scoring.
func (s *Searcher) browse(ctx context.Context, req Request) (*Response, error) {
	repos, err := s.store.ListAll(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	results := make([]types.ScoredRepo, len(repos))
	for i, repo := range repos {
		results[i] = types.ScoredRepo{
			Repository:    repo,
			MatchedFields: []string{},
			Snippets:      map[string]string{},
		}
	}
	return &Response{Results: results, Total: len(results)}, nil
}

// rankedSearch queries the full-text index first, then falls back to scoring
// a full scan when the index returns too few usable matches.
func (s *Searcher) rankedSearch(ctx context.Context, req Request, keywords []string) (*Response, error) {
	var results []types.ScoredRepo
	seen := make(map[string]struct{})

	// Every full-text match gets scored: truncating here would drop
	// relevant low-star rows behind a star-ordered window.
	ftsQuery := strings.Join(keywords, " OR ")
	ftsRepos, err := s.store.SearchFTS(ctx, ftsQuery, 0)
	if err != nil {
		// A query term the FTS parser rejects is not the caller's
		// problem; the fuzzy scan below covers it.
		s.logger.Debug("full-text query failed, using fuzzy scan only",
			"query", req.Query, "error", err)
		ftsRepos = nil
	}

	for _, repo := range ftsRepos {
		scored := s.scoreRepository(repo, keywords)
		if scored.Score >= req.MinScore {
			results = append(results, scored)
			seen[repo.FullName] = struct{}{}
		}
	}

	if len(results) < req.Limit/2 {
		all, err := s.store.ListAll(ctx, 0)
		if err != nil {
			return nil, err
		}
		for _, repo := range all {
			if _, dup := seen[repo.FullName]; dup {
				continue
			}
			scored := s.scoreRepository(repo, keywords)
			if scored.Score >= req.MinScore {
				results = append(results, scored)
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	return &Response{Results: results, Total: len(results)}, nil
}

// scoreRepository computes the weighted relevance of one repository.
func (s *Searcher) scoreRepository(repo types.Repository, keywords []string) types.ScoredRepo {
	scored := types.ScoredRepo{
		Repository:    repo,
		MatchedFields: []string{},
		Snippets:      map[string]string{},
	}
	if len(keywords) == 0 {
		return scored
	}

	total := 0.0
	for _, fw := range fieldWeights {
		value := fieldValue(repo, fw.name)
		if value == "" {
			continue
		}

		similarity, _ := textSimilarity(keywords, value)
		if similarity <= 0 {
			continue
		}

		total += similarity * fw.weight
		scored.MatchedFields = append(scored.MatchedFields, fw.name)

		if fw.name == "description" || fw.name == "readme_content" {
			scored.Snippets[fw.name] = extractSnippet(value, keywords)
		}
	}

	total += math.Min(math.Log10(float64(repo.Stars)+1)*0.1, maxStarBoost)

	if repo.Archived {
		total *= archivedPenalty
	}

	scored.Score = total
	return scored
}

func fieldValue(repo types.Repository, field string) string {
	switch field {
	case "name":
		return repo.Name
	case "full_name":
		return repo.FullName
	case "description":
		return repo.Description
	case "readme_content":
		return repo.ReadmeContent
	case "topics":
		return strings.Join(repo.Topics, " ")
	default:
		return ""
	}
}

// Suggestions returns repository names and topics containing the normalized
// partial query. Queries shorter than two characters return nothing.
func (s *Searcher) Suggestions(ctx context.Context, partial string, limit int) ([]string, error) {
	normalized := NormalizeQuery(partial)
	if len(normalized) < 2 {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.store.SuggestRows(ctx, normalized, limit*3)
	if err != nil {
		return nil, err
	}

	suggestions := make([]string, 0, limit)
	seen := make(map[string]struct{})
	add := func(value string) {
		if _, dup := seen[value]; dup {
			return
		}
		seen[value] = struct{}{}
		suggestions = append(suggestions, value)
	}

	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Name), normalized) {
			add(row.Name)
		}
		for _, topic := range row.Topics {
			if strings.Contains(strings.ToLower(topic), normalized) {
				add(topic)
			}
		}
	}

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// InvalidateCache drops all cached responses. Called after index runs so
// stale rankings don't outlive their TTL.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// computeRequestHash builds the cache key for a request
func computeRequestHash(req Request) [32]byte {
	return sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%f", req.Query, req.Limit, req.MinScore)))
}

func (s *Searcher) checkCache(req Request) *Response {
	hash := computeRequestHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}
	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}
	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

func (s *Searcher) storeInCache(req Request, response *Response) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeRequestHash(req), entry)
	s.cacheMu.Unlock()
}

// copyResponse creates a deep copy so cached entries can't be mutated by
// callers.
func copyResponse(src *Response) *Response {
	if src == nil {
		return nil
	}
	dst := &Response{
		Total:    src.Total,
		Query:    src.Query,
		Duration: src.Duration,
		CacheHit: src.CacheHit,
		Results:  make([]types.ScoredRepo, len(src.Results)),
	}
	for i, result := range src.Results {
		copied := result
		copied.MatchedFields = append([]string(nil), result.MatchedFields...)
		copied.Snippets = make(map[string]string, len(result.Snippets))
		for k, v := range result.Snippets {
			copied.Snippets[k] = v
		}
		dst.Results[i] = copied
	}
	return dst
}
