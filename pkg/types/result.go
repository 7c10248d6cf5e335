package types

// ScoredRepo is a single search result: the record plus relevance metadata.
// The record's fields are inlined in the JSON encoding so API consumers see
// one flat object per result. Score is 0 and MatchedFields/Snippets are empty
// in browse mode (empty query).
type ScoredRepo struct {
	Repository
	Score         float64           `json:"search_score"`
	MatchedFields []string          `json:"matched_fields"`
	Snippets      map[string]string `json:"snippets"`
}

// IndexStats summarizes the current contents of the index.
type IndexStats struct {
	TotalRepositories int     `json:"total_repositories"`
	WithReadme        int     `json:"repositories_with_readme"`
	UniqueLanguages   int     `json:"unique_languages"`
	ReadmeCoverage    float64 `json:"readme_coverage"`
}
