package searcher

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "json parser", NormalizeQuery("JSON parser!"))
	assert.Equal(t, "c http server", NormalizeQuery("  C++  HTTP/server  "))
	assert.Equal(t, "", NormalizeQuery("!!!"))
}

func TestExtractKeywords(t *testing.T) {
	assert.Equal(t, []string{"fast", "json", "parser"}, ExtractKeywords("a fast JSON parser"))
	assert.Equal(t, []string{"parsing"}, ExtractKeywords("the and for parsing"), "stop words removed")
	assert.Empty(t, ExtractKeywords("a an of"), "short words dropped")
	assert.Nil(t, ExtractKeywords(""))
}

func TestEditRatio(t *testing.T) {
	assert.Equal(t, 1.0, editRatio("json", "json"))
	assert.Equal(t, 0.0, editRatio("abc", "xyz"))
	assert.InDelta(t, 0.923, editRatio("parser", "parsers"), 0.01)
	assert.Greater(t, editRatio("redis", "rediss"), similarityThreshold)
}

func TestTextSimilarityExactBeatsSubstring(t *testing.T) {
	exact, _ := textSimilarity([]string{"json"}, "json tooling")
	substring, _ := textSimilarity([]string{"json"}, "fastjson tooling")
	assert.Equal(t, 1.0, exact)
	assert.Equal(t, 0.8, substring)
	assert.Greater(t, exact, substring)
}

func TestTextSimilarityFuzzyThreshold(t *testing.T) {
	fuzzy, matches := textSimilarity([]string{"parser"}, "parsed input")
	assert.Greater(t, fuzzy, 0.0)
	assert.Equal(t, []string{"parsed"}, matches)

	none, _ := textSimilarity([]string{"kubernetes"}, "cat dog")
	assert.Equal(t, 0.0, none)
}

func TestTextSimilarityNormalizedByKeywordCount(t *testing.T) {
	score, _ := textSimilarity([]string{"json", "zzzqqq"}, "json tooling")
	assert.InDelta(t, 0.5, score, 0.001, "one exact hit of two keywords")
}

func TestExtractSnippetPicksDensestWindow(t *testing.T) {
	text := strings.Repeat("filler words here ", 20) +
		"redis cache layer with redis cluster support" +
		strings.Repeat(" trailing filler", 20)

	snippet := extractSnippet(text, []string{"redis", "cache"})
	assert.Contains(t, snippet, "redis")
	assert.Contains(t, snippet, "cache")
	assert.True(t, strings.HasPrefix(snippet, "..."))
	assert.True(t, strings.HasSuffix(snippet, "..."))
	assert.LessOrEqual(t, len(snippet), snippetLength+6)
}

func TestExtractSnippetShortText(t *testing.T) {
	snippet := extractSnippet("short readme", []string{"readme"})
	assert.Equal(t, "short readme", snippet)
}

func TestExtractSnippetMultiByteText(t *testing.T) {
	text := strings.Repeat("наполнитель текста здесь ", 15) +
		"быстрый парсер для сериализации" +
		strings.Repeat(" ещё наполнитель", 15)

	snippet := extractSnippet(text, []string{"парсер", "сериализации"})
	assert.True(t, utf8.ValidString(snippet), "windows must never split a rune")
	assert.Contains(t, snippet, "парсер")
	assert.LessOrEqual(t, len([]rune(snippet)), snippetLength+6)

	// Keyword-free truncation is also rune-positioned.
	long := strings.Repeat("é", snippetLength+10)
	cut := extractSnippet(long, nil)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, snippetLength+3, len([]rune(cut)))
}

func TestKeywordsNonLatin(t *testing.T) {
	assert.Equal(t, "быстрый парсер", NormalizeQuery("Быстрый парсер!"))
	assert.Equal(t, []string{"быстрый", "парсер", "json"}, ExtractKeywords("быстрый парсер json"))
	assert.NotEmpty(t, ExtractKeywords("日本語の検索ライブラリ"))
}
