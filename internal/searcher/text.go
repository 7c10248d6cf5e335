package searcher

import (
	"regexp"
	"strings"
	"unicode"
)

// Word characters are matched by Unicode class, not \w: Go's \w is
// ASCII-only and would reduce non-Latin queries to zero keywords.
var (
	specialCharsRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	wordRe         = regexp.MustCompile(`[\p{L}\p{N}_]{3,}`)
)

// stopWords are excluded from keyword extraction.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "her": {}, "was": {},
	"one": {}, "our": {}, "out": {}, "day": {}, "get": {}, "has": {},
	"him": {}, "his": {}, "how": {}, "its": {}, "may": {}, "new": {},
	"now": {}, "old": {}, "see": {}, "two": {}, "way": {}, "who": {},
	"boy": {}, "did": {}, "she": {}, "use": {}, "many": {}, "some": {},
	"time": {}, "very": {}, "when": {}, "much": {}, "then": {},
	"them": {}, "well": {}, "were": {},
}

// NormalizeQuery lowercases the query, replaces special characters with
// spaces and collapses runs of whitespace.
func NormalizeQuery(query string) string {
	normalized := specialCharsRe.ReplaceAllString(strings.ToLower(query), " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(normalized, " "))
}

// ExtractKeywords returns the words of at least three characters in text,
// lowercased, with stop words removed.
func ExtractKeywords(text string) []string {
	if text == "" {
		return nil
	}
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}

// similarityThreshold is the minimum edit-similarity ratio that counts as a
// fuzzy match.
const similarityThreshold = 0.6

// textSimilarity scores how well the query keywords match text. Each keyword
// contributes its best per-word score: 1.0 for an exact word match, 0.8 for a
// substring match in either direction, otherwise the edit-similarity ratio
// when it clears the threshold. The total is normalized by the keyword count.
func textSimilarity(keywords []string, text string) (float64, []string) {
	if text == "" || len(keywords) == 0 {
		return 0, nil
	}
	textWords := ExtractKeywords(text)
	if len(textWords) == 0 {
		return 0, nil
	}

	var matches []string
	total := 0.0

	for _, keyword := range keywords {
		best := 0.0
		bestWord := ""

		for _, word := range textWords {
			var score float64
			switch {
			case keyword == word:
				score = 1.0
			case strings.Contains(word, keyword) || strings.Contains(keyword, word):
				score = 0.8
			default:
				score = editRatio(keyword, word)
				if score < similarityThreshold {
					score = 0
				}
			}
			if score > best {
				best = score
				bestWord = word
			}
		}

		if best > 0 {
			total += best
			matches = append(matches, bestWord)
		}
	}

	return total / float64(len(keywords)), matches
}

// editRatio is the Ratcliff/Obershelp similarity of a and b: twice the number
// of matching characters over the combined length, where matches are counted
// by recursively taking the longest common substring.
func editRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matched := matchingChars(a, b)
	return 2 * float64(matched) / float64(len(a)+len(b))
}

func matchingChars(a, b string) int {
	aStart, bStart, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingChars(a[:aStart], b[:bStart])
	total += matchingChars(a[aStart+size:], b[bStart+size:])
	return total
}

func longestCommonSubstring(a, b string) (aStart, bStart, size int) {
	// lengths[j] tracks the common suffix length ending at b[j-1] for the
	// current a position
	lengths := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		for j := len(b); j >= 1; j-- {
			if a[i] == b[j-1] {
				lengths[j] = lengths[j-1] + 1
				if lengths[j] > size {
					size = lengths[j]
					aStart = i - size + 1
					bStart = j - size
				}
			} else {
				lengths[j] = 0
			}
		}
	}
	return aStart, bStart, size
}

// snippetLength is the window size for extracted snippets, snippetStep the
// scan stride.
const (
	snippetLength = 200
	snippetStep   = 50
)

// extractSnippet returns the snippetLength-rune window of text that contains
// the most distinct query keywords, with ellipses marking truncated edges.
// Positions are rune offsets so multi-byte text never gets sliced mid-rune.
func extractSnippet(text string, keywords []string) string {
	runes := []rune(text)

	if text == "" || len(keywords) == 0 {
		if len(runes) > snippetLength {
			return string(runes[:snippetLength]) + "..."
		}
		return text
	}

	lower := make([]rune, len(runes))
	for i, r := range runes {
		lower[i] = unicode.ToLower(r)
	}

	bestPos := 0
	bestScore := 0

	for i := 0; i < len(runes); i += snippetStep {
		end := i + snippetLength
		if end > len(lower) {
			end = len(lower)
		}
		window := string(lower[i:end])

		score := 0
		for _, keyword := range keywords {
			if strings.Contains(window, keyword) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestPos = i
		}
	}

	end := bestPos + snippetLength
	if end > len(runes) {
		end = len(runes)
	}
	snippet := string(runes[bestPos:end])
	if bestPos > 0 {
		snippet = "..." + snippet
	}
	if bestPos+snippetLength < len(runes) {
		snippet = snippet + "..."
	}
	return snippet
}
