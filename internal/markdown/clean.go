// Package markdown reduces README markdown to plain searchable text.
package markdown

import (
	"regexp"
	"strings"
)

var (
	fencedCodeRe = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCodeRe = regexp.MustCompile("`[^`]+`")
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	markupRe     = regexp.MustCompile("[#*_`\\[\\](){}]")
	newlineRe    = regexp.MustCompile(`\n+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Clean strips markdown syntax while keeping the prose: fenced and inline
// code are removed entirely, links collapse to their anchor text, remaining
// markup punctuation is dropped, and whitespace runs collapse to single
// spaces.
func Clean(content string) string {
	content = fencedCodeRe.ReplaceAllString(content, "")
	content = inlineCodeRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = markupRe.ReplaceAllString(content, "")
	content = newlineRe.ReplaceAllString(content, "\n")
	content = whitespaceRe.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}
