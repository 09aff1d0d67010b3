// Package normalize turns raw bank statement descriptions into stable
// patterns suitable for exact matching and keyword extraction.
package normalize

import (
	"regexp"
	"strings"
)

var (
	specialChars = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespace   = regexp.MustCompile(`\s+`)
	amounts      = regexp.MustCompile(`\b(r|zar)?\s*\d+([.,]\d+)?\b`)
	dates        = regexp.MustCompile(`\b\d{4}[-/]\d{2}[-/]\d{2}\b`)
	longNumbers  = regexp.MustCompile(`\b\d{6,}\b`)
)

// stopWords are filtered out of extracted keywords.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "from": {}, "with": {},
	"ref": {}, "reference": {}, "payment": {}, "debit": {}, "order": {},
}

// Description lowercases the input, strips punctuation, currency amounts,
// dates and long reference numbers, and collapses whitespace. The result is
// stable: normalizing an already normalized string returns it unchanged.
func Description(desc string) string {
	s := strings.ToLower(desc)
	s = specialChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	s = amounts.ReplaceAllString(s, "")
	s = dates.ReplaceAllString(s, "")
	s = longNumbers.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Keywords extracts the matching tokens from a description: normalized words
// longer than two characters that are not stop words.
func Keywords(desc string) []string {
	normalized := Description(desc)
	if normalized == "" {
		return nil
	}

	var keywords []string
	for _, word := range strings.Split(normalized, " ") {
		if len(word) <= 2 {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}
