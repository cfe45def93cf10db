package search

import (
	"html"
	"strings"
	"unicode"
)

// stopWords are skipped when checking for verbatim matches. Besides common
// English words this covers HN post prefixes ("Show HN:", "Ask HN:") and the
// markup left in comment bodies.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "i": true, "or": true, "if": true, "so": true,

	"hn": true, "show": true, "ask": true, "tell": true, "launch": true,
	"p": true, "pre": true, "code": true,
}

// tokenizeAndFilter unescapes HTML entities, drops links, splits text into
// lowercase words and removes stop words. '+' and '#' stay inside words so
// "C++" and "C#" survive.
func tokenizeAndFilter(text string) []string {
	fields := strings.Fields(html.UnescapeString(text))
	filtered := make([]string, 0, len(fields))

	for _, field := range fields {
		if isLink(field) {
			continue
		}
		for _, word := range strings.FieldsFunc(strings.ToLower(field), isSeparator) {
			if !stopWords[word] {
				filtered = append(filtered, word)
			}
		}
	}

	return filtered
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
}

// isLink reports whether a whitespace-separated field carries a URL,
// including anchor attributes such as href="https://...".
func isLink(field string) bool {
	field = strings.ToLower(strings.TrimLeft(field, `<("'`))
	return strings.Contains(field, "://") || strings.HasPrefix(field, "www.")
}

// containsAllQueryWords checks if all query words (after filtering) appear in the document
func containsAllQueryWords(document, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := tokenizeAndFilter(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	for _, qWord := range queryWords {
		if !docWordSet[qWord] {
			return false
		}
	}

	return true
}
