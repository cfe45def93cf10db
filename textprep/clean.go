package textprep

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

// Pre-compiled regular expressions for comment markup.
var (
	paragraphTags = regexp.MustCompile(`(?i)<p\s*/?>|</p>`)
	brTags        = regexp.MustCompile(`(?i)<br\s*/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	whitespace    = regexp.MustCompile(`\s+`)
)

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"′", "'", "″", `"`,
	"–", "-", "—", "-",
	"…", "...",
)

// StripMarkup turns a comment's HTML fragment into plain text.
// Paragraph and line breaks become spaces and entities are decoded.
func StripMarkup(fragment string) string {
	s := paragraphTags.ReplaceAllString(fragment, " ")
	s = brTags.ReplaceAllString(s, " ")
	s = allTags.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}

// Clean normalizes text before chunking: typographic quotes become ASCII,
// non-ASCII characters are dropped and whitespace runs collapse to one space.
func Clean(s string) string {
	s = quoteReplacer.Replace(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
