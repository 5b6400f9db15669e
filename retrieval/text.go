package retrieval

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/aetheris/core"
)

// containsAnyTerm checks the document title and text for any of the terms,
// case-insensitive substring.
func containsAnyTerm(doc *core.Document, terms []string) bool {
	title := strings.ToLower(doc.Title)
	text := strings.ToLower(doc.Text)
	for _, term := range terms {
		term = strings.ToLower(term)
		if strings.Contains(title, term) || strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// truncate bounds a string to at most max bytes, backing the cut up so a
// multibyte rune is never split.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
