package sources

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stripMarkup removes HTML markup from feed-provided text, leaving plain
// text with collapsed whitespace.
func stripMarkup(s string) string {
	if s == "" {
		return ""
	}

	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// truncate caps s at max runes without splitting multi-byte characters.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
