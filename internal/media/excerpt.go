package media

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultExcerptLength is the rune budget for list excerpts.
const DefaultExcerptLength = 200

// Excerpt reduces an HTML or plain-text body to at most max runes of text,
// cut on a word boundary when possible.
func Excerpt(body string, max int) string {
	if max <= 0 {
		return ""
	}
	text := body
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		// Text() does not turn block breaks into whitespace.
		doc.Find("br, p, li, h1, h2, h3, h4, h5, h6").AfterHtml(" ")
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:max])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
