// Package richtext handles the small HTML subset used in passage bodies.
package richtext

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	contentPolicy = newContentPolicy()
	textPolicy    = bluemonday.StrictPolicy()

	sentenceEnd = regexp.MustCompile(`[.!?]["')\]]*\s+`)
)

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("u", "mark")
	return p
}

// Sanitize strips anything from a passage body that is unsafe to hand to a
// browser, keeping paragraphs, emphasis and underlines.
func Sanitize(content string) string {
	return contentPolicy.Sanitize(content)
}

// PlainText removes all markup and collapses whitespace.
func PlainText(content string) string {
	// Keep paragraph boundaries from gluing words together.
	content = strings.ReplaceAll(content, "</p>", "</p> ")
	content = strings.ReplaceAll(content, "<br>", " ")
	text := html.UnescapeString(textPolicy.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

// WordCount counts whitespace separated words in the plain text of content.
func WordCount(content string) int {
	return len(strings.Fields(PlainText(content)))
}

// ParagraphCount counts <p> elements.
func ParagraphCount(content string) int {
	lower := strings.ToLower(content)
	return strings.Count(lower, "<p>") + strings.Count(lower, "<p ")
}

// ContainsSentence reports whether sentence appears in the plain text of
// content, ignoring markup and whitespace differences.
func ContainsSentence(content, sentence string) bool {
	needle := PlainText(sentence)
	if needle == "" {
		return false
	}
	return strings.Contains(PlainText(content), needle)
}

// SentenceContaining returns the first sentence of content that contains
// word, ignoring case, or "" if none does.
func SentenceContaining(content, word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return ""
	}
	for _, s := range sentences(PlainText(content)) {
		if strings.Contains(strings.ToLower(s), w) {
			return s
		}
	}
	return ""
}

func sentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		out = append(out, strings.TrimSpace(text[start:loc[1]]))
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
