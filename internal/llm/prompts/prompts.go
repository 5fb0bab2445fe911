// Package prompts renders the system prompts sent to the language model.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

const (
	maxWordRunes    = 64
	maxContextRunes = 1000
)

var tagRegex = regexp.MustCompile(`(?i)</?\s*(word|context|system-instructions)\b[^>]*>`)

// ErrEmptyWord means there is nothing to define.
var ErrEmptyWord = errors.New("empty word")

//go:embed templates/*.txt
var templateFS embed.FS

var defineTemplate = sync.OnceValues(func() (*template.Template, error) {
	content, err := templateFS.ReadFile("templates/define.txt")
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return template.New("define").Parse(string(content))
})

// DefineData holds template data for definition prompts.
type DefineData struct {
	Word    string
	Context string
}

// BuildDefinePrompt renders the prompt asking for a learner definition of
// word as used in contextSentence. contextSentence may be empty.
func BuildDefinePrompt(word, contextSentence string) (string, error) {
	data := DefineData{
		Word:    sanitize(word, maxWordRunes),
		Context: sanitize(contextSentence, maxContextRunes),
	}
	if data.Word == "" {
		return "", ErrEmptyWord
	}

	tmpl, err := defineTemplate()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sanitize drops tags that could close the prompt's data sections and
// truncates s to limit runes.
func sanitize(s string, limit int) string {
	s = tagRegex.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > limit {
		s = string([]rune(s)[:limit])
	}
	return s
}
