package model

import "strings"

// Theme classifies a module's subject domain.
type Theme string

const (
	ThemeEthics    Theme = "Ethics"
	ThemeMedia     Theme = "Media"
	ThemeGlobal    Theme = "Global"
	ThemeEducation Theme = "Education"
	ThemeEconomics Theme = "Economics"
	ThemeSociety   Theme = "Society"
	ThemeHistory   Theme = "History"
)

// Themes lists every theme in display order.
var Themes = []Theme{
	ThemeEthics,
	ThemeMedia,
	ThemeGlobal,
	ThemeEducation,
	ThemeEconomics,
	ThemeSociety,
	ThemeHistory,
}

// Valid reports whether t belongs to the closed theme set.
func (t Theme) Valid() bool {
	for _, known := range Themes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTheme resolves a theme name, ignoring case.
func ParseTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if strings.EqualFold(string(t), name) {
			return t, true
		}
	}
	return "", false
}

// QuestionType tags what skill a question exercises.
type QuestionType string

const (
	QuestionInference  QuestionType = "inference"
	QuestionDetail     QuestionType = "detail"
	QuestionVocab      QuestionType = "vocab"
	QuestionParaphrase QuestionType = "paraphrase"
)

// Valid reports whether q is one of the known question types.
func (q QuestionType) Valid() bool {
	switch q {
	case QuestionInference, QuestionDetail, QuestionVocab, QuestionParaphrase:
		return true
	}
	return false
}

// Passage is a single reading text.
type Passage struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"` // HTML, paragraphs in <p>
	// WordCount is informational and is not kept in sync with Content.
	WordCount int `json:"wordCount" yaml:"wordCount"`
	// UnderlinedSentence is the snippet used by paraphrase questions.
	UnderlinedSentence string `json:"underlinedSentence,omitempty" yaml:"underlinedSentence,omitempty"`
}

// Question is one comprehension item tied to a passage.
// Options and CorrectAnswer are empty for short-answer questions.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Type          QuestionType `json:"type" yaml:"type"`
	Text          string       `json:"text" yaml:"text"`
	Options       []string     `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty" yaml:"correctAnswer,omitempty"`
	Hint          string       `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// MultipleChoice reports whether the question carries answer options.
func (q Question) MultipleChoice() bool {
	return len(q.Options) > 0
}

// PassageSet pairs a passage with the questions asked about it.
type PassageSet struct {
	Passage   Passage    `json:"passage" yaml:"passage"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// VocabEntry is a curated word with its learner-facing definition.
type VocabEntry struct {
	Word       string `json:"word" yaml:"word"`
	Definition string `json:"definition" yaml:"definition"`
}

// Body is the reading content of a module. It is either a SinglePassage
// or a MultiPassage; no other implementations exist.
type Body interface {
	// Sets returns the passages in reading order.
	Sets() []PassageSet
	isBody()
}

// SinglePassage is the legacy shape: one passage and a flat question list.
type SinglePassage struct {
	Passage   Passage
	Questions []Question
}

func (b SinglePassage) Sets() []PassageSet {
	return []PassageSet{{Passage: b.Passage, Questions: b.Questions}}
}

func (SinglePassage) isBody() {}

// MultiPassage is the current shape: an ordered list of passages, each
// with its own questions.
type MultiPassage struct {
	Passages []PassageSet
}

func (b MultiPassage) Sets() []PassageSet {
	return b.Passages
}

func (MultiPassage) isBody() {}

// Shape names for Module.Shape.
const (
	ShapeSingle = "single"
	ShapeMulti  = "multi"
)

// Module is one week of curriculum content.
type Module struct {
	ID           int
	Title        string
	Theme        Theme
	MainIdeaHint string
	Body         Body
	Vocabulary   []VocabEntry
}

// Shape returns ShapeSingle or ShapeMulti, or "" when the module has no body.
func (m Module) Shape() string {
	switch m.Body.(type) {
	case SinglePassage:
		return ShapeSingle
	case MultiPassage:
		return ShapeMulti
	}
	return ""
}

// Sets returns the module's passages in reading order.
func (m Module) Sets() []PassageSet {
	if m.Body == nil {
		return nil
	}
	return m.Body.Sets()
}

// Questions returns every question of the module in reading order.
func (m Module) Questions() []Question {
	var out []Question
	for _, s := range m.Sets() {
		out = append(out, s.Questions...)
	}
	return out
}

// Question looks up a question by ID.
func (m Module) Question(id string) (Question, bool) {
	for _, q := range m.Questions() {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Definition returns the curated definition of word, matched case-insensitively.
func (m Module) Definition(word string) (VocabEntry, bool) {
	for _, v := range m.Vocabulary {
		if strings.EqualFold(v.Word, word) {
			return v, true
		}
	}
	return VocabEntry{}, false
}
