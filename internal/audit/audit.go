// Package audit runs data-quality checks over curriculum modules.
// Findings are reported, never enforced: a module with findings is still
// served.
package audit

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/pavelanni/readingprep/internal/model"
	"github.com/pavelanni/readingprep/internal/richtext"
)

// Severity grades a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Check names.
const (
	CheckAnswerNotInOptions  = "answer-not-in-options"
	CheckAnswerWithoutOpts   = "answer-without-options"
	CheckOptionsWithoutAns   = "options-without-answer"
	CheckDuplicateQuestionID = "duplicate-question-id"
	CheckNoQuestions         = "passage-without-questions"
	CheckEmptyQuestion       = "empty-question-text"
	CheckUnderlineMissing    = "underline-missing"
	CheckUnderlineNotInText  = "underline-not-in-passage"
	CheckWordCountDrift      = "word-count-drift"
	CheckWordRange           = "word-range"
	CheckParagraphs          = "paragraph-count"
	CheckStrayPrefix         = "stray-prefix"
)

// DefaultWordCountTolerance is the allowed relative gap between a
// passage's declared and actual word count.
const DefaultWordCountTolerance = 0.10

// Options tunes the optional checks. Zero values disable a check, except
// WordCountTolerance which falls back to DefaultWordCountTolerance.
type Options struct {
	WordCountTolerance float64
	MinWords           int
	MaxWords           int
	Paragraphs         int
	RequireUnderline   bool
}

// Finding is one problem found in a module.
type Finding struct {
	ModuleID     int      `json:"moduleId"`
	PassageIndex int      `json:"passageIndex"` // 0-based
	QuestionID   string   `json:"questionId,omitempty"`
	Check        string   `json:"check"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
}

func (f Finding) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: week %d", f.Severity, f.ModuleID)
	if f.PassageIndex >= 0 {
		fmt.Fprintf(&b, " passage %d", f.PassageIndex+1)
	}
	if f.QuestionID != "" {
		fmt.Fprintf(&b, " question %s", f.QuestionID)
	}
	fmt.Fprintf(&b, ": %s (%s)", f.Message, f.Check)
	return b.String()
}

// Report collects the findings of one run.
type Report struct {
	Modules  int       `json:"modules"`
	Findings []Finding `json:"findings"`
}

// Errors returns findings with error severity.
func (r Report) Errors() []Finding {
	return r.filter(SeverityError)
}

// Warnings returns findings with warning severity.
func (r Report) Warnings() []Finding {
	return r.filter(SeverityWarning)
}

// OK reports whether the run found no errors. Warnings do not count.
func (r Report) OK() bool {
	return len(r.Errors()) == 0
}

func (r Report) filter(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

// strayPrefix matches question text that starts with a lowercase fragment
// left over from editing, as in "measure Why did the author...".
var strayPrefix = regexp.MustCompile(`^[a-z][a-z-]*\s+(Why|What|How|Which|Who|When|Where|According|In)\b`)

type auditor struct {
	opts     Options
	findings []Finding
}

func (a *auditor) add(f Finding) {
	a.findings = append(a.findings, f)
}

// Run checks every module and returns what it found. It never fails.
func Run(mods []model.Module, opts Options) Report {
	if opts.WordCountTolerance <= 0 {
		opts.WordCountTolerance = DefaultWordCountTolerance
	}
	a := &auditor{opts: opts}
	for _, m := range mods {
		a.module(m)
	}
	return Report{Modules: len(mods), Findings: a.findings}
}

func (a *auditor) module(m model.Module) {
	seen := make(map[string]bool)
	multi := m.Shape() == model.ShapeMulti
	for i, set := range m.Sets() {
		a.passage(m.ID, i, set.Passage)
		if multi && len(set.Questions) == 0 {
			a.add(Finding{
				ModuleID: m.ID, PassageIndex: i, Check: CheckNoQuestions, Severity: SeverityError,
				Message: fmt.Sprintf("passage %q has no questions", set.Passage.Title),
			})
		}
		for _, q := range set.Questions {
			if seen[q.ID] {
				a.add(Finding{
					ModuleID: m.ID, PassageIndex: i, QuestionID: q.ID,
					Check: CheckDuplicateQuestionID, Severity: SeverityError,
					Message: "question id is used more than once in this module",
				})
			}
			seen[q.ID] = true
			a.question(m.ID, i, q)
		}
	}
}

func (a *auditor) passage(id, idx int, p model.Passage) {
	at := func(check string, sev Severity, format string, args ...any) {
		a.add(Finding{ModuleID: id, PassageIndex: idx, Check: check, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	words := richtext.WordCount(p.Content)
	if p.WordCount > 0 || words > 0 {
		gap := math.Abs(float64(words - p.WordCount))
		if gap > a.opts.WordCountTolerance*float64(max(words, 1)) {
			at(CheckWordCountDrift, SeverityWarning, "declared %d words, counted %d", p.WordCount, words)
		}
	}
	if a.opts.MinWords > 0 && words < a.opts.MinWords {
		at(CheckWordRange, SeverityWarning, "%d words, want at least %d", words, a.opts.MinWords)
	}
	if a.opts.MaxWords > 0 && words > a.opts.MaxWords {
		at(CheckWordRange, SeverityWarning, "%d words, want at most %d", words, a.opts.MaxWords)
	}
	if a.opts.Paragraphs > 0 {
		if n := richtext.ParagraphCount(p.Content); n != a.opts.Paragraphs {
			at(CheckParagraphs, SeverityWarning, "%d paragraphs, want %d", n, a.opts.Paragraphs)
		}
	}

	switch {
	case strings.TrimSpace(p.UnderlinedSentence) == "":
		if a.opts.RequireUnderline {
			at(CheckUnderlineMissing, SeverityWarning, "passage %q has no underlined sentence", p.Title)
		}
	case !richtext.ContainsSentence(p.Content, p.UnderlinedSentence):
		at(CheckUnderlineNotInText, SeverityError, "underlined sentence %q does not occur in the passage", p.UnderlinedSentence)
	}
}

func (a *auditor) question(id, idx int, q model.Question) {
	at := func(check string, sev Severity, format string, args ...any) {
		a.add(Finding{ModuleID: id, PassageIndex: idx, QuestionID: q.ID, Check: check, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	text := strings.TrimSpace(q.Text)
	if text == "" {
		at(CheckEmptyQuestion, SeverityError, "question text is empty")
	} else if strayPrefix.MatchString(text) {
		at(CheckStrayPrefix, SeverityWarning, "question text starts with a stray word: %q", text)
	}

	switch {
	case q.MultipleChoice() && q.CorrectAnswer != "":
		if !slices.Contains(q.Options, q.CorrectAnswer) {
			at(CheckAnswerNotInOptions, SeverityError, "correct answer %q is not one of the options", q.CorrectAnswer)
		}
	case q.CorrectAnswer != "":
		at(CheckAnswerWithoutOpts, SeverityWarning, "correct answer %q given without options", q.CorrectAnswer)
	case q.MultipleChoice():
		at(CheckOptionsWithoutAns, SeverityWarning, "%d options but no correct answer", len(q.Options))
	}
}
