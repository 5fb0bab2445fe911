package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoBody means a module document has neither passage nor passages.
	ErrNoBody = errors.New("module has neither passage nor passages")
	// ErrAmbiguousBody means a module document populates both shapes.
	ErrAmbiguousBody = errors.New("module has both a single passage and passages")
	// ErrNoQuestions means a passage of a multi-passage module has no questions.
	ErrNoQuestions = errors.New("passage has no questions")
)

// moduleDoc is the on-the-wire module shape shared by JSON and YAML.
// Empty lists are omitted, so a nil and an empty list decode the same way.
type moduleDoc struct {
	ID           int          `json:"id" yaml:"id"`
	Title        string       `json:"title" yaml:"title"`
	Theme        Theme        `json:"theme" yaml:"theme"`
	MainIdeaHint string       `json:"mainIdeaHint,omitempty" yaml:"mainIdeaHint,omitempty"`
	Passage      *Passage     `json:"passage,omitempty" yaml:"passage,omitempty"`
	Questions    []Question   `json:"questions,omitempty" yaml:"questions,omitempty"`
	Passages     []PassageSet `json:"passages,omitempty" yaml:"passages,omitempty"`
	Vocabulary   []VocabEntry `json:"vocabulary,omitempty" yaml:"vocabulary,omitempty"`
}

func (m Module) doc() (moduleDoc, error) {
	d := moduleDoc{
		ID:           m.ID,
		Title:        m.Title,
		Theme:        m.Theme,
		MainIdeaHint: m.MainIdeaHint,
		Vocabulary:   m.Vocabulary,
	}
	switch b := m.Body.(type) {
	case SinglePassage:
		p := b.Passage
		d.Passage = &p
		d.Questions = b.Questions
	case MultiPassage:
		d.Passages = b.Passages
	default:
		return moduleDoc{}, fmt.Errorf("module %d: %w", m.ID, ErrNoBody)
	}
	return d, nil
}

func (d moduleDoc) module() (Module, error) {
	m := Module{
		ID:           d.ID,
		Title:        d.Title,
		Theme:        d.Theme,
		MainIdeaHint: d.MainIdeaHint,
		Vocabulary:   d.Vocabulary,
	}
	switch {
	case d.Passage != nil && (len(d.Passages) > 0):
		return Module{}, fmt.Errorf("module %d: %w", d.ID, ErrAmbiguousBody)
	case d.Passage != nil:
		m.Body = SinglePassage{Passage: *d.Passage, Questions: d.Questions}
	case len(d.Passages) > 0:
		if len(d.Questions) > 0 {
			return Module{}, fmt.Errorf("module %d: flat questions next to passages: %w", d.ID, ErrAmbiguousBody)
		}
		m.Body = MultiPassage{Passages: d.Passages}
	default:
		return Module{}, fmt.Errorf("module %d: %w", d.ID, ErrNoBody)
	}
	return m, nil
}

// MarshalJSON encodes the module in the front-end's field layout.
func (m Module) MarshalJSON() ([]byte, error) {
	d, err := m.doc()
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// UnmarshalJSON decodes a module and rejects documents that populate
// both content shapes or neither.
func (m *Module) UnmarshalJSON(data []byte) error {
	var d moduleDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	mod, err := d.module()
	if err != nil {
		return err
	}
	*m = mod
	return nil
}

// MarshalYAML encodes the module with the same field layout as JSON.
func (m Module) MarshalYAML() (any, error) {
	return m.doc()
}

// UnmarshalYAML decodes a YAML authored module.
func (m *Module) UnmarshalYAML(node *yaml.Node) error {
	var d moduleDoc
	if err := node.Decode(&d); err != nil {
		return err
	}
	mod, err := d.module()
	if err != nil {
		return err
	}
	*m = mod
	return nil
}
