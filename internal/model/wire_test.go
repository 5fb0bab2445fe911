package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
)

func sampleMulti() Module {
	return Module{
		ID:           7,
		Title:        "Water Scarcity 2050",
		Theme:        ThemeGlobal,
		MainIdeaHint: "Look for who controls the river.",
		Body: MultiPassage{Passages: []PassageSet{{
			Passage: Passage{
				Title:              "Rivers Without Borders",
				Content:            "<p>Rivers ignore maps. <u>Treaties rarely do.</u></p>",
				WordCount:          5,
				UnderlinedSentence: "Treaties rarely do.",
			},
			Questions: []Question{
				{
					ID:            "q_w7_p1_1",
					Type:          QuestionDetail,
					Text:          "What do rivers ignore?",
					Options:       []string{"Maps", "Rain", "Dams", "Fish"},
					CorrectAnswer: "Maps",
				},
				{ID: "q_w7_p1_2", Type: QuestionParaphrase, Text: "Restate the underlined sentence.", Hint: "Keep it short."},
			},
		}}},
		Vocabulary: []VocabEntry{{Word: "Aquifer", Definition: "An underground layer of water-bearing rock."}},
	}
}

func sampleSingle() Module {
	return Module{
		ID:    22,
		Title: "Streaming vs. Cinema",
		Theme: ThemeMedia,
		Body: SinglePassage{
			Passage:   Passage{Title: "The Empty Theatre", Content: "<p>Seats stay empty.</p>", WordCount: 3},
			Questions: []Question{{ID: "q_w22_1", Type: QuestionInference, Text: "Why?"}},
		},
	}
}

func TestModuleJSONRoundTrip(t *testing.T) {
	for _, want := range []Module{sampleMulti(), sampleSingle()} {
		data, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("Marshal(%d): %v", want.ID, err)
		}
		var got Module
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%d): %v", want.ID, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("round trip of module %d mismatch (-want +got):\n%s", want.ID, diff)
		}
	}
}

func TestModuleRoundTripEmptyLists(t *testing.T) {
	want := Module{
		ID: 23, Title: "Quiet Week", Theme: ThemeSociety,
		Body:       SinglePassage{Passage: Passage{Title: "Silence", Content: "<p>Nothing.</p>", WordCount: 1}, Questions: []Question{}},
		Vocabulary: []VocabEntry{},
	}

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Module
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("json round trip mismatch (-want +got):\n%s", diff)
	}

	data, err = yaml.Marshal(want)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	got = Module{}
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("yaml round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestModuleJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(sampleSingle())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	for _, key := range []string{"id", "title", "theme", "passage", "questions"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
	if _, ok := raw["passages"]; ok {
		t.Errorf("single passage module should not emit passages: %s", data)
	}
}

func TestModuleYAMLRoundTrip(t *testing.T) {
	want := sampleMulti()
	data, err := yaml.Marshal(want)
	if err != nil {
		t.Fatalf("yaml.Marshal: %v", err)
	}
	var got Module
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("yaml round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestModuleUnmarshalRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
	}{
		{
			name:    "neither",
			doc:     `{"id":1,"title":"T","theme":"Ethics"}`,
			wantErr: ErrNoBody,
		},
		{
			name: "both",
			doc: `{"id":1,"title":"T","theme":"Ethics",
				"passage":{"title":"a","content":"b","wordCount":1},
				"passages":[{"passage":{"title":"a","content":"b","wordCount":1},"questions":[]}]}`,
			wantErr: ErrAmbiguousBody,
		},
		{
			name: "flat questions with passages",
			doc: `{"id":1,"title":"T","theme":"Ethics",
				"questions":[{"id":"q1","type":"detail","text":"?"}],
				"passages":[{"passage":{"title":"a","content":"b","wordCount":1},"questions":[]}]}`,
			wantErr: ErrAmbiguousBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Module
			err := json.Unmarshal([]byte(tt.doc), &m)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Unmarshal error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestModuleMarshalWithoutBody(t *testing.T) {
	_, err := json.Marshal(Module{ID: 3, Title: "x", Theme: ThemeEthics})
	if !errors.Is(err, ErrNoBody) {
		t.Errorf("Marshal error = %v, want ErrNoBody", err)
	}
}

func TestModuleAccessors(t *testing.T) {
	m := sampleMulti()
	if m.Shape() != ShapeMulti {
		t.Errorf("Shape() = %q, want %q", m.Shape(), ShapeMulti)
	}
	if got := len(m.Questions()); got != 2 {
		t.Errorf("len(Questions()) = %d, want 2", got)
	}
	q, ok := m.Question("q_w7_p1_1")
	if !ok {
		t.Fatal("Question(q_w7_p1_1) not found")
	}
	if !q.MultipleChoice() || q.CorrectAnswer != "Maps" {
		t.Errorf("unexpected question %+v", q)
	}
	short, _ := m.Question("q_w7_p1_2")
	if short.MultipleChoice() {
		t.Errorf("short-answer question should have no options")
	}
	if _, ok := m.Definition("aquifer"); !ok {
		t.Error("Definition(aquifer) should match case-insensitively")
	}
	if sampleSingle().Shape() != ShapeSingle {
		t.Errorf("single passage module reported shape %q", sampleSingle().Shape())
	}
}

func TestThemeAndQuestionTypeValid(t *testing.T) {
	if !ThemeHistory.Valid() || Theme("Sports").Valid() {
		t.Error("Theme.Valid() does not match the closed set")
	}
	for _, name := range []string{"History", "history", "GLOBAL"} {
		if _, ok := ParseTheme(name); !ok {
			t.Errorf("ParseTheme(%q) failed", name)
		}
	}
	if th, _ := ParseTheme("global"); th != ThemeGlobal {
		t.Errorf("ParseTheme(global) = %q, want %q", th, ThemeGlobal)
	}
	if _, ok := ParseTheme("Sports"); ok {
		t.Error("ParseTheme(Sports) succeeded")
	}
	if !QuestionParaphrase.Valid() || QuestionType("essay").Valid() {
		t.Error("QuestionType.Valid() does not match the closed set")
	}
}
