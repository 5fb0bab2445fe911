package store

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pavelanni/readingprep/internal/curriculum"
	"github.com/pavelanni/readingprep/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testModule(id int, theme model.Theme, vocab ...model.VocabEntry) model.Module {
	return model.Module{
		ID:    id,
		Title: "Week",
		Theme: theme,
		Body: model.MultiPassage{Passages: []model.PassageSet{{
			Passage: model.Passage{Title: "P", Content: "<p>Text.</p>", WordCount: 1},
			Questions: []model.Question{{
				ID: "q1", Type: model.QuestionDetail, Text: "What?",
				Options: []string{"a", "b"}, CorrectAnswer: "a",
			}},
		}}},
		Vocabulary: vocab,
	}
}

func testCatalog(t *testing.T, title string) *curriculum.Catalog {
	t.Helper()
	one := testModule(1, model.ThemeEthics,
		model.VocabEntry{Word: "Liability", Definition: "Legal responsibility."},
		model.VocabEntry{Word: "Bias", Definition: "An unfair preference."})
	one.Title = title
	two := model.Module{
		ID: 2, Title: "Legacy", Theme: model.ThemeMedia,
		Body: model.SinglePassage{
			Passage:   model.Passage{Title: "Old", Content: "<p>Old.</p>", WordCount: 1},
			Questions: []model.Question{{ID: "q_w2_1", Type: model.QuestionParaphrase, Text: "Explain."}},
		},
		Vocabulary: []model.VocabEntry{{Word: "Echo chamber", Definition: "A space where beliefs are repeated."}},
	}
	c, err := curriculum.FromModules([]model.Module{one, two}, 2)
	if err != nil {
		t.Fatalf("FromModules: %v", err)
	}
	return c
}

func TestEmptyStore(t *testing.T) {
	s := newTestStore(t)

	mods, err := s.Modules()
	if err != nil {
		t.Fatalf("Modules: %v", err)
	}
	if len(mods) != 0 {
		t.Errorf("len(Modules()) = %d, want 0", len(mods))
	}

	info, err := s.GetSnapshotInfo()
	if err != nil {
		t.Fatalf("GetSnapshotInfo: %v", err)
	}
	if info != (SnapshotInfo{}) {
		t.Errorf("GetSnapshotInfo() = %+v, want zero", info)
	}

	if _, err := s.Catalog(2); !errors.Is(err, curriculum.ErrMissingModule) {
		t.Errorf("Catalog on empty store = %v, want ErrMissingModule", err)
	}
}

func TestPublishAndReadBack(t *testing.T) {
	s := newTestStore(t)
	cat := testCatalog(t, "Ethics")

	published, err := s.Publish(cat, "embedded")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !published {
		t.Fatal("Publish() = false on empty store, want true")
	}

	mods, err := s.Modules()
	if err != nil {
		t.Fatalf("Modules: %v", err)
	}
	if diff := cmp.Diff(cat.All(), mods); diff != "" {
		t.Errorf("snapshot differs from catalog (-want +got):\n%s", diff)
	}

	back, err := s.Catalog(2)
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if back.Fingerprint() != cat.Fingerprint() {
		t.Errorf("read-back fingerprint = %s, want %s", back.Fingerprint(), cat.Fingerprint())
	}

	info, err := s.GetSnapshotInfo()
	if err != nil {
		t.Fatalf("GetSnapshotInfo: %v", err)
	}
	if info.Fingerprint != cat.Fingerprint() {
		t.Errorf("Fingerprint = %q, want %q", info.Fingerprint, cat.Fingerprint())
	}
	if info.Modules != 2 {
		t.Errorf("Modules = %d, want 2", info.Modules)
	}
	if info.Source != "embedded" {
		t.Errorf("Source = %q, want embedded", info.Source)
	}
	if info.PublishedAt.IsZero() {
		t.Error("PublishedAt not set")
	}
}

func TestPublishIsHashGuarded(t *testing.T) {
	s := newTestStore(t)
	cat := testCatalog(t, "Ethics")

	if _, err := s.Publish(cat, "embedded"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	published, err := s.Publish(cat, "embedded")
	if err != nil {
		t.Fatalf("Publish again: %v", err)
	}
	if published {
		t.Error("second Publish of the same catalog = true, want false")
	}

	changed := testCatalog(t, "Ethics, revised")
	published, err = s.Publish(changed, "embedded")
	if err != nil {
		t.Fatalf("Publish changed: %v", err)
	}
	if !published {
		t.Fatal("Publish of changed catalog = false, want true")
	}

	if mods, _ := s.Modules(); len(mods) != 2 {
		t.Errorf("len(Modules()) after republish = %d, want 2", len(mods))
	}
	m, ok := mustCatalog(t, s).Get(1)
	if !ok || m.Title != "Ethics, revised" {
		t.Errorf("module 1 title = %q, want %q", m.Title, "Ethics, revised")
	}
	all, _ := s.SearchVocabulary("")
	if len(all) != 3 {
		t.Errorf("vocabulary rows after republish = %d, want 3", len(all))
	}
}

func mustCatalog(t *testing.T, s *Store) *curriculum.Catalog {
	t.Helper()
	c, err := s.Catalog(2)
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	return c
}

func TestSearchVocabulary(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Publish(testCatalog(t, "Ethics"), "embedded"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	tests := []struct {
		q    string
		want []string
	}{
		{"", []string{"Liability", "Bias", "Echo chamber"}},
		{"bias", []string{"Bias"}},
		{"LEGAL", []string{"Liability"}},
		{"repeated", []string{"Echo chamber"}},
		{"  bias ", []string{"Bias"}},
		{"week 2", []string{"Echo chamber"}},
		{"%", []string{}},
		{"_", []string{}},
		{`\`, []string{}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			got, err := s.SearchVocabulary(tt.q)
			if err != nil {
				t.Fatalf("SearchVocabulary: %v", err)
			}
			words := []string{}
			for _, v := range got {
				words = append(words, v.Word)
			}
			if diff := cmp.Diff(tt.want, words); diff != "" {
				t.Errorf("SearchVocabulary(%q) (-want +got):\n%s", tt.q, diff)
			}
		})
	}

	got, _ := s.SearchVocabulary("echo")
	if len(got) != 1 || got[0].Week != 2 {
		t.Errorf("SearchVocabulary(echo) = %+v, want week 2", got)
	}

	// Wildcard characters match literally, as in the in-memory search.
	cat := testCatalog(t, "Ethics")
	for _, q := range []string{"%", "_", "bias", "week 1"} {
		got, err := s.SearchVocabulary(q)
		if err != nil {
			t.Fatalf("SearchVocabulary(%q): %v", q, err)
		}
		if diff := cmp.Diff(cat.Vocabulary(q), got); diff != "" {
			t.Errorf("SearchVocabulary(%q) differs from Catalog.Vocabulary (-catalog +store):\n%s", q, diff)
		}
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	// Missing key returns empty string.
	v, err := s.GetMetadata("source")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "" {
		t.Errorf("expected empty value, got %q", v)
	}

	if err := setMetadata(s.db, "source", "embedded"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if v, _ = s.GetMetadata("source"); v != "embedded" {
		t.Errorf("expected 'embedded', got %q", v)
	}

	// Update existing.
	if err := setMetadata(s.db, "source", "/srv/weeks"); err != nil {
		t.Fatalf("SetMetadata update: %v", err)
	}
	if v, _ = s.GetMetadata("source"); v != "/srv/weeks" {
		t.Errorf("expected '/srv/weeks', got %q", v)
	}
}
