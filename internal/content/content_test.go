package content

import (
	"encoding/json"
	"errors"
	"io/fs"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pavelanni/readingprep/internal/audit"
	"github.com/pavelanni/readingprep/internal/curriculum"
	"github.com/pavelanni/readingprep/internal/model"
	"gopkg.in/yaml.v3"
)

func load(t *testing.T) *curriculum.Catalog {
	t.Helper()
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return c
}

func TestLoadCount(t *testing.T) {
	c := load(t)
	if c.Len() != TargetCount {
		t.Errorf("Len() = %d, want %d", c.Len(), TargetCount)
	}
	if len(c.All()) != TargetCount {
		t.Errorf("len(All()) = %d, want %d", len(c.All()), TargetCount)
	}
}

func TestFirstWeek(t *testing.T) {
	c := load(t)
	m, ok := c.Get(1)
	if !ok {
		t.Fatal("Get(1) not found")
	}
	if m.Theme != model.ThemeEthics {
		t.Errorf("week 1 theme = %q, want Ethics", m.Theme)
	}
	sets := m.Sets()
	if len(sets) == 0 {
		t.Fatal("week 1 has no passages")
	}
	if sets[0].Passage.Title != "The Anatomy of Error" {
		t.Errorf("week 1 first passage = %q, want %q", sets[0].Passage.Title, "The Anatomy of Error")
	}
}

func TestUnknownWeek(t *testing.T) {
	c := load(t)
	if _, ok := c.Get(9999); ok {
		t.Error("Get(9999) found a module, want absent")
	}
}

func TestCorrectAnswerInOptions(t *testing.T) {
	c := load(t)
	m, _ := c.Get(1)
	q, ok := m.Question("q_w1_p1_2")
	if !ok {
		t.Fatal("question q_w1_p1_2 not found")
	}
	if !slices.Contains(q.Options, q.CorrectAnswer) {
		t.Errorf("correctAnswer %q not in options %v", q.CorrectAnswer, q.Options)
	}
}

func TestOrderedUniqueIDs(t *testing.T) {
	c := load(t)
	for i, m := range c.All() {
		if m.ID != i+1 {
			t.Fatalf("All()[%d].ID = %d, want %d", i, m.ID, i+1)
		}
		seen := make(map[string]bool)
		for _, q := range m.Questions() {
			if seen[q.ID] {
				t.Errorf("week %d: duplicate question id %q", m.ID, q.ID)
			}
			seen[q.ID] = true
		}
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	a := load(t)
	b := load(t)
	if a != b {
		t.Error("Load returned different catalogs")
	}
	if diff := cmp.Diff(a.All(), b.All()); diff != "" {
		t.Errorf("All() differs between calls (-first +second):\n%s", diff)
	}

	rebuilt, err := curriculum.Build(FS(), TargetCount)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rebuilt.Fingerprint() != a.Fingerprint() {
		t.Error("rebuilding the embedded catalog changed its fingerprint")
	}
}

func TestEveryWeekRoundTrips(t *testing.T) {
	for _, want := range load(t).All() {
		data, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("week %d: Marshal: %v", want.ID, err)
		}
		var got model.Module
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("week %d: Unmarshal: %v", want.ID, err)
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("week %d json round trip (-want +got):\n%s", want.ID, diff)
		}

		data, err = yaml.Marshal(want)
		if err != nil {
			t.Fatalf("week %d: yaml.Marshal: %v", want.ID, err)
		}
		var fromYAML model.Module
		if err := yaml.Unmarshal(data, &fromYAML); err != nil {
			t.Fatalf("week %d: yaml.Unmarshal: %v", want.ID, err)
		}
		if diff := cmp.Diff(want, fromYAML, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("week %d yaml round trip (-want +got):\n%s", want.ID, diff)
		}
	}
}

func TestBothShapesPresent(t *testing.T) {
	c := load(t)
	shapes := map[string]int{}
	for _, m := range c.All() {
		shapes[m.Shape()]++
	}
	if shapes[model.ShapeSingle] == 0 || shapes[model.ShapeMulti] == 0 {
		t.Errorf("shape counts = %v, want both single and multi", shapes)
	}
}

func TestMissingWeekFailsBuild(t *testing.T) {
	fsys := fstest.MapFS{}
	err := fs.WalkDir(weeks, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || p == "weeks/week-37.json" {
			return err
		}
		data, err := fs.ReadFile(weeks, p)
		if err != nil {
			return err
		}
		fsys[p] = &fstest.MapFile{Data: data}
		return nil
	})
	if err != nil {
		t.Fatalf("copy weeks: %v", err)
	}

	_, err = curriculum.Build(fsys, TargetCount)
	if !errors.Is(err, curriculum.ErrMissingModule) {
		t.Fatalf("Build error = %v, want ErrMissingModule", err)
	}
}

func TestEmbeddedContentPassesAudit(t *testing.T) {
	c := load(t)
	report := audit.Run(c.All(), audit.Options{
		Paragraphs:       4,
		RequireUnderline: true,
	})
	for _, f := range report.Errors() {
		t.Errorf("audit error: %s", f)
	}
	for _, f := range report.Warnings() {
		t.Errorf("audit warning: %s", f)
	}
}
