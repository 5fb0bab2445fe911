// Package curriculum holds the immutable, ordered catalog of weekly
// modules and answers lookups against it.
package curriculum

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/pavelanni/readingprep/internal/model"
	"golang.org/x/crypto/blake2b"
)

var (
	// ErrMissingModule means an id in 1..target has no module.
	ErrMissingModule = errors.New("missing module")
	// ErrDuplicateModule means two modules share an id.
	ErrDuplicateModule = errors.New("duplicate module id")
	// ErrUnexpectedModule means a module id falls outside 1..target.
	ErrUnexpectedModule = errors.New("module id out of range")
	// ErrInvalidModule means a module uses an unknown theme or question type.
	ErrInvalidModule = errors.New("invalid module")
)

// Catalog is the ordered, read-only collection of modules.
// It is safe for concurrent use because nothing mutates it after construction.
type Catalog struct {
	modules     []model.Module
	index       map[int]int
	vocab       []model.WeekVocab
	fingerprint string
}

// Build reads every module document in fsys and checks that exactly the
// ids 1..target are present.
func Build(fsys fs.FS, target int) (*Catalog, error) {
	mods, err := readModules(fsys)
	if err != nil {
		return nil, fmt.Errorf("read modules: %w", err)
	}
	c, err := FromModules(mods, target)
	if err != nil {
		return nil, err
	}
	slog.Debug("curriculum loaded", "modules", c.Len(), "fingerprint", c.fingerprint)
	return c, nil
}

// FromModules builds a catalog from already decoded modules. The same
// completeness rules as Build apply.
func FromModules(mods []model.Module, target int) (*Catalog, error) {
	if target < 1 {
		return nil, fmt.Errorf("target count must be positive, got %d", target)
	}

	sorted := slices.Clone(mods)
	slices.SortStableFunc(sorted, func(a, b model.Module) int { return a.ID - b.ID })

	var errs []error
	index := make(map[int]int, len(sorted))
	for i, m := range sorted {
		switch {
		case m.ID < 1 || m.ID > target:
			errs = append(errs, fmt.Errorf("%w: %d (want 1..%d)", ErrUnexpectedModule, m.ID, target))
			continue
		case m.Body == nil:
			errs = append(errs, fmt.Errorf("module %d: %w", m.ID, model.ErrNoBody))
		default:
			errs = append(errs, emptyPassages(m)...)
			errs = append(errs, unknownValues(m)...)
		}
		if _, dup := index[m.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: %d", ErrDuplicateModule, m.ID))
			continue
		}
		index[m.ID] = i
	}

	var missing []string
	for id := 1; id <= target; id++ {
		if _, ok := index[id]; !ok {
			missing = append(missing, strconv.Itoa(id))
		}
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingModule, strings.Join(missing, ", ")))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	c := &Catalog{
		modules: sorted,
		index:   index,
	}
	for _, m := range sorted {
		for _, v := range m.Vocabulary {
			c.vocab = append(c.vocab, model.WeekVocab{VocabEntry: v, Week: m.ID})
		}
	}

	data, err := json.Marshal(sorted)
	if err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	sum := blake2b.Sum256(data)
	c.fingerprint = hex.EncodeToString(sum[:])
	return c, nil
}

// emptyPassages reports a multi-passage module with no passages, and each
// of its passages that has no questions.
func emptyPassages(m model.Module) []error {
	b, ok := m.Body.(model.MultiPassage)
	if !ok {
		return nil
	}
	if len(b.Passages) == 0 {
		return []error{fmt.Errorf("module %d: %w", m.ID, model.ErrNoBody)}
	}
	var errs []error
	for i, set := range b.Passages {
		if len(set.Questions) == 0 {
			errs = append(errs, fmt.Errorf("module %d passage %d: %w", m.ID, i+1, model.ErrNoQuestions))
		}
	}
	return errs
}

// unknownValues reports a theme or question type outside the closed sets.
// Documents are checked by the schema already; this covers modules that
// arrive from a snapshot or from code.
func unknownValues(m model.Module) []error {
	var errs []error
	if !m.Theme.Valid() {
		errs = append(errs, fmt.Errorf("module %d: %w: theme %q", m.ID, ErrInvalidModule, m.Theme))
	}
	for _, q := range m.Questions() {
		if !q.Type.Valid() {
			errs = append(errs, fmt.Errorf("module %d question %s: %w: type %q", m.ID, q.ID, ErrInvalidModule, q.Type))
		}
	}
	return errs
}

// All returns every module in ascending id order. The slice is a copy;
// the passages and questions inside each module are shared and must not
// be modified.
func (c *Catalog) All() []model.Module {
	return slices.Clone(c.modules)
}

// Get returns the module with the given id. The boolean is false when no
// such module exists.
func (c *Catalog) Get(id int) (model.Module, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Module{}, false
	}
	return c.modules[i], true
}

// Len returns the number of modules.
func (c *Catalog) Len() int {
	return len(c.modules)
}

// Fingerprint is a blake2b-256 hex digest of the catalog's JSON encoding.
// Two catalogs with the same content have the same fingerprint.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

// Summaries returns the table-of-contents entry of every module.
func (c *Catalog) Summaries() []model.ModuleSummary {
	out := make([]model.ModuleSummary, 0, len(c.modules))
	for _, m := range c.modules {
		out = append(out, model.Summarize(m))
	}
	return out
}

// ByTheme returns the modules of one theme in id order.
func (c *Catalog) ByTheme(theme model.Theme) []model.Module {
	var out []model.Module
	for _, m := range c.modules {
		if m.Theme == theme {
			out = append(out, m)
		}
	}
	return out
}

// ThemeSummaries counts modules per theme, in model.Themes order.
// Themes without modules are included with a zero count.
func (c *Catalog) ThemeSummaries() []model.ThemeSummary {
	out := make([]model.ThemeSummary, 0, len(model.Themes))
	for _, t := range model.Themes {
		ts := model.ThemeSummary{Theme: t, Weeks: []int{}}
		for _, m := range c.modules {
			if m.Theme == t {
				ts.Modules++
				ts.Weeks = append(ts.Weeks, m.ID)
			}
		}
		out = append(out, ts)
	}
	return out
}
