package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pavelanni/readingprep/internal/curriculum"
	appI18n "github.com/pavelanni/readingprep/internal/i18n"
	"github.com/pavelanni/readingprep/internal/llm"
	"github.com/pavelanni/readingprep/internal/model"
	"github.com/pavelanni/readingprep/internal/richtext"
)

// Definer looks up words the curated vocabulary does not cover.
type Definer interface {
	Define(ctx context.Context, word, contextSentence string) (*llm.Definition, error)
}

// VocabularySearcher finds curated words by a free-text query.
type VocabularySearcher interface {
	SearchVocabulary(q string) ([]model.WeekVocab, error)
}

// catalogVocabulary searches the in-memory catalog.
type catalogVocabulary struct {
	catalog *curriculum.Catalog
}

func (v catalogVocabulary) SearchVocabulary(q string) ([]model.WeekVocab, error) {
	return v.catalog.Vocabulary(q), nil
}

// drillDistractors is how many wrong definitions a drill offers.
const drillDistractors = 3

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	catalog *curriculum.Catalog
	definer Definer
	vocab   VocabularySearcher
}

// New creates a new Handler. definer may be nil, in which case only
// curated definitions are served.
func New(cat *curriculum.Catalog, definer Definer) *Handler {
	return &Handler{catalog: cat, definer: definer, vocab: catalogVocabulary{cat}}
}

// SetVocabularySearcher replaces the catalog as the source of
// /api/vocabulary results.
func (h *Handler) SetVocabularySearcher(v VocabularySearcher) {
	h.vocab = v
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/modules", h.handleModules)
		r.Get("/modules/{id}", h.handleModule)
		r.Get("/modules/{id}/phase", h.handlePhase)
		r.Get("/themes", h.handleThemes)
		r.Get("/themes/{theme}", h.handleTheme)
		r.Get("/vocabulary", h.handleVocabulary)
		r.Get("/vocabulary/drill", h.handleDrill)
		r.Get("/define", h.handleDefine)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"modules":     h.catalog.Len(),
		"fingerprint": h.catalog.Fingerprint(),
	})
}

func (h *Handler) handleModules(w http.ResponseWriter, r *http.Request) {
	sums := h.catalog.Summaries()
	writeJSON(w, http.StatusOK, map[string]any{
		"message": appI18n.Tp(r.Context(), "ModulesAvailable", len(sums)),
		"modules": sums,
	})
}

// moduleFromPath resolves the {id} URL parameter. It writes the error
// response itself and returns false when there is no module to serve.
func (h *Handler) moduleFromPath(w http.ResponseWriter, r *http.Request) (model.Module, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, appI18n.Td(r.Context(), "InvalidModuleID", map[string]any{"ID": raw}))
		return model.Module{}, false
	}
	m, ok := h.catalog.Get(id)
	if !ok {
		slog.Debug("module not found", "module_id", id)
		writeError(w, http.StatusNotFound, appI18n.Td(r.Context(), "ModuleNotFound", map[string]any{"ID": id}))
		return model.Module{}, false
	}
	return m, true
}

func (h *Handler) handleModule(w http.ResponseWriter, r *http.Request) {
	m, ok := h.moduleFromPath(w, r)
	if !ok {
		return
	}

	etag := fmt.Sprintf(`"%s-%d"`, h.catalog.Fingerprint()[:16], m.ID)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && etagMatches(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, http.StatusOK, sanitizeModule(m))
}

func (h *Handler) handlePhase(w http.ResponseWriter, r *http.Request) {
	m, ok := h.moduleFromPath(w, r)
	if !ok {
		return
	}
	cfg := model.PhaseFor(m.ID)
	writeJSON(w, http.StatusOK, struct {
		model.PhaseConfig
		Week int    `json:"weekId"`
		Name string `json:"name"`
	}{cfg, m.ID, appI18n.PhaseName(r.Context(), cfg.Phase)})
}

func (h *Handler) handleThemes(w http.ResponseWriter, r *http.Request) {
	sums := h.catalog.ThemeSummaries()
	for i := range sums {
		sums[i].Label = appI18n.ThemeLabel(r.Context(), sums[i].Theme)
	}
	writeJSON(w, http.StatusOK, sums)
}

func (h *Handler) handleTheme(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "theme")
	theme, ok := model.ParseTheme(raw)
	if !ok {
		writeError(w, http.StatusNotFound, appI18n.Td(r.Context(), "ThemeNotFound", map[string]any{"Theme": raw}))
		return
	}
	mods := h.catalog.ByTheme(theme)
	sums := make([]model.ModuleSummary, 0, len(mods))
	for _, m := range mods {
		sums = append(sums, model.Summarize(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"theme":   theme,
		"label":   appI18n.ThemeLabel(r.Context(), theme),
		"message": appI18n.Tp(r.Context(), "ModulesAvailable", len(sums)),
		"modules": sums,
	})
}

func (h *Handler) handleVocabulary(w http.ResponseWriter, r *http.Request) {
	words, err := h.vocab.SearchVocabulary(r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("vocabulary search failed", "error", err)
		writeError(w, http.StatusInternalServerError, appI18n.T(r.Context(), "InternalError"))
		return
	}
	if words == nil {
		words = []model.WeekVocab{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": appI18n.Tp(r.Context(), "WordsFound", len(words)),
		"words":   words,
	})
}

// drillResponse is a definition-matching exercise for one curated word.
type drillResponse struct {
	Word    string   `json:"word"`
	Week    int      `json:"weekId"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

func (h *Handler) handleDrill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	word := strings.TrimSpace(r.URL.Query().Get("word"))
	if word == "" {
		writeError(w, http.StatusBadRequest, appI18n.T(ctx, "WordRequired"))
		return
	}
	v, ok := h.catalog.Definition(word)
	if !ok {
		writeError(w, http.StatusNotFound, appI18n.Td(ctx, "DefinitionNotFound", map[string]any{"Word": word}))
		return
	}
	options := append(h.catalog.Distractors(v.Definition, drillDistractors, nil), v.Definition)
	rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	writeJSON(w, http.StatusOK, drillResponse{Word: v.Word, Week: v.Week, Options: options, Answer: v.Definition})
}

// definitionResponse is what /api/define returns.
type definitionResponse struct {
	Word         string `json:"word"`
	PartOfSpeech string `json:"partOfSpeech,omitempty"`
	Definition   string `json:"definition"`
	Source       string `json:"source"`
	Week         int    `json:"weekId,omitempty"`
}

// handleDefine prefers the curated vocabulary: the given week's list
// first, then every week. Only then does it ask the model, passing the
// sentence of the week's passages that uses the word.
func (h *Handler) handleDefine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	word := strings.TrimSpace(r.URL.Query().Get("word"))
	if word == "" {
		writeError(w, http.StatusBadRequest, appI18n.T(ctx, "WordRequired"))
		return
	}

	var (
		week    model.Module
		hasWeek bool
	)
	if raw := r.URL.Query().Get("week"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, appI18n.Td(ctx, "InvalidModuleID", map[string]any{"ID": raw}))
			return
		}
		week, hasWeek = h.catalog.Get(id)
	}

	if hasWeek {
		if v, ok := week.Definition(word); ok {
			writeJSON(w, http.StatusOK, definitionResponse{Word: v.Word, Definition: v.Definition, Source: "curated", Week: week.ID})
			return
		}
	}
	if v, ok := h.catalog.Definition(word); ok {
		writeJSON(w, http.StatusOK, definitionResponse{Word: v.Word, Definition: v.Definition, Source: "curated", Week: v.Week})
		return
	}

	if h.definer == nil {
		writeError(w, http.StatusNotFound, appI18n.Td(ctx, "DefinitionNotFound", map[string]any{"Word": word}))
		return
	}

	var sentence string
	if hasWeek {
		for _, set := range week.Sets() {
			if sentence = richtext.SentenceContaining(set.Passage.Content, word); sentence != "" {
				break
			}
		}
	}
	def, err := h.definer.Define(ctx, word, sentence)
	if errors.Is(err, llm.ErrNoDefinition) {
		writeError(w, http.StatusNotFound, appI18n.Td(ctx, "DefinitionNotFound", map[string]any{"Word": word}))
		return
	}
	if err != nil {
		slog.Warn("definition lookup failed", "word", word, "error", err)
		writeError(w, http.StatusBadGateway, appI18n.T(ctx, "DefinitionUnavailable"))
		return
	}
	resp := definitionResponse{Word: def.Word, PartOfSpeech: def.PartOfSpeech, Definition: def.Definition, Source: "model"}
	if hasWeek {
		resp.Week = week.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// sanitizeModule returns a copy of m with every passage body passed
// through the rich-text policy.
func sanitizeModule(m model.Module) model.Module {
	clean := func(p model.Passage) model.Passage {
		p.Content = richtext.Sanitize(p.Content)
		return p
	}
	switch b := m.Body.(type) {
	case model.SinglePassage:
		b.Passage = clean(b.Passage)
		m.Body = b
	case model.MultiPassage:
		sets := make([]model.PassageSet, len(b.Passages))
		for i, s := range b.Passages {
			sets[i] = model.PassageSet{Passage: clean(s.Passage), Questions: s.Questions}
		}
		m.Body = model.MultiPassage{Passages: sets}
	}
	return m
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
