package curriculum

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/pavelanni/readingprep/internal/model"
)

// Vocabulary returns curated words of every week, ordered by week.
// A non-empty query keeps entries whose word or definition contains it,
// or whose "week N" label does, ignoring case.
func (c *Catalog) Vocabulary(query string) []model.WeekVocab {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.WeekVocab, 0, len(c.vocab))
	for _, v := range c.vocab {
		if q == "" ||
			strings.Contains(strings.ToLower(v.Word), q) ||
			strings.Contains(strings.ToLower(v.Definition), q) ||
			strings.Contains("week "+strconv.Itoa(v.Week), q) {
			out = append(out, v)
		}
	}
	return out
}

// Definition looks up a curated word across all weeks, ignoring case.
// The earliest week that defines the word wins.
func (c *Catalog) Definition(word string) (model.WeekVocab, bool) {
	word = strings.TrimSpace(word)
	for _, v := range c.vocab {
		if strings.EqualFold(v.Word, word) {
			return v, true
		}
	}
	return model.WeekVocab{}, false
}

// Distractors returns up to n definitions other than correct, in random
// order, for building definition-matching drills. A nil r uses the
// package-level source.
func (c *Catalog) Distractors(correct string, n int, r *rand.Rand) []string {
	if n <= 0 {
		return nil
	}
	seen := map[string]bool{correct: true}
	var pool []string
	for _, v := range c.vocab {
		if seen[v.Definition] {
			continue
		}
		seen[v.Definition] = true
		pool = append(pool, v.Definition)
	}
	swap := func(i, j int) { pool[i], pool[j] = pool[j], pool[i] }
	if r != nil {
		r.Shuffle(len(pool), swap)
	} else {
		rand.Shuffle(len(pool), swap)
	}
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool
}
