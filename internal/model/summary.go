package model

// ModuleSummary is the table-of-contents view of a module.
type ModuleSummary struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Theme     Theme  `json:"theme"`
	Phase     Phase  `json:"phase"`
	Shape     string `json:"shape"`
	Passages  int    `json:"passages"`
	Questions int    `json:"questions"`
}

// Summarize builds the table-of-contents entry for m.
func Summarize(m Module) ModuleSummary {
	return ModuleSummary{
		ID:        m.ID,
		Title:     m.Title,
		Theme:     m.Theme,
		Phase:     PhaseFor(m.ID).Phase,
		Shape:     m.Shape(),
		Passages:  len(m.Sets()),
		Questions: len(m.Questions()),
	}
}

// ThemeSummary counts the modules of one theme.
type ThemeSummary struct {
	Theme   Theme  `json:"theme"`
	Label   string `json:"label,omitempty"`
	Modules int    `json:"modules"`
	Weeks   []int  `json:"weeks"`
}

// WeekVocab is a vocabulary entry tagged with the week that introduces it.
type WeekVocab struct {
	VocabEntry
	Week int `json:"weekId"`
}
