// Package export writes the curriculum as a spreadsheet for teachers.
package export

import (
	"fmt"
	"io"

	"github.com/pavelanni/readingprep/internal/curriculum"
	"github.com/pavelanni/readingprep/internal/model"
	"github.com/pavelanni/readingprep/internal/richtext"
	"github.com/xuri/excelize/v2"
)

const (
	SyllabusSheet   = "Syllabus"
	VocabularySheet = "Vocabulary"
)

var (
	syllabusHeader   = []any{"Week", "Title", "Theme", "Phase", "Shape", "Passages", "Questions", "Words"}
	vocabularyHeader = []any{"Week", "Word", "Definition"}
)

// WriteSyllabus writes an XLSX workbook with one row per week on the
// Syllabus sheet and one row per curated word on the Vocabulary sheet.
func WriteSyllabus(w io.Writer, cat *curriculum.Catalog) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SyllabusSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(VocabularySheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	syllabus := [][]any{syllabusHeader}
	for _, m := range cat.All() {
		s := model.Summarize(m)
		words := 0
		for _, set := range m.Sets() {
			words += richtext.WordCount(set.Passage.Content)
		}
		syllabus = append(syllabus, []any{s.ID, s.Title, string(s.Theme), string(s.Phase), s.Shape, s.Passages, s.Questions, words})
	}
	if err := writeSheet(f, SyllabusSheet, syllabus, bold); err != nil {
		return err
	}

	vocab := [][]any{vocabularyHeader}
	for _, v := range cat.Vocabulary("") {
		vocab = append(vocab, []any{v.Week, v.Word, v.Definition})
	}
	if err := writeSheet(f, VocabularySheet, vocab, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(SyllabusSheet, "B", "B", 36); err != nil {
		return err
	}
	if err := f.SetColWidth(VocabularySheet, "B", "B", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(VocabularySheet, "C", "C", 72); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
