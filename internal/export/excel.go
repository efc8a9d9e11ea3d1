package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/hh-analyst/internal/analysis"
)

// Sheet titles in workbook order. Excel limits sheet names to 31 characters, so report keys are not used directly.
const (
	SheetTitles     = "Job Titles"
	SheetWordCloud  = "Word Cloud"
	SheetLocations  = "Locations"
	SheetTrend      = "Posting Trend"
	SheetIndustries = "Industries"
	SheetSkills     = "Skills"
	SheetRemote     = "Remote Jobs"
	SheetNonRemote  = "Non-Remote Jobs"
	SheetTechStacks = "Tech Stacks"
)

type countSheet struct {
	name   string
	header [2]string
	data   analysis.Counts
}

// ToExcel writes every report of res into its own sheet and returns the final path.
// The .xlsx extension is appended when missing.
func ToExcel(res *analysis.Result, outputPath string) (string, error) {
	if res == nil {
		return "", fmt.Errorf("nothing to export")
	}

	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	counts := []countSheet{
		{SheetTitles, [2]string{"Title", "Postings"}, res.TopJobTitles},
		{SheetWordCloud, [2]string{"Word", "Frequency"}, res.WordCloud},
		{SheetLocations, [2]string{"Location", "Postings"}, res.TopLocations},
	}
	tail := []countSheet{
		{SheetIndustries, [2]string{"Industry", "Postings"}, res.TopIndustries},
		{SheetSkills, [2]string{"Skill", "Mentions"}, res.MentionedSkills},
		{SheetRemote, [2]string{"Title", "Postings"}, res.TopRemoteJobs},
		{SheetNonRemote, [2]string{"Title", "Postings"}, res.TopNonRemoteJobs},
	}

	first := true
	sheet := func(name string) error {
		if first {
			first = false
			return f.SetSheetName("Sheet1", name)
		}
		_, err := f.NewSheet(name)
		return err
	}

	for _, s := range counts {
		if err := sheet(s.name); err != nil {
			return "", fmt.Errorf("create sheet %q: %w", s.name, err)
		}
		if err := writeCounts(f, s, header); err != nil {
			return "", fmt.Errorf("fill sheet %q: %w", s.name, err)
		}
	}

	if err := sheet(SheetTrend); err != nil {
		return "", fmt.Errorf("create sheet %q: %w", SheetTrend, err)
	}
	if err := writeSeries(f, SheetTrend, res.PostingTrend, header); err != nil {
		return "", fmt.Errorf("fill sheet %q: %w", SheetTrend, err)
	}

	for _, s := range tail {
		if err := sheet(s.name); err != nil {
			return "", fmt.Errorf("create sheet %q: %w", s.name, err)
		}
		if err := writeCounts(f, s, header); err != nil {
			return "", fmt.Errorf("fill sheet %q: %w", s.name, err)
		}
	}

	if err := sheet(SheetTechStacks); err != nil {
		return "", fmt.Errorf("create sheet %q: %w", SheetTechStacks, err)
	}
	if err := writeTrends(f, SheetTechStacks, res.TechStacks, header); err != nil {
		return "", fmt.Errorf("fill sheet %q: %w", SheetTechStacks, err)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	return outputPath, nil
}

func writeCounts(f *excelize.File, s countSheet, style int) error {
	if err := f.SetSheetRow(s.name, "A1", &[]any{s.header[0], s.header[1]}); err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", "B1", style); err != nil {
		return err
	}
	f.SetColWidth(s.name, "A", "A", 40)
	f.SetColWidth(s.name, "B", "B", 12)

	for i, c := range s.data {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(s.name, cell, &[]any{c.Key, c.Value}); err != nil {
			return err
		}
	}

	return freezeHeader(f, s.name)
}

func writeSeries(f *excelize.File, name string, series analysis.Series, style int) error {
	if err := f.SetSheetRow(name, "A1", &[]any{"Date", "Postings (7-day average)"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", "B1", style); err != nil {
		return err
	}
	f.SetColWidth(name, "A", "A", 14)
	f.SetColWidth(name, "B", "B", 26)

	for i, p := range series {
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", i+2), &[]any{p.Date, p.Value}); err != nil {
			return err
		}
	}

	return freezeHeader(f, name)
}

// writeTrends lays keyword trends out as a wide table: one date column and one column per keyword.
func writeTrends(f *excelize.File, name string, trends analysis.KeywordTrends, style int) error {
	row := []any{"Date"}
	for _, t := range trends {
		row = append(row, t.Keyword)
	}
	if err := f.SetSheetRow(name, "A1", &row); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(row), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, style); err != nil {
		return err
	}
	f.SetColWidth(name, "A", "A", 14)

	if len(trends) == 0 {
		return freezeHeader(f, name)
	}

	// All keyword series share the same dates.
	for i, p := range trends[0].Series {
		values := []any{p.Date}
		for _, t := range trends {
			v, _ := t.Series.Get(p.Date)
			values = append(values, v)
		}
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return err
		}
	}

	return freezeHeader(f, name)
}

func freezeHeader(f *excelize.File, name string) error {
	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
