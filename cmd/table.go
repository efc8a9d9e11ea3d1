package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/spigell/hh-analyst/internal/analysis"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
	)
}

// renderReports prints the ranked reports and the latest fitted tech stack values as tables.
func renderReports(w io.Writer, res *analysis.Result, n int) error {
	sections := []struct {
		title string
		data  analysis.Counts
	}{
		{"Top job titles", res.TopJobTitles},
		{"Top locations", res.TopLocations},
		{"Top industries", res.TopIndustries},
		{"Most mentioned skills", res.MentionedSkills},
		{"Top remote jobs", res.TopRemoteJobs},
		{"Top non remote jobs", res.TopNonRemoteJobs},
	}

	for _, section := range sections {
		rows := make([][]string, 0, n)
		for _, item := range section.data {
			if len(rows) == n {
				break
			}
			rows = append(rows, []string{item.Key, strconv.Itoa(item.Value)})
		}
		if err := renderTable(w, section.title, []string{"name", "postings"}, rows); err != nil {
			return err
		}
	}

	rows := make([][]string, 0, len(res.TechStacks))
	for _, trend := range res.TechStacks {
		if len(trend.Series) == 0 {
			continue
		}
		last := trend.Series[len(trend.Series)-1]
		rows = append(rows, []string{trend.Keyword, last.Date, strconv.FormatFloat(last.Value, 'f', 2, 64)})
	}
	return renderTable(w, "Tech stacks over time", []string{"keyword", "date", "fitted"}, rows)
}

func renderTable(w io.Writer, title string, header []string, rows [][]string) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", title); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "  (empty)")
		return err
	}

	table := newTable(w)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("rendering %s: %w", title, err)
	}
	return table.Render()
}
