package postings

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Columns is the header of the postings CSV artifact.
var Columns = []string{
	"id", "site", "job_url", "title", "company", "location",
	"date_posted", "job_type", "is_remote", "company_industry", "description",
}

// ErrNoHeader is returned when a CSV input has no header row.
var ErrNoHeader = errors.New("csv header is missing")

// WriteCSV writes postings with the artifact header.
func WriteCSV(w io.Writer, items []Posting) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range items {
		row := []string{
			p.ID, p.Site, p.JobURL, p.Title, p.Company, p.Location,
			p.DatePosted, p.JobType, p.IsRemote, p.Industry, p.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write posting %q: %w", p.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads postings by header name, so column order and extra columns do not matter.
// Rows with a wrong number of fields are skipped and counted in skipped.
func ReadCSV(r io.Reader) (items []Posting, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, ErrNoHeader
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	field := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("read row: %w", err)
		}

		items = append(items, Posting{
			ID:          field(row, "id"),
			Site:        field(row, "site"),
			JobURL:      field(row, "job_url"),
			Title:       field(row, "title"),
			Company:     field(row, "company"),
			Location:    field(row, "location"),
			DatePosted:  field(row, "date_posted"),
			JobType:     field(row, "job_type"),
			IsRemote:    field(row, "is_remote"),
			Industry:    field(row, "company_industry"),
			Description: field(row, "description"),
		})
	}

	return items, skipped, nil
}
