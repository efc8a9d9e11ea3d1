package analysis

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/errors"
	"github.com/spigell/hh-analyst/internal/postings"
)

const (
	// DefaultAnalysisYear is the first year included in the recent subset.
	DefaultAnalysisYear = 2023
	// UnknownRemote replaces a missing remote flag.
	UnknownRemote = "no"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
}

// Record is a cleaned posting with its parsed date.
type Record struct {
	postings.Posting
	Date time.Time
	// Index is the position of the source posting in Dataset.Raw.
	Index int
}

// Dataset holds the raw postings and the two derived views used by reports.
// Recent is a subset of Cleaned, which is a subset of Raw.
type Dataset struct {
	Raw          []postings.Posting
	Cleaned      []Record
	Recent       []Record
	AnalysisYear int
	// Skipped counts CSV rows that could not be parsed at all.
	Skipped int
}

// Step describes the effect of one cleaning step.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

type loadOptions struct {
	year   int
	logger *zap.Logger
}

type Option func(*loadOptions)

// WithAnalysisYear overrides DefaultAnalysisYear.
func WithAnalysisYear(year int) Option {
	return func(o *loadOptions) { o.year = year }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *loadOptions) { o.logger = logger }
}

// Load cleans records into a Dataset. Records without a description or a parseable date are dropped;
// the input slice and its postings are left untouched.
func Load(records []postings.Posting, opts ...Option) *Dataset {
	o := loadOptions{year: DefaultAnalysisYear, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	ds := &Dataset{Raw: records, AnalysisYear: o.year}

	candidates := make([]Record, 0, len(records))
	for i, p := range records {
		candidates = append(candidates, Record{Posting: p, Index: i})
	}

	steps := []struct {
		name string
		keep func(*Record) bool
	}{
		{name: "drop_missing_description", keep: func(r *Record) bool {
			return strings.TrimSpace(r.Description) != ""
		}},
		{name: "drop_invalid_date", keep: func(r *Record) bool {
			d, ok := ParseDate(r.DatePosted)
			r.Date = d
			return ok
		}},
	}

	for _, s := range steps {
		var step Step
		candidates, step = filterRecords(s.name, candidates, s.keep)
		logStep(o.logger, step)
	}

	for i := range candidates {
		if candidates[i].IsRemote == "" {
			candidates[i].IsRemote = UnknownRemote
		}
	}
	ds.Cleaned = candidates

	var step Step
	ds.Recent, step = filterRecords("recent_subset", ds.Cleaned, func(r *Record) bool {
		return r.Date.Year() >= o.year
	})
	logStep(o.logger, step)

	if len(ds.Cleaned) == 0 {
		o.logger.Warn("dataset is empty after cleaning, reports will be empty",
			zap.Error(errors.EmptyDataset("no postings with description and date")),
			zap.Int("raw", len(records)),
		)
	}

	return ds
}

// LoadCSV reads a postings CSV artifact and cleans it. Only an unreadable input is an error;
// malformed rows are dropped and counted.
func LoadCSV(r io.Reader, opts ...Option) (*Dataset, error) {
	if r == nil {
		return nil, errors.Load("reading postings csv", fmt.Errorf("nil reader"))
	}

	items, skipped, err := postings.ReadCSV(r)
	if err != nil {
		return nil, errors.Load("reading postings csv", err)
	}

	ds := Load(items, opts...)
	ds.Skipped = skipped
	if skipped > 0 {
		o := loadOptions{logger: zap.NewNop()}
		for _, opt := range opts {
			opt(&o)
		}
		o.logger.Info("malformed csv rows dropped",
			zap.Error(errors.MalformedRecord(fmt.Sprintf("%d rows", skipped), nil)),
			zap.Int("skipped", skipped),
		)
	}
	return ds, nil
}

// ParseDate parses a posting date. Only the calendar date is kept.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func filterRecords(name string, in []Record, keep func(*Record) bool) ([]Record, Step) {
	out := make([]Record, 0, len(in))
	for _, r := range in {
		if keep(&r) {
			out = append(out, r)
		}
	}
	return out, Step{Name: name, Initial: len(in), Dropped: len(in) - len(out), Left: len(out)}
}

func logStep(logger *zap.Logger, step Step) {
	if logger == nil {
		return
	}
	logger.Debug("cleaning step applied",
		zap.String("name", step.Name),
		zap.Int("initial", step.Initial),
		zap.Int("dropped", step.Dropped),
		zap.Int("left", step.Left),
	)
}

// Descriptions joins all cleaned descriptions with a single space.
func (d *Dataset) Descriptions() string {
	parts := make([]string, len(d.Cleaned))
	for i, r := range d.Cleaned {
		parts[i] = r.Description
	}
	return strings.Join(parts, " ")
}
