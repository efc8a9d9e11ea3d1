package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/postings"
)

type companiesFilter struct {
	toggle
	companies map[string]struct{}
	names     []string
	logger    *zap.Logger
}

// NewExcludedCompanies creates a filter that removes postings of the given companies.
// Names are compared case-insensitively.
func NewExcludedCompanies(companies []string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &companiesFilter{companies: make(map[string]struct{}, len(companies)), logger: logger}
	for _, c := range companies {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		f.companies[c] = struct{}{}
		f.names = append(f.names, c)
	}
	return f
}

func (f *companiesFilter) Name() string { return "excluded_companies" }

func (f *companiesFilter) Apply(_ context.Context, items []postings.Posting) ([]postings.Posting, Step, error) {
	if len(f.companies) == 0 {
		return items, Step{Initial: len(items), Left: len(items)}, nil
	}

	left, dropped := keep(items, func(p postings.Posting) bool {
		_, ok := f.companies[strings.ToLower(strings.TrimSpace(p.Company))]
		return ok
	})

	if len(dropped) > 0 {
		f.logger.Info("excluding postings by companies",
			zap.Strings("excluded_companies", f.names),
			zap.Strings("excluded_postings", dropped),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: len(items), Dropped: len(dropped), Left: len(left)}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["companies"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
