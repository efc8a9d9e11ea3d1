package filtering

import (
	"context"

	"github.com/spigell/hh-analyst/internal/postings"
)

type duplicatesFilter struct {
	toggle
}

// NewDuplicates creates a filter that keeps only the first posting per id.
// Postings without an id are matched by their url.
func NewDuplicates() Filter {
	return &duplicatesFilter{}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Apply(_ context.Context, items []postings.Posting) ([]postings.Posting, Step, error) {
	seen := make(map[string]struct{}, len(items))
	left, dropped := keep(items, func(p postings.Posting) bool {
		key := p.ID
		if key == "" {
			key = p.JobURL
		}
		if key == "" {
			return false
		}
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
		return false
	})

	return left, Step{Initial: len(items), Dropped: len(dropped), Left: len(left)}, nil
}

func (f *duplicatesFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
