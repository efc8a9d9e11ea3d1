package postings

import (
	"context"
	"time"
)

const (
	// DefaultMaxResults mirrors the amount of postings requested per analysis run.
	DefaultMaxResults = 1000
	// DefaultMaxAge is the oldest posting considered by a run.
	DefaultMaxAge = 360 * 24 * time.Hour
)

// Posting is one scraped job advertisement. It is never mutated after ingestion.
type Posting struct {
	ID          string `json:"id,omitempty"`
	Site        string `json:"site,omitempty"`
	JobURL      string `json:"job_url,omitempty"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Industry    string `json:"company_industry,omitempty"`
	JobType     string `json:"job_type,omitempty"`
	Description string `json:"description,omitempty"`
	// DatePosted keeps the raw value; it is parsed by the analysis loader.
	DatePosted string `json:"date_posted,omitempty"`
	// IsRemote keeps the raw flag as given by the source. Empty means unknown.
	IsRemote string `json:"is_remote,omitempty"`
}

// Query describes a single fetch request.
type Query struct {
	Text       string
	Location   string
	MaxResults int
	MaxAge     time.Duration
}

// WithDefaults fills zero values with the package defaults.
func (q Query) WithDefaults() Query {
	if q.MaxResults <= 0 {
		q.MaxResults = DefaultMaxResults
	}
	if q.MaxAge <= 0 {
		q.MaxAge = DefaultMaxAge
	}
	return q
}

// Source provides raw posting records for a query.
type Source interface {
	Name() string
	FetchPostings(ctx context.Context, q Query) ([]Posting, error)
}

// Postings is an ordered set of records.
type Postings struct {
	Items []Posting
}

func (p *Postings) Len() int {
	return len(p.Items)
}

// Head returns at most n first postings.
func (p *Postings) Head(n int) []Posting {
	if n < 0 || n >= len(p.Items) {
		return p.Items
	}
	return p.Items[:n]
}
