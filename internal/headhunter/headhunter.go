package headhunter

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/hh-analyst/internal/errors"
	"github.com/spigell/hh-analyst/internal/postings"
)

const (
	apiURL     = "https://api.hh.ru"
	userAgent  = "spigell/hh-analyst (spigelly@gmail.com)"
	SourceName = "hh.ru"
	// Max value for search per page.
	perPage = "100"

	defaultRequestsPerSecond = 5
)

type Options struct {
	// Areas are used when a query has no numeric location.
	Areas []int
	// Details enables fetching every vacancy to get its full description.
	// Without it the search snippet is used.
	Details bool
	// RequestsPerSecond limits calls to the API. Zero means the default.
	RequestsPerSecond float64
}

type Client struct {
	token      string
	logger     *zap.Logger
	limiter    *rate.Limiter
	sanitizer  *bluemonday.Policy
	opts       Options
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(logger *zap.Logger, token string, opts Options) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	return &Client{
		token:   token,
		APIURL:  apiURL,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		sanitizer: bluemonday.StrictPolicy(),
		opts:      opts,
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Name() string {
	return SourceName
}

func (c *Client) Search(ctx context.Context, params *SearchParams, limit int) (*Vacancies, error) {
	return c.search(ctx, params, limit)
}

// FetchPostings searches vacancies and converts them to postings.
func (c *Client) FetchPostings(ctx context.Context, q postings.Query) ([]postings.Posting, error) {
	q = q.WithDefaults()

	params := &SearchParams{
		Text:   q.Text,
		Areas:  c.opts.Areas,
		Period: uint(q.MaxAge / (24 * time.Hour)),
	}
	if area, err := strconv.Atoi(strings.TrimSpace(q.Location)); err == nil {
		params.Areas = []int{area}
	} else if q.Location != "" {
		c.logger.Warn("location is not an area id, using configured areas",
			zap.String("location", q.Location),
			zap.Ints("areas", c.opts.Areas),
		)
	}

	vacancies, err := c.search(ctx, params, q.MaxResults)
	if err != nil {
		return nil, errors.SourceUnavailable("searching hh.ru vacancies", err)
	}

	if c.opts.Details {
		if err := c.fillDescriptions(ctx, vacancies); err != nil {
			return nil, errors.SourceUnavailable("fetching hh.ru vacancy details", err)
		}
	}

	out := make([]postings.Posting, 0, vacancies.Len())
	for _, v := range vacancies.Items {
		out = append(out, v.ToPosting(c.sanitizer))
	}

	c.logger.Info("postings fetched",
		zap.String("source", SourceName),
		zap.String("query", q.Text),
		zap.Int("count", len(out)),
	)
	return out, nil
}

func (c *Client) fillDescriptions(ctx context.Context, vacancies *Vacancies) error {
	for _, v := range vacancies.Items {
		if v.Description != "" {
			continue
		}
		full, err := c.GetVacancy(ctx, v.ID)
		if err != nil {
			return err
		}
		v.Description = full.Description
		v.KeySkills = full.KeySkills
	}
	return nil
}
