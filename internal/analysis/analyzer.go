package analysis

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Analyzer runs every report over a Dataset.
type Analyzer struct {
	vocabulary []string
	topN       int
	logger     *zap.Logger
	tracer     trace.Tracer
}

type AnalyzerOption func(*Analyzer)

func WithVocabulary(vocabulary []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(vocabulary) > 0 {
			a.vocabulary = vocabulary
		}
	}
}

// WithTopTitles overrides the number of entries kept by the job titles report.
func WithTopTitles(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.topN = n
		}
	}
}

func WithAnalyzerLogger(logger *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) AnalyzerOption {
	return func(a *Analyzer) {
		if tracer != nil {
			a.tracer = tracer
		}
	}
}

func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		vocabulary: DefaultVocabulary,
		topN:       DefaultTopN,
		logger:     zap.NewNop(),
		tracer:     noop.NewTracerProvider().Tracer("analysis"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run computes all reports concurrently. The Dataset is only read.
// The returned error is non-nil only when ctx is cancelled before the reports finish.
func (a *Analyzer) Run(ctx context.Context, ds *Dataset) (*Result, error) {
	ctx, span := a.tracer.Start(ctx, "analysis.Run",
		trace.WithAttributes(
			attribute.Int("dataset.raw", len(ds.Raw)),
			attribute.Int("dataset.cleaned", len(ds.Cleaned)),
			attribute.Int("dataset.recent", len(ds.Recent)),
		),
	)
	defer span.End()

	started := time.Now()
	res := &Result{}

	g, ctx := errgroup.WithContext(ctx)
	report := func(name string, fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			fn()
			a.logger.Debug("report computed", zap.String("report", name), zap.Duration("took", time.Since(t)))
			return nil
		})
	}

	report("top_job_titles", func() { res.TopJobTitles = TopJobTitles(ds, a.topN) })
	report("wordcloud_data", func() { res.WordCloud = WordCloud(ds) })
	report("top10_job_locs", func() { res.TopLocations = TopLocations(ds) })
	report("job_post_trend", func() { res.PostingTrend = PostingTrend(ds) })
	report("top10_industries_with_most_jobs", func() { res.TopIndustries = TopIndustries(ds) })
	report("most_mentioned_skills_and_techstacks", func() { res.MentionedSkills = MentionedSkills(ds, a.vocabulary) })
	report("top10_remote_jobs", func() { res.TopRemoteJobs = TopRemoteJobs(ds) })
	report("top10_non_remote_jobs", func() { res.TopNonRemoteJobs = TopNonRemoteJobs(ds) })
	report("tech_stacks_overtime", func() { res.TechStacks = TechStacksOvertime(ds, a.vocabulary) })

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	a.logger.Info("analysis completed",
		zap.Int("postings", len(ds.Cleaned)),
		zap.Int("recent_postings", len(ds.Recent)),
		zap.Int("vocabulary", len(a.vocabulary)),
		zap.Duration("took", time.Since(started)),
	)
	return res, nil
}
