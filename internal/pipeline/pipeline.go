package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/analysis"
	"github.com/spigell/hh-analyst/internal/filtering"
	"github.com/spigell/hh-analyst/internal/logger"
	"github.com/spigell/hh-analyst/internal/metrics"
	"github.com/spigell/hh-analyst/internal/notify"
	"github.com/spigell/hh-analyst/internal/postings"
	"github.com/spigell/hh-analyst/internal/storage"
	"github.com/spigell/hh-analyst/internal/telemetry"
)

// Request describes one analysis run.
type Request struct {
	Query      string
	Location   string
	MaxResults int
	MaxAge     time.Duration

	// JobsAnalysisID and JobListsID are opaque identifiers echoed in the completion event.
	JobsAnalysisID int
	JobListsID     int
}

// Outcome is what a run produced.
type Outcome struct {
	RunID        string
	Fetched      int
	JobsFile     storage.Artifact
	AnalysisFile storage.Artifact
	Dataset      *analysis.Dataset
	Result       *analysis.Result
}

// Runner fetches postings, stores them, analyses them and announces the result.
type Runner struct {
	source   postings.Source
	filters  *filtering.Filtering
	store    *storage.Store
	analyzer *analysis.Analyzer
	notifier notify.Notifier
	reviewer Reviewer
	loadOpts []analysis.Option
	logger   *zap.Logger
	tracer   trace.Tracer
	newID    func() string
}

type Option func(*Runner)

// WithFilters sets the steps applied to fetched postings before they are stored.
func WithFilters(f *filtering.Filtering) Option {
	return func(r *Runner) { r.filters = f }
}

func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithAnalysisYear overrides the first year of the recent subset.
func WithAnalysisYear(year int) Option {
	return func(r *Runner) {
		if year > 0 {
			r.loadOpts = append(r.loadOpts, analysis.WithAnalysisYear(year))
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

func New(source postings.Source, store *storage.Store, analyzer *analysis.Analyzer, opts ...Option) *Runner {
	r := &Runner{
		source:   source,
		store:    store,
		analyzer: analyzer,
		logger:   zap.NewNop(),
		tracer:   telemetry.Tracer("pipeline"),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.analyzer == nil {
		r.analyzer = analysis.NewAnalyzer(analysis.WithAnalyzerLogger(r.logger))
	}
	if r.notifier == nil {
		r.notifier = notify.Log{Logger: r.logger}
	}
	r.loadOpts = append([]analysis.Option{analysis.WithLogger(r.logger)}, r.loadOpts...)
	return r
}

// Run executes a full analysis run and emits analysis_generated.
// When only the notification fails the outcome is still returned along with the error.
func (r *Runner) Run(ctx context.Context, req Request) (out *Outcome, err error) {
	started := time.Now()
	fetched := -1
	defer func() { metrics.RecordRun(fetched, time.Since(started), err) }()

	runID := r.newID()
	log := r.logger.With(logger.RunFields(runID, req.Query, req.Location)...)

	ctx, span := r.tracer.Start(ctx, "pipeline.Run",
		trace.WithAttributes(
			telemetry.String("run.id", runID),
			telemetry.String("run.query", req.Query),
			telemetry.String("run.location", req.Location),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if r.source == nil {
		return nil, fmt.Errorf("no posting source configured")
	}

	q := postings.Query{
		Text:       strings.TrimSpace(req.Query),
		Location:   strings.TrimSpace(req.Location),
		MaxResults: req.MaxResults,
		MaxAge:     req.MaxAge,
	}.WithDefaults()

	log.Info("fetching postings", zap.String("source", r.source.Name()), zap.Int("max_results", q.MaxResults))

	items, err := r.source.FetchPostings(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetching postings: %w", err)
	}
	fetched = len(items)
	span.SetAttributes(telemetry.Int("run.fetched", fetched))

	if r.filters != nil {
		items, err = r.filters.Run(ctx, items)
		if err != nil {
			return nil, fmt.Errorf("filtering postings: %w", err)
		}
	}

	log.Info("postings fetched", zap.Int("fetched", fetched), zap.Int("kept", len(items)))

	jobs, err := r.store.SavePostings(items)
	if err != nil {
		return nil, fmt.Errorf("storing postings: %w", err)
	}

	out, err = r.analyze(ctx, log, jobs)
	if err != nil {
		return nil, err
	}
	out.RunID = runID
	out.Fetched = fetched

	log.Info("analysis generated",
		zap.String("jobs_file", out.JobsFile.Ref),
		zap.String("analysis_file", out.AnalysisFile.Ref),
		zap.Duration("took", time.Since(started)),
	)

	if err := r.NotifyAnalysis(ctx, out, req); err != nil {
		return out, err
	}

	return out, nil
}

// AnalyzeCSV analyses an existing postings CSV without fetching. The input is copied to the store first
// so the produced artifacts stay together.
func (r *Runner) AnalyzeCSV(ctx context.Context, src io.Reader) (*Outcome, error) {
	runID := r.newID()
	log := r.logger.With(logger.RunFields(runID, "", "")...)

	ds, err := analysis.LoadCSV(src, r.loadOpts...)
	if err != nil {
		return nil, err
	}

	jobs, err := r.store.SavePostings(ds.Raw)
	if err != nil {
		return nil, fmt.Errorf("storing postings: %w", err)
	}

	res, err := r.analyzer.Run(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("running reports: %w", err)
	}

	analysisFile, err := r.store.SaveResult(res)
	if err != nil {
		return nil, fmt.Errorf("storing analysis: %w", err)
	}

	log.Info("analysis generated from csv", zap.Int("postings", len(ds.Raw)), zap.String("analysis_file", analysisFile.Ref))

	return &Outcome{
		RunID:        runID,
		Fetched:      len(ds.Raw),
		JobsFile:     jobs,
		AnalysisFile: analysisFile,
		Dataset:      ds,
		Result:       res,
	}, nil
}

// NotifyAnalysis emits analysis_generated for out.
func (r *Runner) NotifyAnalysis(ctx context.Context, out *Outcome, req Request) error {
	err := r.notifier.Notify(ctx, notify.Event{
		Event: notify.EventAnalysisGenerated,
		Data: notify.AnalysisGenerated{
			JobsFile:       out.JobsFile.Ref,
			AnalysisFile:   out.AnalysisFile.Ref,
			JobsAnalysisID: req.JobsAnalysisID,
			JobListsID:     req.JobListsID,
			RunID:          out.RunID,
		},
	})
	metrics.RecordNotification(notify.EventAnalysisGenerated, err)
	if err != nil {
		return fmt.Errorf("notifying %s: %w", notify.EventAnalysisGenerated, err)
	}
	return nil
}

func (r *Runner) analyze(ctx context.Context, log *zap.Logger, jobs storage.Artifact) (*Outcome, error) {
	f, err := r.store.Open(jobs.Ref)
	if err != nil {
		return nil, fmt.Errorf("opening postings artifact: %w", err)
	}
	defer f.Close()

	opts := append([]analysis.Option{}, r.loadOpts...)
	opts = append(opts, analysis.WithLogger(log))

	ds, err := analysis.LoadCSV(f, opts...)
	if err != nil {
		return nil, err
	}

	res, err := r.analyzer.Run(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("running reports: %w", err)
	}

	analysisFile, err := r.store.SaveResult(res)
	if err != nil {
		return nil, fmt.Errorf("storing analysis: %w", err)
	}

	return &Outcome{JobsFile: jobs, AnalysisFile: analysisFile, Dataset: ds, Result: res}, nil
}
