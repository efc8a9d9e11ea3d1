package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/ai"
	"github.com/spigell/hh-analyst/internal/logger"
	"github.com/spigell/hh-analyst/internal/metrics"
	"github.com/spigell/hh-analyst/internal/notify"
)

// Reviewer is the subset of ai.Reviewer used by the runner.
type Reviewer = ai.Reviewer

// ReviewRequest is a CV to review against a stored analysis.
type ReviewRequest struct {
	CV       []byte
	Analysis []byte
	ReviewID string
}

// WithReviewer enables ReviewCV.
func WithReviewer(rv ai.Reviewer) Option {
	return func(r *Runner) { r.reviewer = rv }
}

// ReviewCV reviews a CV and emits cv_analyzed with the review text.
func (r *Runner) ReviewCV(ctx context.Context, req ReviewRequest) (*ai.CVReview, error) {
	if r.reviewer == nil {
		return nil, fmt.Errorf("cv review is not configured")
	}

	log := r.logger.With(logger.StringFields(logger.StringField{Key: logger.FieldReviewID, Value: req.ReviewID})...)

	ctx, span := r.tracer.Start(ctx, "pipeline.ReviewCV")
	defer span.End()

	review, err := r.reviewer.Review(ctx, req.CV, req.Analysis)
	metrics.RecordLLMCall("review", err)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("reviewing cv: %w", err)
	}

	log.Info("cv reviewed", zap.Int("attempts", review.Attempts), zap.Bool("fallback", review.Fallback))

	err = r.notifier.Notify(ctx, notify.Event{
		Event: notify.EventCVAnalyzed,
		Data:  notify.CVAnalyzed{Result: review.Text, ReviewID: req.ReviewID},
	})
	metrics.RecordNotification(notify.EventCVAnalyzed, err)
	if err != nil {
		return review, fmt.Errorf("notifying %s: %w", notify.EventCVAnalyzed, err)
	}

	return review, nil
}
