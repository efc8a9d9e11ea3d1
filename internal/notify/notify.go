package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

const (
	EventAnalysisGenerated = "analysis_generated"
	EventCVAnalyzed        = "cv_analyzed"
)

// Event is the envelope delivered to every notifier.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// AnalysisGenerated is the payload of EventAnalysisGenerated.
type AnalysisGenerated struct {
	JobsFile       string `json:"jobs_file"`
	AnalysisFile   string `json:"analysis_file"`
	JobsAnalysisID int    `json:"jobs_analysis_id"`
	JobListsID     int    `json:"job_lists_id"`
	RunID          string `json:"run_id,omitempty"`
}

// CVAnalyzed is the payload of EventCVAnalyzed.
type CVAnalyzed struct {
	Result   string `json:"result"`
	ReviewID string `json:"review_id"`
}

// Multi delivers an event to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes events to the logger. It is used when no delivery channel is configured.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Notify(_ context.Context, event Event) error {
	if l.Logger != nil {
		l.Logger.Info("event emitted", zap.String("event", event.Event), zap.Any("data", event.Data))
	}
	return nil
}
