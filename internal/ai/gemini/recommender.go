package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/ai"
	"github.com/spigell/hh-analyst/internal/postings"
	"github.com/spigell/hh-analyst/internal/util"
)

const (
	// RecommendationCandidates is the number of postings shown to the model.
	RecommendationCandidates = 7
	maxDescriptionRunes      = 300
)

// JobRecommender picks postings matching a CV review.
type JobRecommender struct {
	generator ai.Generator
	logger    *zap.Logger
}

func NewJobRecommender(generator ai.Generator, logger *zap.Logger) *JobRecommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobRecommender{generator: generator, logger: logger}
}

// Recommend returns the ids of the chosen postings in the order given by the model.
func (r *JobRecommender) Recommend(ctx context.Context, review string, items []postings.Posting) ([]string, error) {
	if strings.TrimSpace(review) == "" {
		return nil, errors.New("cv review is required")
	}
	if len(items) == 0 {
		return nil, errors.New("no postings to recommend from")
	}

	p := &postings.Postings{Items: items}
	text := fmt.Sprintf("ANALISIS CV RESULT:\n%s\n\nLOWONGAN PEKERJAAN:\n%s", review, MarkdownTable(p.Head(RecommendationCandidates)))

	raw, err := r.generator.Generate(ctx, ai.Request{System: jobRecommenderPrompt, Text: text, JSON: true})
	if err != nil {
		return nil, err
	}

	ids, err := parseJobIDs(raw)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("jobs recommended", zap.Strings("job_ids", ids))
	return ids, nil
}

func parseJobIDs(raw string) ([]string, error) {
	var decoded any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var list []any
	switch v := decoded.(type) {
	case []any:
		list = v
	case map[string]any:
		ids, ok := lookup(v, "job_ids")
		if !ok {
			return nil, fmt.Errorf("%w: job_ids is missing", ai.ErrUnexpectedFormat)
		}
		list, ok = ids.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: job_ids is %T", ai.ErrUnexpectedFormat, ids)
		}
	default:
		return nil, fmt.Errorf("%w: got %T", ai.ErrUnexpectedFormat, decoded)
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		if id := coerceString(item); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}

// MarkdownTable renders postings as a markdown table with the columns the recommender relies on.
func MarkdownTable(items []postings.Posting) string {
	var b strings.Builder
	b.WriteString("| id | title | company | location | date_posted | job_type | description |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for i, p := range items {
		id := p.ID
		if id == "" {
			id = fmt.Sprintf("%d", i)
		}
		cells := []string{
			util.MarkdownCell(id, 0),
			util.MarkdownCell(p.Title, 0),
			util.MarkdownCell(p.Company, 0),
			util.MarkdownCell(p.Location, 0),
			util.MarkdownCell(p.DatePosted, 0),
			util.MarkdownCell(p.JobType, 0),
			util.MarkdownCell(p.Description, maxDescriptionRunes),
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}
