package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/ai"
)

const (
	DefaultFeedback = "Tidak ada feedback."
	feedbackKey     = "Komentar"
	scoreKey        = "Nilai"
)

// QuizJudge scores free-text quiz answers against reference answers.
type QuizJudge struct {
	generator ai.Generator
	logger    *zap.Logger
}

func NewQuizJudge(generator ai.Generator, logger *zap.Logger) *QuizJudge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizJudge{generator: generator, logger: logger}
}

type judgedQuestion struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
	UserAnswer    string `json:"user_answer"`
}

// Judge returns one verdict per element of the model answer. Missing comments and scores
// fall back to DefaultFeedback and 0. An answer that is not a JSON list is ai.ErrUnexpectedFormat.
func (j *QuizJudge) Judge(ctx context.Context, items []ai.QuizItem) ([]ai.QuizVerdict, error) {
	if len(items) == 0 {
		return nil, errors.New("at least one quiz item is required")
	}

	questions := make([]judgedQuestion, 0, len(items))
	for _, it := range items {
		questions = append(questions, judgedQuestion{
			Question:      it.Question,
			CorrectAnswer: it.Answer,
			UserAnswer:    it.UserAnswer,
		})
	}
	payload, err := json.Marshal(map[string]any{"questions": questions})
	if err != nil {
		return nil, fmt.Errorf("marshal quiz items: %w", err)
	}

	raw, err := j.generator.Generate(ctx, ai.Request{System: quizJudgePrompt, Text: string(payload), JSON: true})
	if err != nil {
		return nil, err
	}

	return parseVerdicts(raw)
}

func parseVerdicts(raw string) ([]ai.QuizVerdict, error) {
	var decoded any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	list, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list, got %T", ai.ErrUnexpectedFormat, decoded)
	}

	verdicts := make([]ai.QuizVerdict, 0, len(list))
	for _, item := range list {
		obj, _ := item.(map[string]any)

		verdict := ai.QuizVerdict{Feedback: DefaultFeedback}
		if v, ok := lookup(obj, feedbackKey); ok {
			if s := coerceString(v); s != "" {
				verdict.Feedback = s
			}
		}
		if v, ok := lookup(obj, scoreKey); ok {
			if score := coerceFloat(v); !math.IsNaN(score) {
				verdict.Score = score
			}
		}
		verdicts = append(verdicts, verdict)
	}
	return verdicts, nil
}
