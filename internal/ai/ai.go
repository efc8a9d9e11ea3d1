package ai

import (
	"context"
	"errors"

	"github.com/spigell/hh-analyst/internal/postings"
)

// ErrUnexpectedFormat is returned when a model answer does not have the documented shape.
var ErrUnexpectedFormat = errors.New("unexpected response format")

// Attachment is an inline file sent along with a prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Request is a single prompt to a language model.
type Request struct {
	// System is the system instruction.
	System      string
	Text        string
	Attachments []Attachment
	// JSON asks the model to answer with JSON only.
	JSON bool
}

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// CVReview is the outcome of a CV review.
type CVReview struct {
	Text     string
	Attempts int
	// Fallback is set when every attempt failed and Text is the apology message.
	Fallback bool
}

type Reviewer interface {
	Review(ctx context.Context, cv []byte, analysis []byte) (*CVReview, error)
}

// QuizItem is a question, the reference answer and the answer given by the user.
type QuizItem struct {
	Question   string `json:"question" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
	UserAnswer string `json:"userAnswer"`
}

// QuizVerdict is the model's judgement of one answer. Score is in the 0-100 range.
type QuizVerdict struct {
	Feedback string  `json:"feedback"`
	Score    float64 `json:"nilai"`
}

type Judge interface {
	Judge(ctx context.Context, items []QuizItem) ([]QuizVerdict, error)
}

// Recommender picks the postings best matching a CV review.
type Recommender interface {
	Recommend(ctx context.Context, review string, items []postings.Posting) ([]string, error)
}
