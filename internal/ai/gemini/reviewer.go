package gemini

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/ai"
)

const (
	DefaultReviewAttempts = 10
	pdfMIMEType           = "application/pdf"
	reviewUserText        = "Berikut CV saya. Tolong review berdasarkan data X."
)

// ReviewFallback is returned to the user when no attempt succeeded.
const ReviewFallback = "Maaf.. saat ini kami belum bisa melakukan evaluasi CV Anda, mungkin silahkan coba lagi nanti ya ^_^"

// CVReviewer reviews a PDF resume against an analysis result.
type CVReviewer struct {
	generator ai.Generator
	attempts  int
	logger    *zap.Logger
}

func NewCVReviewer(generator ai.Generator, attempts int, logger *zap.Logger) *CVReviewer {
	if attempts <= 0 {
		attempts = DefaultReviewAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CVReviewer{generator: generator, attempts: attempts, logger: logger}
}

// Review never fails because of the model: after all attempts it returns ReviewFallback.
// An error is returned only for empty input or a cancelled context.
func (r *CVReviewer) Review(ctx context.Context, cv []byte, analysis []byte) (*ai.CVReview, error) {
	if len(cv) == 0 {
		return nil, errors.New("cv file is empty")
	}

	req := ai.Request{
		System:      renderCVReviewPrompt(strings.TrimSpace(string(analysis))),
		Text:        reviewUserText,
		Attachments: []ai.Attachment{{MIMEType: pdfMIMEType, Data: cv}},
	}

	for attempt := 1; attempt <= r.attempts; attempt++ {
		text, err := r.generator.Generate(ctx, req)
		if err == nil {
			return &ai.CVReview{Text: text, Attempts: attempt}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Warn("cv review attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	}

	r.logger.Error("cv review failed, returning fallback", zap.Int("attempts", r.attempts))
	return &ai.CVReview{Text: ReviewFallback, Attempts: r.attempts, Fallback: true}, nil
}
