package gemini

import (
	_ "embed"
	"strings"
)

var (
	//go:embed prompts/cv_review.md
	cvReviewPrompt string

	//go:embed prompts/quiz_judge.md
	quizJudgePrompt string

	//go:embed prompts/job_recommender.md
	jobRecommenderPrompt string
)

func renderCVReviewPrompt(analysisJSON string) string {
	return strings.ReplaceAll(cvReviewPrompt, "{{ANALYSIS_JSON}}", analysisJSON)
}
