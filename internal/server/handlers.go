package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/ai"
	"github.com/spigell/hh-analyst/internal/metrics"
	"github.com/spigell/hh-analyst/internal/pipeline"
)

// TextSubmission starts an analysis run.
type TextSubmission struct {
	Text           string `json:"text" validate:"required"`
	JobsAnalysisID int    `json:"jobs_analysis_id"`
	JobListsID     int    `json:"job_lists_id"`
	Mode           string `json:"mode"`
}

func (s *Server) generateAnalysis(w http.ResponseWriter, r *http.Request) {
	var sub TextSubmission
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&sub); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub.Text = strings.TrimSpace(sub.Text)
	if sub.Mode == "" {
		sub.Mode = "default"
	}

	if err := s.validator.Validate(&sub); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respondWithJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: verr.Errors})
			return
		}
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := pipeline.Request{
		Query:          sub.Text,
		Location:       s.cfg.Location,
		MaxResults:     s.cfg.MaxResults,
		MaxAge:         s.cfg.MaxAge,
		JobsAnalysisID: sub.JobsAnalysisID,
		JobListsID:     sub.JobListsID,
	}

	s.logger.Info("analysis requested",
		zap.String("text", sub.Text),
		zap.String("mode", sub.Mode),
		zap.Int("jobs_analysis_id", sub.JobsAnalysisID),
		zap.Int("job_lists_id", sub.JobListsID),
	)

	s.background("generate_analysis", func(ctx context.Context) error {
		_, err := s.analyst.Run(ctx, req)
		return err
	})

	respondWithJSON(w, http.StatusOK, message{Message: "Analysis started"})
}

func (s *Server) analyzeCV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	if err := r.ParseMultipartForm(s.cfg.MaxUpload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	cv, name, err := formFile(r, "file")
	if err != nil || len(cv) == 0 {
		respondWithError(w, http.StatusBadRequest, "file is required")
		return
	}

	analysisJSON, analysisName, err := formFile(r, "job_analysis")
	if errors.Is(err, http.ErrMissingFile) {
		analysisJSON = []byte(r.FormValue("job_analysis"))
		err = nil
	}
	if err != nil || !json.Valid(analysisJSON) {
		respondWithError(w, http.StatusBadRequest, "job_analysis must be a JSON document")
		return
	}

	reviewID := strings.TrimSpace(r.FormValue("review_id"))
	if reviewID == "" {
		respondWithError(w, http.StatusBadRequest, "review_id is required")
		return
	}

	s.logger.Info("cv review requested",
		zap.String("file", name),
		zap.String("job_analysis", analysisName),
		zap.String("review_id", reviewID),
	)

	req := pipeline.ReviewRequest{CV: cv, Analysis: analysisJSON, ReviewID: reviewID}
	s.background("analyze_cv", func(ctx context.Context) error {
		_, err := s.analyst.ReviewCV(ctx, req)
		return err
	})

	respondWithJSON(w, http.StatusOK, message{Message: "CV analysis started"})
}

func (s *Server) upskillJudge(w http.ResponseWriter, r *http.Request) {
	if s.judge == nil {
		respondWithError(w, http.StatusServiceUnavailable, "quiz judge is not configured")
		return
	}

	var items []ai.QuizItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(items) == 0 {
		respondWithError(w, http.StatusBadRequest, "at least one quiz item is required")
		return
	}

	for i := range items {
		if err := s.validator.Validate(&items[i]); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				respondWithJSON(w, http.StatusUnprocessableEntity, errorResponse{
					Error:  fmt.Sprintf("validation failed for item %d", i),
					Fields: verr.Errors,
				})
				return
			}
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	verdicts, err := s.judge.Judge(r.Context(), items)
	metrics.RecordLLMCall("judge", err)
	if err != nil {
		s.logger.Error("judging quiz", zap.Int("items", len(items)), zap.Error(err))
		if errors.Is(err, ai.ErrUnexpectedFormat) {
			respondWithError(w, http.StatusBadGateway, "response format is not as expected")
			return
		}
		respondWithError(w, http.StatusBadGateway, "quiz judge is unavailable")
		return
	}

	respondWithJSON(w, http.StatusOK, verdicts)
}

func formFile(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer func(f multipart.File) { f.Close() }(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}
