package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/ai"
	"github.com/spigell/hh-analyst/internal/ai/gemini"
	"github.com/spigell/hh-analyst/internal/pipeline"
	"github.com/spigell/hh-analyst/internal/postings"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a PDF CV against an analysis result",
	Run: func(cmd *cobra.Command, _ []string) {
		review(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().String("cv", "", "path to the CV in PDF")
	reviewCmd.Flags().String("analysis", "", "path to the analysis JSON produced by analyze")
	reviewCmd.Flags().String("review-id", "", "review id echoed in the cv_analyzed notification")
	reviewCmd.Flags().Bool("notify", false, "send the cv_analyzed notification")
	reviewCmd.Flags().String("recommend-from", "", "postings CSV to pick recommended postings from")

	reviewCmd.MarkFlagRequired("cv")
	reviewCmd.MarkFlagRequired("analysis")
}

func review(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	cvPath, _ := cmd.Flags().GetString("cv")
	analysisPath, _ := cmd.Flags().GetString("analysis")
	reviewID, _ := cmd.Flags().GetString("review-id")
	withNotify, _ := cmd.Flags().GetBool("notify")
	recommendFrom, _ := cmd.Flags().GetString("recommend-from")

	cv, err := os.ReadFile(cvPath)
	if err != nil {
		logger.Fatal("reading cv", zap.Error(err))
	}

	analysisJSON, err := os.ReadFile(analysisPath)
	if err != nil {
		logger.Fatal("reading analysis", zap.Error(err))
	}
	if !json.Valid(analysisJSON) {
		logger.Fatal("analysis file is not valid JSON", zap.String("path", analysisPath))
	}

	var cleanup closers
	defer cleanup.Close()

	var result *ai.CVReview
	var generator *gemini.Generator

	if withNotify {
		var runner *pipeline.Runner
		runner, _, generator, err = newRunner(ctx, config, logger, &cleanup)
		if err != nil {
			logger.Fatal("building the pipeline", zap.Error(err))
		}
		result, err = runner.ReviewCV(ctx, pipeline.ReviewRequest{CV: cv, Analysis: analysisJSON, ReviewID: reviewID})
		if err != nil && result == nil {
			logger.Fatal("reviewing cv", zap.Error(err))
		}
		if err != nil {
			logger.Error("cv reviewed but notification failed", zap.Error(err))
		}
	} else {
		generator, err = newGenerator(ctx, config, logger)
		if err != nil {
			logger.Fatal("building gemini generator", zap.Error(err))
		}
		reviewer := gemini.NewCVReviewer(generator, config.AI.Gemini.ReviewAttempts, logger)
		result, err = reviewer.Review(ctx, cv, analysisJSON)
		if err != nil {
			logger.Fatal("reviewing cv", zap.Error(err))
		}
	}

	logger.Info("cv reviewed", zap.Int("attempts", result.Attempts), zap.Bool("fallback", result.Fallback))
	fmt.Println(result.Text)

	if recommendFrom == "" || result.Fallback {
		return
	}
	if generator == nil {
		logger.Fatal("recommendations need gemini to be configured")
	}

	ids, err := recommend(ctx, gemini.NewJobRecommender(generator, logger), result.Text, recommendFrom)
	if err != nil {
		logger.Fatal("recommending postings", zap.Error(err))
	}

	logger.Info("recommended postings", zap.Strings("ids", ids))
	fmt.Println(strings.Join(ids, "\n"))
}

func recommend(ctx context.Context, r ai.Recommender, reviewText, csvPath string) ([]string, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	items, _, err := postings.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}

	return r.Recommend(ctx, reviewText, items)
}
