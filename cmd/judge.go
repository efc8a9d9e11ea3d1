package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/ai"
	"github.com/spigell/hh-analyst/internal/ai/gemini"
	"github.com/spigell/hh-analyst/internal/server"
)

var judgeCmd = &cobra.Command{
	Use:   "judge [quiz.json]",
	Short: "Grade quiz answers; reads a JSON list of {question, answer, userAnswer} from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		judge(args)
	},
}

func init() {
	rootCmd.AddCommand(judgeCmd)
}

func judge(args []string) {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	var in io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			logger.Fatal("opening quiz file", zap.Error(err))
		}
		defer f.Close()
		in = f
	}

	var items []ai.QuizItem
	if err := json.NewDecoder(in).Decode(&items); err != nil {
		logger.Fatal("decoding quiz items", zap.Error(err))
	}
	if len(items) == 0 {
		logger.Fatal("no quiz items given")
	}

	v := server.NewValidator()
	for i := range items {
		if err := v.Validate(&items[i]); err != nil {
			logger.Fatal("invalid quiz item", zap.Int("index", i), zap.Error(err))
		}
	}

	generator, err := newGenerator(ctx, config, logger)
	if err != nil {
		logger.Fatal("building gemini generator", zap.Error(err))
	}

	verdicts, err := gemini.NewQuizJudge(generator, logger).Judge(ctx, items)
	if err != nil {
		logger.Fatal("judging quiz", zap.Error(err))
	}

	out, _ := json.MarshalIndent(verdicts, "", "  ")
	fmt.Println(string(out))
}
