package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/analysis"
	"github.com/spigell/hh-analyst/internal/export"
	hhlog "github.com/spigell/hh-analyst/internal/logger"
	"github.com/spigell/hh-analyst/internal/pipeline"
	"github.com/spigell/hh-analyst/internal/telemetry"
)

const (
	PromptSummary = "Print summary"
	PromptTables  = "Print report tables"
	PromptDump    = "Dump analysis JSON"
	PromptExport  = "Export to xlsx"
	PromptNotify  = "Send analysis_generated notification"
	PromptExit    = "Exit"

	summaryEntries = 5
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptSummary, PromptTables, PromptDump, PromptExport, PromptNotify, PromptExit},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch postings and build the market analysis",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("text", "t", "", "search text, overrides search.text")
	analyzeCmd.Flags().StringP("location", "l", "", "search location, overrides search.location")
	analyzeCmd.Flags().Int("max-results", 0, "maximum number of postings to fetch")
	analyzeCmd.Flags().Duration("max-age", 0, "oldest posting to fetch, e.g. 720h")
	analyzeCmd.Flags().String("from-csv", "", "analyse an existing postings CSV instead of fetching")
	analyzeCmd.Flags().Int("jobs-analysis-id", 0, "jobs_analysis_id echoed in the notification")
	analyzeCmd.Flags().Int("job-lists-id", 0, "job_lists_id echoed in the notification")
	analyzeCmd.Flags().BoolP("auto-approve", "y", false, "print the summary and exit without asking")

	viper.BindPFlag("search.text", analyzeCmd.Flags().Lookup("text"))
	viper.BindPFlag("search.location", analyzeCmd.Flags().Lookup("location"))
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hh-analyst", zap.String("version", version))

	shutdown, err := telemetry.Init(ctx, app, version, config.Telemetry.Collector, logger)
	if err != nil {
		logger.Fatal("initializing telemetry", zap.Error(err))
	}
	defer shutdown(context.Background())

	var cleanup closers
	defer cleanup.Close()

	runner, _, _, err := newRunner(ctx, config, logger, &cleanup)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	req := pipeline.Request{
		Query:          config.Search.Text,
		Location:       config.Search.Location,
		MaxResults:     config.Search.MaxResults,
		MaxAge:         config.Search.MaxAge,
		JobsAnalysisID: intFlag(cmd, "jobs-analysis-id"),
		JobListsID:     intFlag(cmd, "job-lists-id"),
	}
	if v := intFlag(cmd, "max-results"); v > 0 {
		req.MaxResults = v
	}
	if v, _ := cmd.Flags().GetDuration("max-age"); v > 0 {
		req.MaxAge = v
	}

	var out *pipeline.Outcome
	fromCSV, _ := cmd.Flags().GetString("from-csv")
	if fromCSV != "" {
		out, err = analyzeFile(ctx, runner, fromCSV)
	} else {
		if strings.TrimSpace(req.Query) == "" {
			logger.Fatal("search text is required", zap.String("hint", "set search.text in the config or pass --text"))
		}
		out, err = runner.Run(ctx, req)
	}
	if err != nil && out == nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}
	if err != nil {
		logger.Error("analysis generated but notification failed", zap.Error(err))
	}

	logger = logger.With(hhlog.RunFields(out.RunID, req.Query, req.Location)...)

	if out.Dataset != nil && len(out.Dataset.Cleaned) == 0 {
		logger.Info("no usable postings, reports are empty")
	}

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	if autoApprove {
		printSummary(logger, out)
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, runner, logger, out, req); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func analyzeFile(ctx context.Context, runner *pipeline.Runner, path string) (*pipeline.Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return runner.AnalyzeCSV(ctx, f)
}

func handleAction(ctx context.Context, action string, runner *pipeline.Runner, logger *zap.Logger, out *pipeline.Outcome, req pipeline.Request) error {
	switch action {
	case PromptSummary:
		printSummary(logger, out)
		return nil
	case PromptTables:
		if err := renderReports(os.Stdout, out.Result, summaryEntries*2); err != nil {
			return fmt.Errorf("printing tables: %w", err)
		}
		return nil
	case PromptDump:
		data, err := out.Result.JSON()
		if err != nil {
			return fmt.Errorf("encoding analysis: %w", err)
		}
		fmt.Println(string(data))
		return nil
	case PromptExport:
		target := strings.TrimSuffix(out.AnalysisFile.Path, filepath.Ext(out.AnalysisFile.Path))
		path, err := export.ToExcel(out.Result, target)
		if err != nil {
			return fmt.Errorf("exporting to xlsx: %w", err)
		}
		logger.Info("exported analysis", zap.String("filename", path))
		return nil
	case PromptNotify:
		notifyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := runner.NotifyAnalysis(notifyCtx, out, req); err != nil {
			logger.Error("sending notification", zap.Error(err))
			return nil
		}
		logger.Info("notification sent")
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printSummary(logger *zap.Logger, out *pipeline.Outcome) {
	res := out.Result
	fields := []zap.Field{
		zap.String("jobs_file", out.JobsFile.Ref),
		zap.String("analysis_file", out.AnalysisFile.Ref),
		zap.Int("postings", out.Fetched),
	}
	if out.Dataset != nil {
		fields = append(fields,
			zap.Int("cleaned", len(out.Dataset.Cleaned)),
			zap.Int("recent", len(out.Dataset.Recent)),
		)
	}
	logger.Info("analysis summary", fields...)

	for _, section := range []struct {
		name string
		data analysis.Counts
	}{
		{"top job titles", res.TopJobTitles},
		{"top locations", res.TopLocations},
		{"top industries", res.TopIndustries},
		{"most mentioned skills", res.MentionedSkills},
		{"top remote jobs", res.TopRemoteJobs},
		{"top non remote jobs", res.TopNonRemoteJobs},
	} {
		logger.Info(section.name, zap.Strings("entries", topEntries(section.data, summaryEntries)))
	}

	logger.Info("tech stacks over time", zap.Strings("keywords", trendKeywords(res.TechStacks)))
}

func topEntries(c analysis.Counts, n int) []string {
	if n > len(c) {
		n = len(c)
	}
	out := make([]string, 0, n)
	for _, item := range c[:n] {
		out = append(out, fmt.Sprintf("%s: %d", item.Key, item.Value))
	}
	return out
}

func trendKeywords(t analysis.KeywordTrends) []string {
	out := make([]string, len(t))
	for i, k := range t {
		out[i] = k.Keyword
	}
	return out
}

func intFlag(cmd *cobra.Command, name string) int {
	v, _ := cmd.Flags().GetInt(name)
	return v
}
