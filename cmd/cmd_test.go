package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/analysis"
	"github.com/spigell/hh-analyst/internal/notify"
	"github.com/spigell/hh-analyst/internal/pipeline"
	"github.com/spigell/hh-analyst/internal/postings"
)

func TestTopEntries(t *testing.T) {
	t.Parallel()

	counts := analysis.Counts{{Key: "a", Value: 3}, {Key: "b", Value: 2}}

	if got := topEntries(counts, 5); len(got) != 2 || got[0] != "a: 3" {
		t.Fatalf("unexpected entries: %v", got)
	}
	if got := topEntries(counts, 1); len(got) != 1 {
		t.Fatalf("expected one entry, got %v", got)
	}
	if got := topEntries(nil, 5); len(got) != 0 {
		t.Fatalf("expected no entries, got %v", got)
	}
}

func TestRenderReports(t *testing.T) {
	t.Parallel()

	res := &analysis.Result{
		TopJobTitles: analysis.Counts{{Key: "Go Developer", Value: 3}, {Key: "SRE", Value: 1}},
		TechStacks: analysis.KeywordTrends{
			{Keyword: "golang", Series: analysis.Series{{Date: "2024-01-01", Value: 1}, {Date: "2024-01-02", Value: 2.5}}},
		},
	}

	var buf bytes.Buffer
	if err := renderReports(&buf, res, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Top job titles", "Go Developer", "golang", "2024-01-02", "2.50", "(empty)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "SRE") {
		t.Fatalf("expected rows to be limited to one:\n%s", out)
	}
}

func TestHandleAction(t *testing.T) {
	t.Parallel()

	if err := handleAction(context.Background(), PromptExit, nil, zap.NewNop(), &pipeline.Outcome{}, pipeline.Request{}); !errors.Is(err, errExit) {
		t.Fatalf("expected errExit, got %v", err)
	}

	if err := handleAction(context.Background(), "dance", nil, zap.NewNop(), &pipeline.Outcome{}, pipeline.Request{}); err == nil {
		t.Fatalf("expected an error for an unknown action")
	}
}

func TestGetConfigFillsSections(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("search.text", "data engineer")
	viper.Set("filters.exclude-companies", []string{"Acme"})

	config, err := getConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Search.Text != "data engineer" {
		t.Fatalf("unexpected search text %q", config.Search.Text)
	}
	if config.AI.Gemini == nil || config.Notify == nil || config.Cache == nil || config.Telemetry == nil {
		t.Fatalf("expected every section to be initialized: %+v", config)
	}

	f := newFilters(config, zap.NewNop())
	left, err := f.Run(context.Background(), []postings.Posting{{ID: "1", Company: "acme"}, {ID: "2", Company: "Globex"}})
	if err != nil || len(left) != 1 || left[0].ID != "2" {
		t.Fatalf("unexpected filtering result %v (%v)", left, err)
	}
}

func TestNewNotifierDefaultsToLog(t *testing.T) {
	t.Parallel()

	config := &Config{Notify: &NotifyConfig{}}
	var cleanup closers
	n, err := newNotifier(config, zap.NewNop(), &cleanup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := n.(notify.Log); !ok {
		t.Fatalf("expected a log notifier, got %T", n)
	}

	config.Notify.WebhookURL = "http://localhost:9/hook"
	n, err = newNotifier(config, zap.NewNop(), &cleanup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	multi, ok := n.(notify.Multi)
	if !ok || len(multi) != 1 {
		t.Fatalf("expected a single webhook notifier, got %T", n)
	}
	if hook := multi[0].(*notify.Webhook); hook.Secret != notify.DefaultSecret {
		t.Fatalf("expected the default secret, got %q", hook.Secret)
	}
}

func TestNewStoreUsesConfiguredDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "artifacts")
	store, err := newStore(&Config{Storage: &StorageConfig{PublicDir: dir}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Dir() != dir {
		t.Fatalf("expected %q, got %q", dir, store.Dir())
	}
}
