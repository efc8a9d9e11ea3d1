package filtering

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/postings"
)

type excludeFileFilter struct {
	toggle
	path   string
	logger *zap.Logger
}

// NewExcludeFile creates a filter that removes postings whose ids are listed in a file, one per line.
// A missing file excludes nothing.
func NewExcludeFile(path string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &excludeFileFilter{path: strings.TrimSpace(path), logger: logger}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Apply(_ context.Context, items []postings.Posting) ([]postings.Posting, Step, error) {
	if f.path == "" {
		return items, Step{Initial: len(items), Left: len(items)}, nil
	}

	ids, err := ReadExcludedIDs(f.path)
	if err != nil {
		return items, Step{}, fmt.Errorf("getting excluded postings from file: %w", err)
	}

	left, dropped := keep(items, func(p postings.Posting) bool {
		_, ok := ids[p.ID]
		return ok
	})

	if len(dropped) > 0 {
		f.logger.Info("excluding postings based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_postings", dropped),
			zap.Int("postings_left", len(left)),
		)
	}

	return left, Step{Initial: len(items), Dropped: len(dropped), Left: len(left)}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

// ReadExcludedIDs reads posting ids from path. Blank lines and lines starting with # are ignored.
func ReadExcludedIDs(path string) (map[string]struct{}, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids[line] = struct{}{}
	}

	return ids, scanner.Err()
}

// AppendExcludedIDs appends ids to the exclude file, creating it when needed.
func AppendExcludedIDs(path string, ids []string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(file)
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, err := w.WriteString(id + "\n"); err != nil {
			file.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}
