package storage

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/hh-analyst/internal/analysis"
	"github.com/spigell/hh-analyst/internal/postings"
)

func TestSavePostingsAndOpen(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), "")
	require.NoError(t, err)

	a, err := s.SavePostings([]postings.Posting{{ID: "1", Title: "Go Dev", DatePosted: "2023-01-01", Description: "go"}})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(a.Name, ".csv"))
	_, err = uuid.Parse(strings.TrimSuffix(a.Name, ".csv"))
	require.NoError(t, err)
	assert.Equal(t, "public/"+a.Name, a.Ref)

	f, err := s.Open(a.Ref)
	require.NoError(t, err)
	defer f.Close()

	items, skipped, err := postings.ReadCSV(f)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, items, 1)
	assert.Equal(t, "Go Dev", items[0].Title)
}

func TestSaveResultWritesIndentedJSON(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), "artifacts")
	require.NoError(t, err)

	res := &analysis.Result{TopJobTitles: analysis.Counts{{Key: "Go Dev", Value: 2}}}
	a, err := s.SaveResult(res)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.Ref, "artifacts/"))

	data, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"top_job_titles\": {")
	assert.Contains(t, string(data), `"Go Dev": 2`)
}

func TestOpenDoesNotEscapeDir(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.Open("public/../../etc/passwd")
	require.Error(t, err)

	_, err = s.Open("")
	require.Error(t, err)
}

func TestArtifactNamesAreUnique(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), "")
	require.NoError(t, err)

	a, err := s.SavePostings(nil)
	require.NoError(t, err)
	b, err := s.SavePostings(nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Name, b.Name)

	f, err := s.Open(b.Name)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(postings.Columns, ",")+"\n", string(data))
}
