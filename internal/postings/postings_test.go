package postings

import (
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/hh-analyst/internal/cache"
	"github.com/spigell/hh-analyst/internal/cache/redis"
)

func TestQueryWithDefaults(t *testing.T) {
	t.Parallel()

	q := Query{Text: "golang"}.WithDefaults()
	assert.Equal(t, DefaultMaxResults, q.MaxResults)
	assert.Equal(t, DefaultMaxAge, q.MaxAge)

	q = Query{MaxResults: 5, MaxAge: time.Hour}.WithDefaults()
	assert.Equal(t, 5, q.MaxResults)
	assert.Equal(t, time.Hour, q.MaxAge)
}

func TestPostingsHead(t *testing.T) {
	t.Parallel()

	p := &Postings{Items: []Posting{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	assert.Len(t, p.Head(2), 2)
	assert.Len(t, p.Head(10), 3)
	assert.Len(t, p.Head(-1), 3)
	assert.Equal(t, 3, p.Len())
}

func TestCSVWriteThenRead(t *testing.T) {
	t.Parallel()

	items := []Posting{
		{ID: "a", Title: "Data Engineer", Company: "Acme", Location: "Jakarta, Indonesia", DatePosted: "2023-05-01", IsRemote: "True", Description: "python, \"sql\"\nand spark"},
		{ID: "b", Title: "Analyst", Company: "Beta", DatePosted: "2023-05-02"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items))

	got, skipped, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, items, got)
}

func TestReadCSVByHeaderName(t *testing.T) {
	t.Parallel()

	in := "\ufefftitle,extra,company,date_posted\nGo Dev,x,Acme,2023-01-02\nbroken,row\nPy Dev,y,Beta,2023-01-03\n"
	got, skipped, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, got, 2)
	assert.Equal(t, "Go Dev", got[0].Title)
	assert.Equal(t, "Acme", got[0].Company)
	assert.Equal(t, "2023-01-03", got[1].DatePosted)
	assert.Empty(t, got[1].Location)
}

func TestReadCSVEmptyInput(t *testing.T) {
	t.Parallel()

	_, _, err := ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrNoHeader)
}

type countingSource struct {
	calls atomic.Int32
	items []Posting
}

func (s *countingSource) Name() string { return "fake" }

func (s *countingSource) FetchPostings(_ context.Context, _ Query) ([]Posting, error) {
	s.calls.Add(1)
	return s.items, nil
}

func TestCachedSource(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	c := redis.New(cache.Options{RedisAddr: srv.Addr(), DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = c.Close() })

	src := &countingSource{items: []Posting{{ID: "1", Title: "Go"}}}
	cached := NewCachedSource(src, c, time.Minute, nil)
	ctx := context.Background()
	q := Query{Text: "Golang"}

	first, err := cached.FetchPostings(ctx, q)
	require.NoError(t, err)
	second, err := cached.FetchPostings(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, src.calls.Load())
	assert.Equal(t, "fake", cached.Name())

	srv.FastForward(2 * time.Minute)
	_, err = cached.FetchPostings(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestCacheKeyNormalizesQuery(t *testing.T) {
	t.Parallel()

	a := CacheKey("hh", Query{Text: " Golang ", Location: "1"}.WithDefaults())
	b := CacheKey("hh", Query{Text: "golang", Location: "1"}.WithDefaults())
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, CacheKey("other", Query{Text: "golang", Location: "1"}.WithDefaults()))
}
