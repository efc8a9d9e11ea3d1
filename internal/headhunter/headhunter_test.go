package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-analyst/internal/errors"
	"github.com/spigell/hh-analyst/internal/postings"
)

func newTestServer(t *testing.T, pages int, calls *atomic.Int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/vacancies", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("text") != "golang" {
			t.Errorf("unexpected text param: %q", r.URL.Query().Get("text"))
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		items := make([]map[string]any, 0, 2)
		for i := 0; i < 2; i++ {
			id := fmt.Sprintf("%d", page*2+i)
			items = append(items, map[string]any{
				"id":           id,
				"name":         "Go Developer " + id,
				"area":         map[string]any{"id": "1", "name": "Moscow"},
				"schedule":     map[string]any{"id": "remote"},
				"employer":     map[string]any{"id": "e", "name": "Acme"},
				"published_at": "2023-05-06T10:00:00+0300",
				"snippet":      map[string]any{"requirement": "golang"},
			})
		}

		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		_ = json.NewEncoder(gz).Encode(map[string]any{
			"items":    items,
			"found":    pages * 2,
			"pages":    pages,
			"page":     page,
			"per_page": 2,
		})
	})
	mux.HandleFunc("/vacancies/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          r.URL.Path[len("/vacancies/"):],
			"description": "<p>Full description</p>",
			"key_skills":  []map[string]any{{"name": "Docker"}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPostingsPaginatesUpToLimit(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, 5, &calls)

	c := New(zap.NewNop(), "", Options{RequestsPerSecond: 1000})
	c.APIURL = srv.URL

	items, err := c.FetchPostings(context.Background(), postings.Query{Text: "golang", MaxResults: 3, MaxAge: 30 * 24 * time.Hour})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 postings, got %d", len(items))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 page requests, got %d", calls.Load())
	}
	if items[0].Description != "golang" || items[0].IsRemote != "True" {
		t.Fatalf("unexpected posting: %+v", items[0])
	}
}

func TestFetchPostingsWithDetails(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, 1, &calls)

	c := New(zap.NewNop(), "token", Options{Details: true, RequestsPerSecond: 1000})
	c.APIURL = srv.URL

	items, err := c.FetchPostings(context.Background(), postings.Query{Text: "golang", Location: "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(items))
	}
	if items[1].Description != "Full description Docker" {
		t.Fatalf("unexpected description: %q", items[1].Description)
	}
}

func TestFetchPostingsSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	c := New(nil, "", Options{RequestsPerSecond: 1000})
	c.APIURL = srv.URL

	_, err := c.FetchPostings(context.Background(), postings.Query{Text: "golang"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.IsType(err, errors.ErrTypeSourceUnavailable) {
		t.Fatalf("expected source unavailable error, got %v", err)
	}
}

func TestBuildParams(t *testing.T) {
	q := buildParams(&SearchParams{
		Text:      "golang",
		Areas:     []int{1, 2},
		Schedules: []string{"remote"},
		PerPage:   "100",
		Period:    30,
	})

	if got := q["area"]; len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Fatalf("unexpected area values: %v", got)
	}
	if q.Get("schedule") != "remote" || q.Get("text") != "golang" || q.Get("period") != "30" {
		t.Fatalf("unexpected params: %v", q)
	}
	if _, ok := q["experience"]; ok {
		t.Fatalf("empty values must be omitted: %v", q)
	}
}
