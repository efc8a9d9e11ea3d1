package analysis

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
)

// Count is a single category and the number of postings or tokens it covers.
type Count struct {
	Key   string
	Value int
}

// Counts is an ordered frequency table. It serializes as a JSON object preserving its order.
type Counts []Count

// Get returns the count stored for key.
func (c Counts) Get(key string) (int, bool) {
	for _, item := range c {
		if item.Key == key {
			return item.Value, true
		}
	}
	return 0, false
}

func (c Counts) Keys() []string {
	keys := make([]string, len(c))
	for i, item := range c {
		keys[i] = item.Key
	}
	return keys
}

func (c Counts) MarshalJSON() ([]byte, error) {
	return marshalOrdered(len(c), func(i int) (string, any) { return c[i].Key, c[i].Value })
}

// Point is a value observed at a calendar date formatted as YYYY-MM-DD.
type Point struct {
	Date  string
	Value float64
}

// Series is a chronological date-indexed sequence.
type Series []Point

// Get returns the value stored for date.
func (s Series) Get(date string) (float64, bool) {
	for _, p := range s {
		if p.Date == date {
			return p.Value, true
		}
	}
	return 0, false
}

func (s Series) MarshalJSON() ([]byte, error) {
	return marshalOrdered(len(s), func(i int) (string, any) { return s[i].Date, finite(s[i].Value) })
}

// KeywordTrend is the fitted daily series of one keyword.
type KeywordTrend struct {
	Keyword string
	Series  Series
}

// KeywordTrends is ordered by total mentions, highest first.
type KeywordTrends []KeywordTrend

func (k KeywordTrends) Get(keyword string) (Series, bool) {
	for _, t := range k {
		if t.Keyword == keyword {
			return t.Series, true
		}
	}
	return nil, false
}

func (k KeywordTrends) MarshalJSON() ([]byte, error) {
	return marshalOrdered(len(k), func(i int) (string, any) { return k[i].Keyword, k[i].Series })
}

// Result aggregates every report of one analysis run.
type Result struct {
	TopJobTitles     Counts        `json:"top_job_titles"`
	WordCloud        Counts        `json:"wordcloud_data"`
	TopLocations     Counts        `json:"top10_job_locs"`
	PostingTrend     Series        `json:"job_post_trend"`
	TopIndustries    Counts        `json:"top10_industries_with_most_jobs"`
	MentionedSkills  Counts        `json:"most_mentioned_skills_and_techstacks"`
	TopRemoteJobs    Counts        `json:"top10_remote_jobs"`
	TopNonRemoteJobs Counts        `json:"top10_non_remote_jobs"`
	TechStacks       KeywordTrends `json:"tech_stacks_overtime"`
}

// ReportNames lists the serialized report keys in output order.
var ReportNames = []string{
	"top_job_titles",
	"wordcloud_data",
	"top10_job_locs",
	"job_post_trend",
	"top10_industries_with_most_jobs",
	"most_mentioned_skills_and_techstacks",
	"top10_remote_jobs",
	"top10_non_remote_jobs",
	"tech_stacks_overtime",
}

// JSON renders the result as indented JSON.
func (r *Result) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// marshalOrdered writes n key/value pairs as a JSON object in the given order.
// An empty collection is rendered as {} rather than null.
func marshalOrdered(n int, pair func(i int) (string, any)) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, value := pair(i)
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// countInOrder counts keys and returns them in first-encounter order.
func countInOrder(keys []string) Counts {
	index := make(map[string]int, len(keys))
	var out Counts
	for _, k := range keys {
		if i, ok := index[k]; ok {
			out[i].Value++
			continue
		}
		index[k] = len(out)
		out = append(out, Count{Key: k, Value: 1})
	}
	return out
}

// byCountDesc orders counts by descending value; equal values keep their order.
func byCountDesc(c Counts) Counts {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Value > c[j].Value })
	return c
}

func byCountAsc(c Counts) Counts {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Value < c[j].Value })
	return c
}

func byKeyAsc(c Counts) Counts {
	sort.SliceStable(c, func(i, j int) bool { return c[i].Key < c[j].Key })
	return c
}

func head(c Counts, n int) Counts {
	if n < 0 {
		n = 0
	}
	if len(c) > n {
		return c[:n]
	}
	return c
}
