package analysis

import (
	"sort"
	"strings"
	"time"
)

const (
	DefaultTopN     = 10
	TopTechStacks   = 7
	RemoteFlag      = "True"
	NonRemoteFlag   = "False"
	locationDivider = ","
)

// TopJobTitles counts cleaned postings by exact title and keeps the n most frequent.
func TopJobTitles(ds *Dataset, n int) Counts {
	return head(byCountDesc(countInOrder(titles(ds.Cleaned))), n)
}

// WordCloud is the word frequency table of all cleaned descriptions.
func WordCloud(ds *Dataset) Counts {
	return NormalizeCorpus(ds.Descriptions())
}

// TopLocations counts the first comma-separated segment of each location.
func TopLocations(ds *Dataset) Counts {
	keys := make([]string, 0, len(ds.Cleaned))
	for _, r := range ds.Cleaned {
		if r.Location == "" {
			continue
		}
		keys = append(keys, strings.SplitN(r.Location, locationDivider, 2)[0])
	}
	return head(byCountDesc(countInOrder(keys)), DefaultTopN)
}

// PostingTrend is the trailing TrendWindow-day mean of recent postings per day.
func PostingTrend(ds *Dataset) Series {
	dates, perDay := dailyCounts(ds.Recent, func(Record) bool { return true })
	avg := MovingAverage(perDay, TrendWindow)

	out := make(Series, 0, len(avg))
	offset := len(dates) - len(avg)
	for i, v := range avg {
		out = append(out, Point{Date: dates[offset+i].Format(dateLayout), Value: v})
	}
	return out
}

// TopIndustries keeps the ten most frequent industries, then orders them by count and finally by name,
// both ascending.
func TopIndustries(ds *Dataset) Counts {
	keys := make([]string, 0, len(ds.Cleaned))
	for _, r := range ds.Cleaned {
		if r.Industry == "" {
			continue
		}
		keys = append(keys, r.Industry)
	}
	top := head(byCountDesc(countInOrder(keys)), DefaultTopN)
	return byKeyAsc(byCountAsc(top))
}

// MentionedSkills counts substring occurrences of every vocabulary keyword in the lowercased corpus.
// The result follows vocabulary order.
func MentionedSkills(ds *Dataset, vocabulary []string) Counts {
	corpus := strings.ToLower(ds.Descriptions())
	out := make(Counts, 0, len(vocabulary))
	for _, kw := range vocabulary {
		out = append(out, Count{Key: kw, Value: strings.Count(corpus, kw)})
	}
	return out
}

// TopRemoteJobs counts titles of postings flagged exactly "True".
func TopRemoteJobs(ds *Dataset) Counts {
	return topTitlesWithFlag(ds, RemoteFlag)
}

// TopNonRemoteJobs counts titles of postings flagged exactly "False".
func TopNonRemoteJobs(ds *Dataset) Counts {
	return topTitlesWithFlag(ds, NonRemoteFlag)
}

func topTitlesWithFlag(ds *Dataset, flag string) Counts {
	var matched []Record
	for _, r := range ds.Cleaned {
		if r.IsRemote == flag {
			matched = append(matched, r)
		}
	}
	top := head(byCountDesc(countInOrder(titles(matched))), DefaultTopN)
	return byCountAsc(top)
}

// TechStacksOvertime ranks keywords by the number of recent postings mentioning them and fits a
// polynomial trend to the daily mentions of the TopTechStacks highest ranked keywords.
func TechStacksOvertime(ds *Dataset, vocabulary []string) KeywordTrends {
	if len(ds.Recent) == 0 {
		return KeywordTrends{}
	}

	lowered := make([]string, len(ds.Recent))
	for i, r := range ds.Recent {
		lowered[i] = strings.ToLower(r.Description)
	}

	type ranked struct {
		keyword string
		dates   []time.Time
		daily   []float64
		total   float64
	}

	all := make([]ranked, 0, len(vocabulary))
	for _, kw := range vocabulary {
		dates, daily := dailyCountsIndexed(ds.Recent, func(i int) bool {
			return strings.Contains(lowered[i], kw)
		})
		total := 0.0
		for _, v := range daily {
			total += v
		}
		all = append(all, ranked{keyword: kw, dates: dates, daily: daily, total: total})
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].total > all[j].total })
	if len(all) > TopTechStacks {
		all = all[:TopTechStacks]
	}

	out := make(KeywordTrends, 0, len(all))
	for _, r := range all {
		out = append(out, KeywordTrend{Keyword: r.keyword, Series: FitSeries(r.dates, r.daily)})
	}
	return out
}

func titles(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

// dailyCounts returns every distinct date of records in chronological order and, per date,
// the number of records satisfying match.
func dailyCounts(records []Record, match func(Record) bool) ([]time.Time, []float64) {
	return dailyCountsIndexed(records, func(i int) bool { return match(records[i]) })
}

func dailyCountsIndexed(records []Record, match func(i int) bool) ([]time.Time, []float64) {
	byDay := make(map[time.Time]float64, len(records))
	for i, r := range records {
		if _, ok := byDay[r.Date]; !ok {
			byDay[r.Date] = 0
		}
		if match(i) {
			byDay[r.Date]++
		}
	}

	dates := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = byDay[d]
	}
	return dates, values
}
