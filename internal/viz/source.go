package viz

import (
	"encoding/json"
	"sort"

	"github.com/mohammad-safakhou/redditdig/internal/analysis"
)

// SourceKind identifies which arm of a ChartSource is populated.
type SourceKind int

const (
	KindUnrecognized SourceKind = iota
	KindOpinions
	KindSentiments
	KindSubreddits
	KindTrends
	KindSeries
	KindNumericMap
)

func (k SourceKind) String() string {
	switch k {
	case KindOpinions:
		return "opinions"
	case KindSentiments:
		return "sentiments"
	case KindSubreddits:
		return "subredditAnalysis"
	case KindTrends:
		return "trends"
	case KindSeries:
		return "series"
	case KindNumericMap:
		return "numericMap"
	default:
		return "unrecognized"
	}
}

// SeriesItem is one name/value pair in a raw chartable series. Opinion is an
// alternate name key some payloads use.
type SeriesItem struct {
	Name    string  `json:"name"`
	Opinion string  `json:"opinion"`
	Value   float64 `json:"value"`
	Count   float64 `json:"count"`
}

func (s SeriesItem) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Opinion
}

func (s SeriesItem) amount() float64 {
	if s.Value != 0 {
		return s.Value
	}
	return s.Count
}

// TrendPoint is one period in a time series.
type TrendPoint struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
	Count  float64 `json:"count"`
}

// ChartSource is a closed union over everything the chart builder can plot.
// Exactly one arm (per Kind) is meaningful.
type ChartSource struct {
	Kind       SourceKind
	Opinions   []analysis.Opinion
	Sentiments analysis.Sentiments
	Subreddits map[string]analysis.SubredditView
	Trends     []TrendPoint
	Series     []SeriesItem
	Numeric    []SeriesItem
}

// rawEnvelope covers every payload shape ClassifySource recognizes.
type rawEnvelope struct {
	Opinions          []analysis.Opinion                  `json:"opinions"`
	Sentiments        *analysis.Sentiments                `json:"sentiments"`
	Positive          *float64                            `json:"positive"`
	Negative          *float64                            `json:"negative"`
	Neutral           *float64                            `json:"neutral"`
	SubredditAnalysis map[string]analysis.SubredditView   `json:"subredditAnalysis"`
	Trends            []TrendPoint                        `json:"trends"`
}

// ClassifySource inspects an arbitrary JSON payload and picks the best
// chartable interpretation. Preference order: opinions, sentiments (nested or
// flat), subreddit analysis, trends, the named data field, a raw array, then
// a flat numeric object. Anything else is Unrecognized.
func ClassifySource(raw json.RawMessage, dataField string) ChartSource {
	if len(raw) == 0 {
		return ChartSource{Kind: KindUnrecognized}
	}

	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Not an object; a bare array can only be a series.
		var series []SeriesItem
		if err := json.Unmarshal(raw, &series); err == nil && len(series) > 0 {
			return ChartSource{Kind: KindSeries, Series: series}
		}
		return ChartSource{Kind: KindUnrecognized}
	}

	if len(env.Opinions) > 0 {
		return ChartSource{Kind: KindOpinions, Opinions: env.Opinions}
	}
	if env.Sentiments != nil {
		return ChartSource{Kind: KindSentiments, Sentiments: *env.Sentiments}
	}
	if env.Positive != nil || env.Negative != nil || env.Neutral != nil {
		s := analysis.Sentiments{
			Positive: intOrZero(env.Positive),
			Negative: intOrZero(env.Negative),
			Neutral:  intOrZero(env.Neutral),
		}
		s.Total = s.Positive + s.Negative + s.Neutral
		return ChartSource{Kind: KindSentiments, Sentiments: s}
	}
	if len(env.SubredditAnalysis) > 0 {
		return ChartSource{Kind: KindSubreddits, Subreddits: env.SubredditAnalysis}
	}
	if len(env.Trends) > 0 {
		return ChartSource{Kind: KindTrends, Trends: env.Trends}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ChartSource{Kind: KindUnrecognized}
	}
	if dataField != "" {
		if nested, ok := fields[dataField]; ok {
			if src := ClassifySource(nested, ""); src.Kind != KindUnrecognized {
				return src
			}
		}
	}

	// Flat numeric object, like a bare percentages block.
	var numeric []SeriesItem
	for k, v := range fields {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			numeric = append(numeric, SeriesItem{Name: titleCase(k), Value: f})
		}
	}
	if len(numeric) > 0 {
		sort.Slice(numeric, func(i, j int) bool { return numeric[i].Name < numeric[j].Name })
		return ChartSource{Kind: KindNumericMap, Numeric: numeric}
	}
	return ChartSource{Kind: KindUnrecognized}
}

func intOrZero(f *float64) int {
	if f == nil {
		return 0
	}
	return int(*f)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
