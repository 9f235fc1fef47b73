package viz

import (
	"fmt"
	"math"
	"sort"

	"github.com/mohammad-safakhou/redditdig/internal/analysis"
)

// ChartType is the requested visualization shape.
type ChartType string

const (
	ChartPie     ChartType = "pie"
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartScatter ChartType = "scatter"
	ChartArea    ChartType = "area"
)

// ChartSort orders chart items.
type ChartSort string

const (
	SortByValue     ChartSort = "value"
	SortByName      ChartSort = "name"
	SortByFrequency ChartSort = "frequency"
)

// ChartRequest describes the chart to build from a source.
type ChartRequest struct {
	Type      ChartType `json:"chartType"`
	Title     string    `json:"title"`
	DataField string    `json:"dataField,omitempty"`
	MaxItems  int       `json:"maxItems,omitempty"`
	SortBy    ChartSort `json:"sortBy,omitempty"`
}

func (r ChartRequest) normalize() ChartRequest {
	if r.MaxItems < 3 || r.MaxItems > 20 {
		r.MaxItems = 10
	}
	switch r.SortBy {
	case SortByValue, SortByName, SortByFrequency:
	default:
		r.SortBy = SortByValue
	}
	return r
}

// Validate rejects chart types the builder cannot render.
func (r ChartRequest) Validate() error {
	switch r.Type {
	case ChartPie, ChartBar, ChartLine, ChartScatter, ChartArea:
		return nil
	default:
		return fmt.Errorf("unsupported chart type %q", r.Type)
	}
}

// ChartDatum is one rendered chart item. Optional fields are populated per
// source kind.
type ChartDatum struct {
	Name       string   `json:"name"`
	Value      float64  `json:"value"`
	Color      string   `json:"color"`
	Percentage int      `json:"percentage,omitempty"`
	Count      int      `json:"count,omitempty"`
	FullName   string   `json:"fullName,omitempty"`
	Confidence int      `json:"confidence,omitempty"`
	Examples   []string `json:"examples,omitempty"`
	Positive   int      `json:"positive,omitempty"`
	Negative   int      `json:"negative,omitempty"`
	Neutral    int      `json:"neutral,omitempty"`
}

// palette is the fixed color cycle assigned to chart items in order.
var palette = []string{
	"#4CAF50", "#F44336", "#FFC107", "#2196F3", "#9C27B0",
	"#FF9800", "#795548", "#607D8B", "#E91E63", "#3F51B5",
	"#009688", "#8BC34A", "#FFEB3B", "#FF5722", "#673AB7",
}

func colorAt(i int) string { return palette[i%len(palette)] }

// BuildChart converts a classified source into chart items. Items with
// non-positive values are dropped; survivors are sorted, capped at MaxItems
// and colored. Pie charts carry percentages as their values. A source with
// nothing plottable yields an empty slice, not an error.
func BuildChart(src ChartSource, req ChartRequest) ([]ChartDatum, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.normalize()

	if req.Type == ChartLine {
		return buildLine(src), nil
	}

	items := extract(src)
	items = filterPositive(items)
	if len(items) == 0 {
		return nil, nil
	}
	sortItems(items, req.SortBy)
	if len(items) > req.MaxItems {
		items = items[:req.MaxItems]
	}

	var total float64
	for _, it := range items {
		total += it.value
	}

	out := make([]ChartDatum, 0, len(items))
	for i, it := range items {
		pct := 0
		if total > 0 {
			pct = int(math.Round(it.value * 100 / total))
		}
		d := it.datum
		d.Name = it.name
		d.Value = it.value
		d.Color = colorAt(i)
		if req.Type == ChartPie {
			d.Value = float64(pct)
		} else {
			d.Percentage = pct
		}
		out = append(out, d)
	}
	return out, nil
}

// chartItem is an extracted item before sorting and coloring. datum carries
// the source-specific optional fields.
type chartItem struct {
	name  string
	value float64
	datum ChartDatum
}

func extract(src ChartSource) []chartItem {
	switch src.Kind {
	case KindOpinions:
		return extractOpinions(src.Opinions)
	case KindSentiments:
		return extractSentiments(src.Sentiments)
	case KindSubreddits:
		return extractSubreddits(src.Subreddits)
	case KindSeries:
		return extractSeries(src.Series)
	case KindNumericMap:
		return extractSeries(src.Numeric)
	default:
		return nil
	}
}

func extractOpinions(ops []analysis.Opinion) []chartItem {
	out := make([]chartItem, 0, len(ops))
	for _, op := range ops {
		out = append(out, chartItem{
			name:  op.Opinion,
			value: float64(op.Count),
			datum: ChartDatum{
				FullName:   op.Opinion,
				Count:      op.Count,
				Confidence: op.Confidence,
				Examples:   op.Examples,
			},
		})
	}
	return out
}

func extractSentiments(s analysis.Sentiments) []chartItem {
	hasPercentages := s.Percentages.Positive != 0 || s.Percentages.Negative != 0 || s.Percentages.Neutral != 0
	value := func(pct, count int) float64 {
		if hasPercentages {
			return float64(pct)
		}
		return float64(count)
	}
	return []chartItem{
		{name: "Positive", value: value(s.Percentages.Positive, s.Positive), datum: ChartDatum{Count: s.Positive}},
		{name: "Negative", value: value(s.Percentages.Negative, s.Negative), datum: ChartDatum{Count: s.Negative}},
		{name: "Neutral", value: value(s.Percentages.Neutral, s.Neutral), datum: ChartDatum{Count: s.Neutral}},
	}
}

func extractSubreddits(subs map[string]analysis.SubredditView) []chartItem {
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]chartItem, 0, len(names))
	for _, name := range names {
		v := subs[name]
		out = append(out, chartItem{
			name:  "r/" + name,
			value: float64(v.Sentiments.Total),
			datum: ChartDatum{
				Positive: v.Sentiments.Positive,
				Negative: v.Sentiments.Negative,
				Neutral:  v.Sentiments.Neutral,
			},
		})
	}
	return out
}

func extractSeries(series []SeriesItem) []chartItem {
	out := make([]chartItem, 0, len(series))
	for i, it := range series {
		name := it.label()
		if name == "" {
			name = fmt.Sprintf("Item %d", i+1)
		}
		out = append(out, chartItem{name: name, value: it.amount(), datum: ChartDatum{Count: int(it.Count)}})
	}
	return out
}

func buildLine(src ChartSource) []ChartDatum {
	if src.Kind != KindTrends || len(src.Trends) == 0 {
		return nil
	}
	out := make([]ChartDatum, 0, len(src.Trends))
	for i, tp := range src.Trends {
		name := tp.Period
		if name == "" {
			name = fmt.Sprintf("Period %d", i+1)
		}
		v := tp.Value
		if v == 0 {
			v = tp.Count
		}
		out = append(out, ChartDatum{Name: name, Value: v, Color: colorAt(i)})
	}
	return out
}

func filterPositive(items []chartItem) []chartItem {
	var out []chartItem
	for _, it := range items {
		if it.value > 0 {
			out = append(out, it)
		}
	}
	return out
}

func sortItems(items []chartItem, by ChartSort) {
	switch by {
	case SortByName:
		sort.SliceStable(items, func(i, j int) bool { return items[i].name < items[j].name })
	default:
		// value and frequency both order by magnitude, descending
		sort.SliceStable(items, func(i, j int) bool { return items[i].value > items[j].value })
	}
}
