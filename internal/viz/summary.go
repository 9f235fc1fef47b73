package viz

import "github.com/mohammad-safakhou/redditdig/internal/analysis"

// SummaryChartData is the fixed pair of charts attached to a summarize
// response: a sentiment pie and an opinion frequency bar.
type SummaryChartData struct {
	SentimentPie []ChartDatum `json:"sentimentPie"`
	OpinionBar   []ChartDatum `json:"opinionBar"`
}

// SummaryCharts derives the summarize charts from an analysis. Zero-valued
// slices stay empty rather than carrying zero-count items.
func SummaryCharts(r analysis.Result) SummaryChartData {
	out := SummaryChartData{SentimentPie: []ChartDatum{}, OpinionBar: []ChartDatum{}}

	p := r.Sentiments.Percentages
	for i, s := range []struct {
		name string
		pct  int
	}{
		{"Positive", p.Positive},
		{"Negative", p.Negative},
		{"Neutral", p.Neutral},
	} {
		if s.pct > 0 {
			out.SentimentPie = append(out.SentimentPie, ChartDatum{Name: s.name, Value: float64(s.pct), Color: colorAt(i)})
		}
	}

	for i, op := range r.Opinions {
		if op.Count > 0 {
			out.OpinionBar = append(out.OpinionBar, ChartDatum{Name: op.Opinion, Value: float64(op.Count), Color: colorAt(i)})
		}
	}
	return out
}
