package viz

import (
	"encoding/json"
	"fmt"

	"github.com/mohammad-safakhou/redditdig/internal/analysis"
)

// PrepareType names the shape Prepare coerces a payload into.
type PrepareType string

const (
	PrepareSentiment PrepareType = "sentiment"
	PrepareOpinions  PrepareType = "opinions"
	PrepareSubreddit PrepareType = "subreddit"
	PrepareTrends    PrepareType = "trends"
)

// Prepare restructures loosely shaped analysis data into the envelope the
// chart builder classifies first, so a follow-up chart call cannot
// misclassify it. Unusable input yields an error describing what was missing.
func Prepare(raw json.RawMessage, dataType PrepareType) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no data to prepare")
	}

	out := map[string]interface{}{}
	switch dataType {
	case PrepareSentiment:
		src := ClassifySource(raw, "")
		if src.Kind != KindSentiments {
			return nil, fmt.Errorf("payload has no sentiment data")
		}
		s := src.Sentiments
		if s.Total == 0 {
			s.Total = s.Positive + s.Negative + s.Neutral
		}
		out["sentiments"] = s
	case PrepareOpinions:
		var ops []analysis.Opinion
		if err := json.Unmarshal(raw, &ops); err != nil {
			var env struct {
				Opinions []analysis.Opinion `json:"opinions"`
			}
			if err := json.Unmarshal(raw, &env); err != nil || len(env.Opinions) == 0 {
				return nil, fmt.Errorf("payload has no opinion data")
			}
			ops = env.Opinions
		}
		for i := range ops {
			if ops[i].Count == 0 {
				ops[i].Count = 1
			}
			if ops[i].Confidence == 0 {
				ops[i].Confidence = 3
			}
		}
		out["opinions"] = ops
	case PrepareSubreddit:
		var env struct {
			SubredditAnalysis map[string]analysis.SubredditView `json:"subredditAnalysis"`
		}
		if err := json.Unmarshal(raw, &env); err == nil && len(env.SubredditAnalysis) > 0 {
			out["subredditAnalysis"] = env.SubredditAnalysis
		} else {
			var subs map[string]analysis.SubredditView
			if err := json.Unmarshal(raw, &subs); err != nil || len(subs) == 0 {
				return nil, fmt.Errorf("payload has no subreddit data")
			}
			out["subredditAnalysis"] = subs
		}
	case PrepareTrends:
		var trends []TrendPoint
		if err := json.Unmarshal(raw, &trends); err != nil {
			var env struct {
				Trends []TrendPoint `json:"trends"`
			}
			if err := json.Unmarshal(raw, &env); err != nil || len(env.Trends) == 0 {
				return nil, fmt.Errorf("payload has no trend data")
			}
			trends = env.Trends
		}
		out["trends"] = trends
	default:
		return nil, fmt.Errorf("unsupported preparation type %q", dataType)
	}

	return json.Marshal(out)
}
