package analysis

import (
	"sort"
	"strings"
)

// Merge combines two partial results into one. It is a pure reduction:
// opinions and insights concatenate, sentiment counts add, subreddit views
// union with their counts added. Percentages are NOT recomputed here; call
// Finalize once after the last merge.
func Merge(a, b Result) Result {
	out := Result{
		Opinions:    append(append([]Opinion{}, a.Opinions...), b.Opinions...),
		KeyInsights: append(append([]string{}, a.KeyInsights...), b.KeyInsights...),
		Biases:      joinNonEmpty(a.Biases, b.Biases),
		Sentiments:  addSentiments(a.Sentiments, b.Sentiments),
	}

	out.SubredditAnalysis = make(map[string]SubredditView, len(a.SubredditAnalysis)+len(b.SubredditAnalysis))
	for k, v := range a.SubredditAnalysis {
		out.SubredditAnalysis[k] = v
	}
	for k, v := range b.SubredditAnalysis {
		if prev, ok := out.SubredditAnalysis[k]; ok {
			out.SubredditAnalysis[k] = SubredditView{
				Summary:          joinNonEmpty(prev.Summary, v.Summary),
				Sentiments:       addSentiments(prev.Sentiments, v.Sentiments),
				DominantOpinions: append(append([]DominantOpinion{}, prev.DominantOpinions...), v.DominantOpinions...),
			}
		} else {
			out.SubredditAnalysis[k] = v
		}
	}

	out.Metadata = Metadata{
		PostsAnalyzed: a.Metadata.PostsAnalyzed + b.Metadata.PostsAnalyzed,
		Subreddits:    unionStrings(a.Metadata.Subreddits, b.Metadata.Subreddits),
		TotalScore:    a.Metadata.TotalScore + b.Metadata.TotalScore,
		TotalComments: a.Metadata.TotalComments + b.Metadata.TotalComments,
		Batches:       a.Metadata.Batches + b.Metadata.Batches,
		Fallback:      a.Metadata.Fallback || b.Metadata.Fallback,
	}
	return out
}

// Finalize recomputes every derived percentage from the merged counts so that
// each block sums to exactly 100.
func Finalize(r Result) Result {
	r.Sentiments = finalizeSentiments(r.Sentiments)
	for k, v := range r.SubredditAnalysis {
		v.Sentiments = finalizeSentiments(v.Sentiments)
		r.SubredditAnalysis[k] = v
	}
	return r
}

func addSentiments(a, b Sentiments) Sentiments {
	return Sentiments{
		Positive: a.Positive + b.Positive,
		Negative: a.Negative + b.Negative,
		Neutral:  a.Neutral + b.Neutral,
		Total:    a.Total + b.Total,
	}
}

func finalizeSentiments(s Sentiments) Sentiments {
	s.Total = s.Positive + s.Negative + s.Neutral
	p := splitPercentages([]int{s.Positive, s.Negative, s.Neutral})
	s.Percentages = SentimentPercentages{Positive: p[0], Negative: p[1], Neutral: p[2]}
	return s
}

// splitPercentages converts counts to integer percentages that sum to exactly
// 100 (largest-remainder rounding). A zero total yields all zeros.
func splitPercentages(counts []int) []int {
	out := make([]int, len(counts))
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return out
	}

	type share struct {
		idx  int
		frac float64
	}
	shares := make([]share, len(counts))
	used := 0
	for i, c := range counts {
		exact := float64(c) * 100 / float64(total)
		out[i] = int(exact)
		used += out[i]
		shares[i] = share{idx: i, frac: exact - float64(out[i])}
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].frac > shares[j].frac })
	for i := 0; i < 100-used; i++ {
		out[shares[i%len(shares)].idx]++
	}
	return out
}

func joinNonEmpty(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
