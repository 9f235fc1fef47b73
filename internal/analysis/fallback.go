package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/redditdig/internal/reddit"
)

// Fallback builds a synthetic Result when schema-constrained analysis fails.
// It encodes what is known without a model: post and community counts,
// engagement totals, and a neutral-leaning 40/30/30 sentiment split. The
// Fallback flag in metadata marks the result as degraded.
func Fallback(posts []reddit.EnrichedPost, analysisType AnalysisType, focusArea string) Result {
	subreddits := subredditsOf(posts)
	totalScore, totalComments := engagementTotals(posts)

	n := len(posts)
	positive := n * 40 / 100
	negative := n * 30 / 100
	neutral := n - positive - negative

	firstExample := "Analysis constraints prevented detailed opinion extraction"
	if n > 0 {
		firstExample = posts[0].Title
	}

	communities := strings.Join(headStrings(subreddits, 3), ", ")
	if len(subreddits) > 3 {
		communities += " and others"
	}

	sub := make(map[string]SubredditView, 3)
	for _, s := range headStrings(subreddits, 3) {
		sub[s] = SubredditView{
			Summary: fmt.Sprintf("Community r/%s contributed to the discussion but detailed analysis was limited", s),
			Sentiments: Sentiments{
				Positive: 1, Neutral: 1, Total: 2,
				Percentages: SentimentPercentages{Positive: 50, Neutral: 50},
			},
			DominantOpinions: []DominantOpinion{
				{Opinion: "Processing constraints prevented detailed opinion extraction", Strength: 2},
			},
		}
	}

	return Result{
		Opinions: []Opinion{{
			Opinion:    "Analysis limited due to processing constraints, multiple perspectives were shared",
			Count:      n,
			Examples:   []string{firstExample},
			Confidence: 2,
		}},
		Sentiments: Sentiments{
			Positive: positive, Negative: negative, Neutral: neutral, Total: n,
			Percentages: SentimentPercentages{Positive: 40, Negative: 30, Neutral: 30},
		},
		KeyInsights: []string{
			fmt.Sprintf("Analyzed %d posts from %d communities", n, len(subreddits)),
			fmt.Sprintf("Total engagement: %d points and %d comments", totalScore, totalComments),
			"Communities involved: " + communities,
			"Detailed analysis was limited; consider a more specific query for better insights",
		},
		Biases: fmt.Sprintf("Analysis was limited due to processing constraints. The %d posts came from %d different communities, which may represent different demographic perspectives.", n, len(subreddits)),
		SubredditAnalysis: sub,
		Metadata: Metadata{
			PostsAnalyzed: n,
			Subreddits:    subreddits,
			TotalScore:    totalScore,
			TotalComments: totalComments,
			AnalysisType:  string(analysisType),
			FocusArea:     focusArea,
			Fallback:      true,
			Timestamp:     time.Now().UTC(),
		},
	}
}

// subredditsOf lists unique subreddits in first-seen order.
func subredditsOf(posts []reddit.EnrichedPost) []string {
	seen := make(map[string]struct{}, len(posts))
	var out []string
	for _, p := range posts {
		if _, ok := seen[p.Subreddit]; ok {
			continue
		}
		seen[p.Subreddit] = struct{}{}
		out = append(out, p.Subreddit)
	}
	return out
}

func engagementTotals(posts []reddit.EnrichedPost) (score, comments int) {
	for _, p := range posts {
		score += p.Score
		comments += p.NumComments
	}
	return score, comments
}

func headStrings(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
