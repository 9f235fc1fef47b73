package reddit

import (
	"math"
	"sort"
	"strings"
)

// RelevanceScore ranks a candidate post against the query terms: +3 per
// keyword present in the lowercased title, +5 when the post's subreddit is in
// the target set, -2 per excluded term in the title, plus a logarithmic
// engagement bonus so high-score outliers cannot dominate linearly.
func RelevanceScore(p Post, keywords, targetSubreddits, excludeTerms []string) float64 {
	title := strings.ToLower(p.Title)
	subreddit := strings.ToLower(p.Subreddit)

	var score float64
	for _, w := range keywords {
		w = strings.ToLower(w)
		if len(w) > 2 && strings.Contains(title, w) {
			score += 3
		}
	}
	for _, s := range targetSubreddits {
		if strings.ToLower(s) == subreddit {
			score += 5
			break
		}
	}
	for _, t := range excludeTerms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && strings.Contains(title, t) {
			score -= 2
		}
	}

	upvotes := p.Score
	if upvotes < 0 {
		upvotes = 0
	}
	comments := p.NumComments
	if comments < 0 {
		comments = 0
	}
	score += math.Log(float64(upvotes)+1)*0.5 + math.Log(float64(comments)+1)*0.3
	return score
}

type scoredPost struct {
	Post
	relevance float64
}

// rankPosts scores every candidate and stable-sorts descending so that ties
// keep their original discovery order.
func rankPosts(posts []Post, keywords, targetSubreddits, excludeTerms []string) []scoredPost {
	scored := make([]scoredPost, 0, len(posts))
	for _, p := range posts {
		scored = append(scored, scoredPost{Post: p, relevance: RelevanceScore(p, keywords, targetSubreddits, excludeTerms)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].relevance > scored[j].relevance })
	return scored
}
