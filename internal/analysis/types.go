package analysis

import "time"

// AnalysisType selects the prompt emphasis for an analysis run.
type AnalysisType string

const (
	TypeComprehensive AnalysisType = "comprehensive"
	TypeSentiment     AnalysisType = "sentiment"
	TypeOpinions      AnalysisType = "opinions"
	TypeCommunity     AnalysisType = "community"
	TypeTrends        AnalysisType = "trends"
)

// Normalize maps unknown analysis types to comprehensive.
func (t AnalysisType) Normalize() AnalysisType {
	switch t {
	case TypeComprehensive, TypeSentiment, TypeOpinions, TypeCommunity, TypeTrends:
		return t
	default:
		return TypeComprehensive
	}
}

// Opinion is one distinct viewpoint extracted from the data.
type Opinion struct {
	Opinion    string   `json:"opinion"`
	Count      int      `json:"count"`
	Examples   []string `json:"examples"`
	Confidence int      `json:"confidence"`
}

// SentimentPercentages are integer percentages that sum to exactly 100
// whenever the underlying total is non-zero.
type SentimentPercentages struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Sentiments holds emotional-tone counts plus derived percentages.
type Sentiments struct {
	Positive    int                  `json:"positive"`
	Negative    int                  `json:"negative"`
	Neutral     int                  `json:"neutral"`
	Total       int                  `json:"total"`
	Percentages SentimentPercentages `json:"percentages"`
}

// DominantOpinion is a community's prevailing viewpoint with its strength on
// a 1-5 scale.
type DominantOpinion struct {
	Opinion  string `json:"opinion"`
	Strength int    `json:"strength"`
}

// SubredditView is the per-community slice of an analysis.
type SubredditView struct {
	Summary          string            `json:"summary"`
	Sentiments       Sentiments        `json:"sentiments"`
	DominantOpinions []DominantOpinion `json:"dominantOpinions"`
}

// Metadata describes how an analysis was produced.
type Metadata struct {
	PostsAnalyzed int       `json:"postsAnalyzed"`
	Subreddits    []string  `json:"subredditsIncluded"`
	TotalScore    int       `json:"totalScore"`
	TotalComments int       `json:"totalComments"`
	AnalysisType  string    `json:"analysisType"`
	FocusArea     string    `json:"focusArea,omitempty"`
	Batches       int       `json:"batches"`
	Fallback      bool      `json:"fallback,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Result is a completed analysis over a set of enriched posts.
type Result struct {
	Opinions          []Opinion                `json:"opinions"`
	Sentiments        Sentiments               `json:"sentiments"`
	KeyInsights       []string                 `json:"keyInsights"`
	Biases            string                   `json:"biases"`
	SubredditAnalysis map[string]SubredditView `json:"subredditAnalysis"`
	Metadata          Metadata                 `json:"metadata"`
}
