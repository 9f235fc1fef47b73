package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/redditdig/config"
	"github.com/mohammad-safakhou/redditdig/internal/reddit"
	"github.com/mohammad-safakhou/redditdig/provider"
)

// Engine extracts opinions, sentiments, insights and per-community views from
// enriched Reddit posts. Large inputs are processed in batches and the batch
// results merged; a failed batch degrades the whole run to the synthetic
// fallback rather than surfacing an error.
type Engine struct {
	cfg    config.AnalysisConfig
	llm    provider.Provider
	model  string
	logger *log.Logger
}

// NewEngine creates an analysis engine using the routed analysis model.
func NewEngine(cfg config.AnalysisConfig, llm provider.Provider, model string) *Engine {
	return &Engine{
		cfg:    cfg.Normalize(),
		llm:    llm,
		model:  model,
		logger: log.New(log.Writer(), "[ANALYSIS] ", log.LstdFlags),
	}
}

// Analyze runs the requested analysis over posts. Only an empty input is an
// error; model failures produce the fallback result instead.
func (e *Engine) Analyze(ctx context.Context, posts []reddit.EnrichedPost, analysisType AnalysisType, focusArea string) (Result, error) {
	if len(posts) == 0 {
		return Result{}, fmt.Errorf("no posts to analyze")
	}
	analysisType = analysisType.Normalize()

	batches := chunk(posts, e.cfg.BatchSize)
	e.logger.Printf("starting %s analysis of %d posts in %d batches", analysisType, len(posts), len(batches))

	var merged Result
	for i, batch := range batches {
		partial, err := e.analyzeBatch(ctx, batch, analysisType, focusArea)
		if err != nil {
			e.logger.Printf("batch %d/%d failed, degrading to fallback: %v", i+1, len(batches), err)
			return Fallback(posts, analysisType, focusArea), nil
		}
		if i == 0 {
			merged = partial
		} else {
			merged = Merge(merged, partial)
		}
	}

	merged = Finalize(merged)
	subreddits := subredditsOf(posts)
	totalScore, totalComments := engagementTotals(posts)
	merged.Metadata = Metadata{
		PostsAnalyzed: len(posts),
		Subreddits:    subreddits,
		TotalScore:    totalScore,
		TotalComments: totalComments,
		AnalysisType:  string(analysisType),
		FocusArea:     focusArea,
		Batches:       len(batches),
		Timestamp:     time.Now().UTC(),
	}
	e.logger.Printf("analysis complete: %d opinions, %d sentiment items", len(merged.Opinions), merged.Sentiments.Total)
	return merged, nil
}

func (e *Engine) analyzeBatch(ctx context.Context, posts []reddit.EnrichedPost, analysisType AnalysisType, focusArea string) (Result, error) {
	prompt := e.buildPrompt(posts, analysisType, focusArea)
	e.logger.Printf("batch of %d posts, prompt ~%d tokens", len(posts), EstimateTokens(prompt))
	var out Result
	if err := e.llm.GenerateObject(ctx, prompt, e.model, resultSchema(), &out); err != nil {
		return Result{}, err
	}
	return out, nil
}

// contextCharBudget converts the configured token budget into a character cap
// for the batch corpus. MaxContextChars remains a hard upper bound.
func (e *Engine) contextCharBudget() int {
	budget := e.cfg.MaxContextChars
	if c := EstimateCharBudget(e.cfg.MaxContextTokens); c > 0 && c < budget {
		budget = c
	}
	return budget
}

func (e *Engine) buildPrompt(posts []reddit.EnrichedPost, analysisType AnalysisType, focusArea string) string {
	var parts []string
	for i, p := range posts {
		parts = append(parts, fmt.Sprintf("Post %d:\nSubreddit: r/%s\nTitle: %s\nAuthor: u/%s\nScore: %d points, %d comments\n%s\n---",
			i+1, p.Subreddit, p.Title, p.Author, p.Score, p.NumComments, p.FullContent))
	}
	corpus := strings.Join(parts, "\n\n")
	if budget := e.contextCharBudget(); len(corpus) > budget {
		corpus = corpus[:budget] + "\n\n[Content truncated for analysis efficiency]"
	}

	var b strings.Builder
	b.WriteString("Analyze this Reddit data comprehensively. Extract meaningful insights, opinions, and patterns.\n\n")
	b.WriteString(corpus)
	b.WriteString(`

Instructions:
1. OPINIONS: Identify distinct, meaningful viewpoints and recommendations. Focus on actionable insights and clear positions people take.
2. SENTIMENT: Accurately count emotional tones. Positive means happy, satisfied or recommending; negative means frustrated, disappointed or warning; neutral means informational or factual.
3. KEY INSIGHTS: Extract the most important takeaways and patterns.
4. BIASES: Identify echo chambers, demographic skews, or community-specific biases.
5. SUBREDDIT ANALYSIS: Analyze how different communities approach the topic differently.
`)
	if focusArea != "" {
		fmt.Fprintf(&b, "\nFOCUS AREA: Pay special attention to insights related to %q.\n", focusArea)
	}
	b.WriteString("\nBe specific, cite examples, and ensure opinions are substantial and distinct.")

	switch analysisType {
	case TypeSentiment:
		b.WriteString("\n\nFocus primarily on sentiment analysis and emotional patterns.")
	case TypeOpinions:
		b.WriteString("\n\nFocus primarily on extracting distinct opinions and viewpoints.")
	case TypeCommunity:
		b.WriteString("\n\nFocus primarily on community-specific perspectives and differences between subreddits.")
	case TypeTrends:
		b.WriteString("\n\nFocus on identifying trends, patterns, and emerging themes in the discussions.")
	}
	return b.String()
}

func resultSchema() provider.Schema {
	sentiments := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"positive": map[string]interface{}{"type": "integer"},
			"negative": map[string]interface{}{"type": "integer"},
			"neutral":  map[string]interface{}{"type": "integer"},
			"total":    map[string]interface{}{"type": "integer"},
			"percentages": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"positive": map[string]interface{}{"type": "integer"},
					"negative": map[string]interface{}{"type": "integer"},
					"neutral":  map[string]interface{}{"type": "integer"},
				},
				"required":             []string{"positive", "negative", "neutral"},
				"additionalProperties": false,
			},
		},
		"required":             []string{"positive", "negative", "neutral", "total", "percentages"},
		"additionalProperties": false,
	}

	return provider.ObjectSchema(map[string]interface{}{
		"opinions": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"opinion":    map[string]interface{}{"type": "string"},
					"count":      map[string]interface{}{"type": "integer"},
					"examples":   map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"confidence": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 5},
				},
				"required":             []string{"opinion", "count", "examples", "confidence"},
				"additionalProperties": false,
			},
		},
		"sentiments":  sentiments,
		"keyInsights": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"biases":      map[string]interface{}{"type": "string"},
		"subredditAnalysis": map[string]interface{}{
			"type": "object",
			"additionalProperties": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"summary":    map[string]interface{}{"type": "string"},
					"sentiments": sentiments,
					"dominantOpinions": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"opinion":  map[string]interface{}{"type": "string"},
								"strength": map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 5},
							},
							"required":             []string{"opinion", "strength"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []string{"summary", "sentiments", "dominantOpinions"},
				"additionalProperties": false,
			},
		},
	}, []string{"opinions", "sentiments", "keyInsights", "biases", "subredditAnalysis"})
}

func chunk(posts []reddit.EnrichedPost, size int) [][]reddit.EnrichedPost {
	if size <= 0 {
		size = len(posts)
	}
	var out [][]reddit.EnrichedPost
	for start := 0; start < len(posts); start += size {
		end := start + size
		if end > len(posts) {
			end = len(posts)
		}
		out = append(out, posts[start:end])
	}
	return out
}
