package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/redditdig/internal/analysis"
	"github.com/mohammad-safakhou/redditdig/internal/strategy"
	"github.com/mohammad-safakhou/redditdig/internal/viz"
)

// Tool names exposed to the model.
const (
	ToolSearchReddit  = "searchReddit"
	ToolAnalyze       = "analyzeRedditData"
	ToolPrepareViz    = "prepareForVisualization"
	ToolGenerateChart = "generateChart"
	ToolFormatList    = "formatAsList"
)

var toolNames = []string{ToolSearchReddit, ToolAnalyze, ToolPrepareViz, ToolGenerateChart, ToolFormatList}

type searchArgs struct {
	Query      string   `json:"query"`
	Subreddits []string `json:"subreddits"`
	SortBy     string   `json:"sortBy"`
	TimeFilter string   `json:"timeFilter"`
	Limit      int      `json:"limit"`
}

type analyzeArgs struct {
	AnalysisType string `json:"analysisType"`
	FocusArea    string `json:"focusArea"`
}

type prepareArgs struct {
	Data     json.RawMessage `json:"data"`
	DataType string          `json:"dataType"`
}

type chartArgs struct {
	Data      json.RawMessage `json:"data"`
	ChartType string          `json:"chartType"`
	Title     string          `json:"title"`
	DataField string          `json:"dataField"`
	MaxItems  int             `json:"maxItems"`
	SortBy    string          `json:"sortBy"`
}

type listArgs struct {
	Data           json.RawMessage `json:"data"`
	ListType       string          `json:"listType"`
	Category       string          `json:"category"`
	MaxItems       int             `json:"maxItems"`
	IncludeDetails *bool           `json:"includeDetails"`
	SortBy         string          `json:"sortBy"`
}

func (l *Loop) runSearch(ctx context.Context, state *loopState, raw json.RawMessage) (json.RawMessage, error) {
	var args searchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid searchReddit arguments: %w", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return nil, fmt.Errorf("searchReddit requires a non-empty query")
	}
	limit := args.Limit
	if limit <= 0 || limit > l.cfg.MaxPostsPerSearch {
		limit = l.cfg.MaxPostsPerSearch
	}

	strat := strategy.SearchStrategy{
		Keywords:   strings.Fields(args.Query),
		Subreddits: args.Subreddits,
		SortBy:     strategy.SortBy(args.SortBy),
		TimeFilter: strategy.TimeFilter(args.TimeFilter),
	}.Normalize()

	posts, err := l.fetcher.Search(ctx, strat, limit)
	if err != nil {
		return nil, fmt.Errorf("reddit search failed: %w", err)
	}
	state.posts = posts
	state.searches++

	type postSummary struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Subreddit   string  `json:"subreddit"`
		Score       int     `json:"score"`
		NumComments int     `json:"num_comments"`
		Relevance   float64 `json:"relevance_score"`
		URL         string  `json:"url"`
	}
	summaries := make([]postSummary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, postSummary{
			ID: p.ID, Title: p.Title, Subreddit: p.Subreddit,
			Score: p.Score, NumComments: p.NumComments,
			Relevance: p.RelevanceScore, URL: p.URL,
		})
	}
	return json.Marshal(map[string]interface{}{
		"count": len(posts),
		"query": strat.Query(),
		"posts": summaries,
	})
}

func (l *Loop) runAnalyze(ctx context.Context, state *loopState, raw json.RawMessage) (json.RawMessage, error) {
	var args analyzeArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid analyzeRedditData arguments: %w", err)
		}
	}

	result, err := l.engine.Analyze(ctx, state.posts, analysis.AnalysisType(args.AnalysisType), args.FocusArea)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	state.result = &result
	state.analyses++
	return json.Marshal(result)
}

func (l *Loop) runPrepare(state *loopState, raw json.RawMessage) (json.RawMessage, error) {
	var args prepareArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid prepareForVisualization arguments: %w", err)
	}
	data := args.Data
	if len(data) == 0 {
		data, _ = json.Marshal(state.result)
	}
	prepared, err := viz.Prepare(data, viz.PrepareType(args.DataType))
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]json.RawMessage{"preparedData": prepared})
}

func (l *Loop) runChart(state *loopState, raw json.RawMessage) (json.RawMessage, error) {
	var args chartArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid generateChart arguments: %w", err)
	}
	if strings.TrimSpace(args.Title) == "" {
		return nil, fmt.Errorf("generateChart requires a title")
	}
	req := viz.ChartRequest{
		Type:      viz.ChartType(args.ChartType),
		Title:     args.Title,
		DataField: args.DataField,
		MaxItems:  args.MaxItems,
		SortBy:    viz.ChartSort(args.SortBy),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	data := args.Data
	if len(data) == 0 {
		data, _ = json.Marshal(state.result)
	}
	chartData, err := viz.BuildChart(viz.ClassifySource(data, args.DataField), req)
	if err != nil {
		return nil, err
	}
	if len(chartData) == 0 {
		return nil, fmt.Errorf("no suitable data available for %s chart generation (requires numeric data with positive values)", args.ChartType)
	}
	return json.Marshal(map[string]interface{}{
		"chartType": args.ChartType,
		"title":     args.Title,
		"chartData": chartData,
	})
}

func (l *Loop) runList(state *loopState, raw json.RawMessage) (json.RawMessage, error) {
	var args listArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid formatAsList arguments: %w", err)
		}
	}
	includeDetails := true
	if args.IncludeDetails != nil {
		includeDetails = *args.IncludeDetails
	}

	data := args.Data
	if len(data) == 0 {
		data, _ = json.Marshal(state.result)
	}
	out, err := viz.FormatList(data, viz.ListRequest{
		Layout:         viz.ListLayout(args.ListType),
		Category:       viz.ListCategory(args.Category),
		MaxItems:       args.MaxItems,
		IncludeDetails: includeDetails,
		SortBy:         viz.ListSort(args.SortBy),
	})
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, fmt.Errorf("no %s data available to format as a list", args.Category)
	}
	return json.Marshal(map[string]string{"formattedList": out})
}
