package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/redditdig/internal/agent"
	"github.com/mohammad-safakhou/redditdig/internal/analysis"
	"github.com/mohammad-safakhou/redditdig/internal/reddit"
	"github.com/mohammad-safakhou/redditdig/internal/strategy"
	"github.com/mohammad-safakhou/redditdig/internal/telemetry"
	"github.com/mohammad-safakhou/redditdig/internal/viz"
	"github.com/mohammad-safakhou/redditdig/models"
	"github.com/mohammad-safakhou/redditdig/provider"
)

const timeoutAdvice = "The request took too long to process. Please simplify your query and try again."

// turnRunner runs one agent turn.
type turnRunner interface {
	Run(ctx context.Context, conv models.Conversation) agent.RunResult
}

// strategist derives a search strategy from a conversation.
type strategist interface {
	Derive(ctx context.Context, conv models.Conversation) strategy.SearchStrategy
}

// Handler carries the wired pipeline behind the HTTP routes.
type Handler struct {
	loop       turnRunner
	strategist strategist
	fetcher    agent.Searcher
	engine     agent.Analyzer
	llm        provider.Provider
	synthModel string
	tel        *telemetry.Telemetry
	timeout    time.Duration
	maxPosts   int
	logger     *log.Logger
}

type chatRequest struct {
	Messages models.Conversation `json:"messages"`
}

// Chat runs the tool-calling agent over the conversation and returns the
// final message with the executed tool steps.
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Messages.Empty() {
		return echo.NewHTTPError(http.StatusBadRequest, "no messages provided")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res := h.loop.Run(ctx, req.Messages)
	return c.JSON(http.StatusOK, res)
}

type summarizeResponse struct {
	Summary   string                `json:"summary"`
	Analysis  analysis.Result       `json:"analysis"`
	ChartData viz.SummaryChartData  `json:"chartData"`
	Sources   []reddit.EnrichedPost `json:"sources"`
}

// Summarize runs the fixed research pipeline: derive a strategy, fetch posts,
// write a cited summary, analyze, and attach chart data.
func (h *Handler) Summarize(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Messages.Empty() {
		return echo.NewHTTPError(http.StatusBadRequest, "no messages provided")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	strat := h.strategist.Derive(ctx, req.Messages)
	h.logger.Printf("summarize: strategy %q over %v", strat.Query(), strat.Subreddits)

	posts, err := h.fetcher.Search(ctx, strat, h.maxPosts)
	if err != nil {
		if timedOut(ctx, err) {
			return echo.NewHTTPError(http.StatusGatewayTimeout, timeoutAdvice)
		}
		return fmt.Errorf("reddit search failed: %w", err)
	}
	if len(posts) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "No Reddit data found for the query.")
	}

	summary, err := h.generateSummary(ctx, posts)
	if err != nil {
		if timedOut(ctx, err) {
			return echo.NewHTTPError(http.StatusGatewayTimeout, timeoutAdvice)
		}
		return fmt.Errorf("summary generation failed: %w", err)
	}

	result, err := h.engine.Analyze(ctx, posts, analysis.TypeComprehensive, "")
	if err != nil {
		if timedOut(ctx, err) {
			return echo.NewHTTPError(http.StatusGatewayTimeout, timeoutAdvice)
		}
		return fmt.Errorf("analysis failed: %w", err)
	}

	return c.JSON(http.StatusOK, summarizeResponse{
		Summary:   summary,
		Analysis:  result,
		ChartData: viz.SummaryCharts(result),
		Sources:   posts,
	})
}

func (h *Handler) generateSummary(ctx context.Context, posts []reddit.EnrichedPost) (string, error) {
	var blocks []string
	for i, p := range posts {
		blocks = append(blocks, fmt.Sprintf("Source [%d]:\nSubreddit: r/%s\nTitle: %s\nURL: %s\nContent and Top Comments:\n%s",
			i+1, p.Subreddit, p.Title, p.URL, p.FullContent))
	}

	prompt := `You are a Reddit research analyst. Based *only* on the provided Reddit posts, including their main content and top comments, generate a comprehensive and neutral summary.

Instructions:
1. Start with a direct, insightful summary paragraph that captures the main themes and sentiments.
2. Follow with a bulleted list of the most important specific points, findings, or opinions discussed.
3. You must cite your information using the format [Source X] at the end of each point.
4. The output must be strictly Markdown with properly formatted, clickable URLs.

Here is the research material:
` + strings.Join(blocks, "\n\n---\n\n") + `

Provide your detailed analysis now:`

	text, inTokens, outTokens, err := h.llm.GenerateWithTokens(ctx, prompt, h.synthModel, nil)
	if err != nil {
		return "", err
	}
	h.tel.RecordLLMUsage(h.synthModel, inTokens, outTokens, h.llm.CalculateCost(inTokens, outTokens, h.synthModel))
	return text, nil
}

func timedOut(ctx context.Context, err error) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
}
