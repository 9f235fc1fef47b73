package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/redditdig/internal/agent"
	"github.com/mohammad-safakhou/redditdig/internal/analysis"
	"github.com/mohammad-safakhou/redditdig/internal/reddit"
	"github.com/mohammad-safakhou/redditdig/internal/strategy"
	"github.com/mohammad-safakhou/redditdig/models"
	"github.com/mohammad-safakhou/redditdig/provider"
)

type stubRunner struct {
	res   agent.RunResult
	calls int
}

func (s *stubRunner) Run(ctx context.Context, conv models.Conversation) agent.RunResult {
	s.calls++
	return s.res
}

type stubStrategist struct {
	strat strategy.SearchStrategy
}

func (s *stubStrategist) Derive(ctx context.Context, conv models.Conversation) strategy.SearchStrategy {
	return s.strat
}

type stubSearcher struct {
	posts []reddit.EnrichedPost
	err   error
	calls int
}

func (s *stubSearcher) Search(ctx context.Context, strat strategy.SearchStrategy, limit int) ([]reddit.EnrichedPost, error) {
	s.calls++
	return s.posts, s.err
}

type stubAnalyzer struct {
	result analysis.Result
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, posts []reddit.EnrichedPost, analysisType analysis.AnalysisType, focusArea string) (analysis.Result, error) {
	s.calls++
	return s.result, s.err
}

type synthLLM struct {
	text    string
	err     error
	prompts []string
}

func (s *synthLLM) Generate(ctx context.Context, prompt, model string, options map[string]interface{}) (string, error) {
	return s.text, s.err
}

func (s *synthLLM) GenerateWithTokens(ctx context.Context, prompt, model string, options map[string]interface{}) (string, int64, int64, error) {
	s.prompts = append(s.prompts, prompt)
	return s.text, 100, 50, s.err
}

func (s *synthLLM) GenerateObject(ctx context.Context, prompt, model string, schema provider.Schema, out interface{}) error {
	return fmt.Errorf("not implemented")
}

func (s *synthLLM) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	return 0
}

func serverPosts(n int) []reddit.EnrichedPost {
	posts := make([]reddit.EnrichedPost, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, reddit.EnrichedPost{
			Post: reddit.Post{
				ID:          fmt.Sprintf("p%d", i),
				Title:       fmt.Sprintf("Post %d", i),
				Subreddit:   "golang",
				Score:       10,
				NumComments: 3,
			},
			URL:         fmt.Sprintf("https://reddit.com/p%d", i),
			FullContent: "body text\n\nTop Comments:\n1. good point",
		})
	}
	return posts
}

func serverAnalysis() analysis.Result {
	return analysis.Result{
		Opinions: []analysis.Opinion{{Opinion: "works well", Count: 4, Confidence: 4}},
		Sentiments: analysis.Sentiments{
			Positive: 3, Negative: 1, Neutral: 1, Total: 5,
			Percentages: analysis.SentimentPercentages{Positive: 60, Negative: 20, Neutral: 20},
		},
		KeyInsights: []string{"insight one"},
	}
}

func newTestHandler() (*Handler, *stubRunner, *stubSearcher, *stubAnalyzer, *synthLLM) {
	runner := &stubRunner{res: agent.RunResult{ID: "run-1", Message: "final answer"}}
	searcher := &stubSearcher{posts: serverPosts(2)}
	analyzer := &stubAnalyzer{result: serverAnalysis()}
	llm := &synthLLM{text: "The community mostly agrees. [Source 1]"}
	h := &Handler{
		loop:       runner,
		strategist: &stubStrategist{strat: strategy.SearchStrategy{Keywords: []string{"best", "laptop"}}},
		fetcher:    searcher,
		engine:     analyzer,
		llm:        llm,
		synthModel: "gpt-test",
		timeout:    5 * time.Second,
		maxPosts:   5,
		logger:     log.New(io.Discard, "", 0),
	}
	return h, runner, searcher, analyzer, llm
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestChatReturnsLoopResult(t *testing.T) {
	e := echo.New()
	h, runner, _, _, _ := newTestHandler()

	ctx, rec := postJSON(e, "/chat", `{"messages":[{"role":"user","content":"what do people think of Go?"}]}`)
	if err := h.Chat(ctx); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if runner.calls != 1 {
		t.Fatalf("expected one loop run, got %d", runner.calls)
	}
	var res agent.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Message != "final answer" {
		t.Fatalf("unexpected message: %q", res.Message)
	}
}

func TestChatRejectsEmptyMessages(t *testing.T) {
	e := echo.New()
	h, runner, _, _, _ := newTestHandler()

	for _, body := range []string{`{}`, `{"messages":[]}`, `{"messages":[{"role":"user","content":"  "}]}`} {
		ctx, _ := postJSON(e, "/chat", body)
		err := h.Chat(ctx)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %v", body, err)
		}
	}
	if runner.calls != 0 {
		t.Fatalf("loop should not run on invalid input")
	}
}

func TestChatRejectsMalformedBody(t *testing.T) {
	e := echo.New()
	h, _, _, _, _ := newTestHandler()

	ctx, _ := postJSON(e, "/chat", `{"messages": "not an array"`)
	err := h.Chat(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestSummarizeHappyPath(t *testing.T) {
	e := echo.New()
	h, _, searcher, analyzer, llm := newTestHandler()

	ctx, rec := postJSON(e, "/summarize", `{"messages":[{"role":"user","content":"best budget laptop"}]}`)
	if err := h.Summarize(ctx); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if searcher.calls != 1 || analyzer.calls != 1 {
		t.Fatalf("expected one search and one analysis, got %d/%d", searcher.calls, analyzer.calls)
	}

	var resp summarizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Summary == "" {
		t.Fatal("expected a summary")
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(resp.Sources))
	}
	if len(resp.ChartData.SentimentPie) == 0 {
		t.Fatal("expected sentiment chart data")
	}
	if len(resp.ChartData.OpinionBar) == 0 {
		t.Fatal("expected opinion chart data")
	}

	if len(llm.prompts) != 1 {
		t.Fatalf("expected one synthesis call, got %d", len(llm.prompts))
	}
	prompt := llm.prompts[0]
	if !strings.Contains(prompt, "Source [1]") || !strings.Contains(prompt, "Source [2]") {
		t.Fatalf("prompt should number every source:\n%s", prompt)
	}
	if !strings.Contains(prompt, "r/golang") {
		t.Fatal("prompt should carry the subreddit")
	}
}

func TestSummarizeNoPostsIs404(t *testing.T) {
	e := echo.New()
	h, _, searcher, analyzer, _ := newTestHandler()
	searcher.posts = nil

	ctx, _ := postJSON(e, "/summarize", `{"messages":[{"role":"user","content":"obscure query"}]}`)
	err := h.Summarize(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
	if analyzer.calls != 0 {
		t.Fatal("analysis should not run without posts")
	}
}

func TestSummarizeRejectsEmptyMessages(t *testing.T) {
	e := echo.New()
	h, _, searcher, _, _ := newTestHandler()

	ctx, _ := postJSON(e, "/summarize", `{"messages":[]}`)
	err := h.Summarize(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if searcher.calls != 0 {
		t.Fatal("search should not run on invalid input")
	}
}

func TestSummarizeSearchTimeoutIs504(t *testing.T) {
	e := echo.New()
	h, _, searcher, _, _ := newTestHandler()
	searcher.posts = nil
	searcher.err = context.DeadlineExceeded

	ctx, _ := postJSON(e, "/summarize", `{"messages":[{"role":"user","content":"slow query"}]}`)
	err := h.Summarize(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %v", err)
	}
	if fmt.Sprint(he.Message) != timeoutAdvice {
		t.Fatalf("unexpected advice: %v", he.Message)
	}
}

func TestSummarizeSearchFailureIs500(t *testing.T) {
	e := echo.New()
	h, _, searcher, _, _ := newTestHandler()
	searcher.posts = nil
	searcher.err = fmt.Errorf("upstream unavailable")

	ctx, _ := postJSON(e, "/summarize", `{"messages":[{"role":"user","content":"query"}]}`)
	err := h.Summarize(ctx)
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*echo.HTTPError); ok {
		t.Fatalf("plain failures bubble to the error handler, got %v", err)
	}
}

func TestRoutesRegistered(t *testing.T) {
	h, _, _, _, _ := newTestHandler()
	e := newEcho(h, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"messages":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("chat via router: expected 400 got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != "no messages provided" {
		t.Fatalf("unexpected error body: %v", body)
	}
}
