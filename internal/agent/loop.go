package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/redditdig/config"
	"github.com/mohammad-safakhou/redditdig/internal/analysis"
	"github.com/mohammad-safakhou/redditdig/internal/reddit"
	"github.com/mohammad-safakhou/redditdig/internal/strategy"
	"github.com/mohammad-safakhou/redditdig/internal/telemetry"
	"github.com/mohammad-safakhou/redditdig/models"
	"github.com/mohammad-safakhou/redditdig/provider"
	"github.com/mohammad-safakhou/redditdig/utils"
)

// capMessage and timeoutMessage end a run that could not finish normally.
const (
	capMessage     = "I reached the step limit for this request before finishing. Please narrow your question or ask about one aspect at a time."
	timeoutMessage = "This request took too long to process. Please simplify your query and try again."
)

// ToolStep records one executed tool call.
type ToolStep struct {
	ID     string          `json:"id"`
	Tool   string          `json:"tool"`
	Args   json.RawMessage `json:"args,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// RunResult is the outcome of one conversational turn.
type RunResult struct {
	ID      string     `json:"id"`
	Steps   []ToolStep `json:"steps"`
	Message string     `json:"message"`
}

// Searcher retrieves enriched posts for a search strategy.
type Searcher interface {
	Search(ctx context.Context, strat strategy.SearchStrategy, limit int) ([]reddit.EnrichedPost, error)
}

// Analyzer extracts an analysis from enriched posts.
type Analyzer interface {
	Analyze(ctx context.Context, posts []reddit.EnrichedPost, analysisType analysis.AnalysisType, focusArea string) (analysis.Result, error)
}

// Loop drives the tool-calling conversation turn. Retrieved posts and the
// analysis live in loop state between steps rather than round-tripping
// through the model.
type Loop struct {
	cfg     config.AgentConfig
	llm     provider.Provider
	model   string
	fetcher Searcher
	engine  Analyzer
	tel     *telemetry.Telemetry
	logger  *log.Logger
}

// NewLoop creates an agent loop. tel may be nil.
func NewLoop(cfg config.AgentConfig, llm provider.Provider, model string, fetcher Searcher, engine Analyzer, tel *telemetry.Telemetry) *Loop {
	return &Loop{
		cfg:     cfg.Normalize(),
		llm:     llm,
		model:   model,
		fetcher: fetcher,
		engine:  engine,
		tel:     tel,
		logger:  log.New(log.Writer(), "[AGENT] ", log.LstdFlags),
	}
}

// loopState is the server-side memory of a single turn.
type loopState struct {
	posts    []reddit.EnrichedPost
	searches int
	analyses int
	result   *analysis.Result
	calls    map[string]struct{}
}

// decision is one step's model output: a tool call or the final answer.
type decision struct {
	Action  string          `json:"action"`
	Tool    string          `json:"tool"`
	Args    json.RawMessage `json:"args"`
	Message string          `json:"message"`
}

func decisionSchema() provider.Schema {
	return provider.ObjectSchema(map[string]interface{}{
		"action":  map[string]interface{}{"type": "string", "enum": []string{"tool", "final"}},
		"tool":    map[string]interface{}{"type": "string", "enum": append([]string{""}, toolNames...)},
		"args":    map[string]interface{}{"type": "object", "additionalProperties": true},
		"message": map[string]interface{}{"type": "string"},
	}, []string{"action", "tool", "args", "message"})
}

// Run executes one turn: the model decides step by step which tool to call
// until it produces a final answer or the step cap is hit. Run never returns
// an error; failure modes end in an explanatory message.
func (l *Loop) Run(ctx context.Context, conv models.Conversation) RunResult {
	id := uuid.New().String()
	state := &loopState{calls: make(map[string]struct{})}
	var steps []ToolStep

	l.logger.Printf("[%s] starting turn, step cap %d", id, l.cfg.MaxSteps)

	for step := 1; step <= l.cfg.MaxSteps; step++ {
		var d decision
		if err := l.llm.GenerateObject(ctx, l.decisionPrompt(conv, steps), l.model, decisionSchema(), &d); err != nil {
			if ctx.Err() != nil {
				return RunResult{ID: id, Steps: steps, Message: timeoutMessage}
			}
			l.logger.Printf("[%s] decision failed at step %d: %v", id, step, err)
			return RunResult{ID: id, Steps: steps, Message: "I ran into a problem deciding how to proceed. Please try rephrasing your question."}
		}

		if d.Action != "tool" || d.Tool == "" {
			msg := strings.TrimSpace(d.Message)
			if msg == "" {
				msg = "I could not produce an answer for this request."
			}
			l.logger.Printf("[%s] finished after %d tool calls", id, len(steps))
			return RunResult{ID: id, Steps: steps, Message: msg}
		}

		ts := l.execute(ctx, state, d.Tool, d.Args)
		steps = append(steps, ts)
		l.tel.RecordToolCall(ts.Tool, ts.Error == "")
		if ts.Error != "" {
			l.logger.Printf("[%s] step %d %s failed: %s", id, step, ts.Tool, ts.Error)
		} else {
			l.logger.Printf("[%s] step %d %s ok", id, step, ts.Tool)
		}

		if ctx.Err() != nil {
			return RunResult{ID: id, Steps: steps, Message: timeoutMessage}
		}
	}

	l.logger.Printf("[%s] step cap reached", id)
	return RunResult{ID: id, Steps: steps, Message: capMessage}
}

// execute dispatches a tool call through the workflow guards. Guard
// violations become tool errors the model can read and correct.
func (l *Loop) execute(ctx context.Context, state *loopState, tool string, args json.RawMessage) ToolStep {
	ts := ToolStep{ID: uuid.New().String(), Tool: tool, Args: args}

	key := tool + "|" + canonicalJSON(args)
	if _, dup := state.calls[key]; dup {
		ts.Error = fmt.Sprintf("identical %s call already made this turn; change the arguments or finish", tool)
		return ts
	}

	switch tool {
	case ToolSearchReddit:
		// always allowed
	case ToolAnalyze:
		if len(state.posts) == 0 {
			ts.Error = "no search results available; call searchReddit first"
			return ts
		}
		if state.analyses >= state.searches {
			ts.Error = "the current search results are already analyzed; search again before another analysis"
			return ts
		}
	case ToolPrepareViz, ToolGenerateChart, ToolFormatList:
		if state.result == nil {
			ts.Error = "no analysis available; call analyzeRedditData first"
			return ts
		}
	default:
		ts.Error = fmt.Sprintf("unknown tool %q", tool)
		return ts
	}

	var (
		result json.RawMessage
		err    error
	)
	switch tool {
	case ToolSearchReddit:
		result, err = l.runSearch(ctx, state, args)
	case ToolAnalyze:
		result, err = l.runAnalyze(ctx, state, args)
	case ToolPrepareViz:
		result, err = l.runPrepare(state, args)
	case ToolGenerateChart:
		result, err = l.runChart(state, args)
	case ToolFormatList:
		result, err = l.runList(state, args)
	}
	if err != nil {
		ts.Error = err.Error()
		return ts
	}
	// only successful calls count toward dedup, so a call rejected by a
	// guard can be retried once its precondition is met
	state.calls[key] = struct{}{}
	ts.Result = result
	return ts
}

const workflowRules = `You are RedditDig, an AI assistant specialized in Reddit research and analysis. You work in steps: each step you either call one tool or give your final answer.

Tools:
1. searchReddit - search Reddit for posts and discussions. Args: query (required), subreddits[], sortBy (relevance|hot|top|new), timeFilter (all|year|month|week|day), limit.
2. analyzeRedditData - analyze the posts found by the last search for sentiment, opinions and insights. Args: analysisType (comprehensive|sentiment|opinions|community|trends), focusArea.
3. prepareForVisualization - restructure analysis data for charting when generateChart rejects it. Args: dataType (sentiment|opinions|subreddit|trends), data.
4. generateChart - create chart data from the analysis. Args: chartType (pie|bar|line), title (required), dataField, maxItems, sortBy.
5. formatAsList - format the analysis or posts as a Markdown list. Args: listType (numbered|bullet|detailed|summary|ranking), category (opinions|subreddits|insights|posts|general), maxItems, includeDetails, sortBy.

Workflow:
1. Use searchReddit to find relevant posts.
2. Use analyzeRedditData ONCE on the results.
3. Use generateChart or formatAsList if visualization helps answer the question.
4. Finish with action "final" and a conversational message summarizing the findings.

Rules:
- NEVER call generateChart or formatAsList before analyzeRedditData.
- NEVER call the same tool with the same arguments twice.
- If generateChart fails due to data structure issues, use prepareForVisualization first.
- If a tool returns an error, adjust and continue or finish with what you have.
- The final message must explain the findings and insights in plain language.`

func (l *Loop) decisionPrompt(conv models.Conversation, steps []ToolStep) string {
	var b strings.Builder
	b.WriteString(workflowRules)
	b.WriteString("\n\nConversation:\n")
	b.WriteString(conv.Flatten())

	if len(steps) == 0 {
		b.WriteString("\n\nNo tools have been called yet.")
	} else {
		b.WriteString("\n\nTool calls so far:")
		for i, ts := range steps {
			fmt.Fprintf(&b, "\nStep %d: %s", i+1, ts.Tool)
			if len(ts.Args) > 0 {
				fmt.Fprintf(&b, " args=%s", utils.Truncate(string(ts.Args), 400))
			}
			if ts.Error != "" {
				fmt.Fprintf(&b, "\n  error: %s", ts.Error)
			} else {
				fmt.Fprintf(&b, "\n  result: %s", utils.Truncate(string(ts.Result), 1200))
			}
		}
	}

	b.WriteString("\n\nDecide the next action. Respond with action \"tool\" plus tool and args, or action \"final\" plus message (set unused fields to empty values).")
	return b.String()
}

// canonicalJSON normalizes a JSON document so semantically equal argument
// objects map to the same dedup key.
func canonicalJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return string(raw)
	}
	return string(b)
}
