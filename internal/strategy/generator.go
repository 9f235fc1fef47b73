package strategy

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/mohammad-safakhou/redditdig/config"
	"github.com/mohammad-safakhou/redditdig/models"
	"github.com/mohammad-safakhou/redditdig/provider"
)

// Generator turns a conversation into a SearchStrategy. Two modes exist:
// "simple" asks the model for a short keyword string and post-processes it,
// "structured" asks for a schema-constrained SearchStrategy directly. Both
// degrade to naive keyword extraction when the provider fails, so a turn is
// never aborted by strategy generation.
type Generator struct {
	cfg    config.StrategyConfig
	llm    provider.Provider
	model  string
	logger *log.Logger
}

// NewGenerator creates a strategy generator.
func NewGenerator(cfg config.StrategyConfig, llm provider.Provider, model string) *Generator {
	return &Generator{
		cfg:    cfg,
		llm:    llm,
		model:  model,
		logger: log.New(log.Writer(), "[STRATEGY] ", log.LstdFlags),
	}
}

// Derive produces the search strategy for one turn. It never fails: provider
// errors fall back to naive extraction from the raw conversation text.
func (g *Generator) Derive(ctx context.Context, conv models.Conversation) SearchStrategy {
	switch g.cfg.Mode {
	case "simple":
		return g.deriveSimple(ctx, conv)
	default:
		return g.deriveStructured(ctx, conv)
	}
}

func (g *Generator) deriveSimple(ctx context.Context, conv models.Conversation) SearchStrategy {
	query, err := g.SimpleQuery(ctx, conv)
	if err != nil {
		g.logger.Printf("simple query generation failed: %v, using naive keywords", err)
		query = strings.Join(NaiveKeywords(conv.LastUser(), g.cfg.MaxKeywords), " ")
	}
	return SearchStrategy{Keywords: strings.Fields(query)}.Normalize()
}

// SimpleQuery generates a plain keyword string for the conversation. The raw
// model output is cleaned of quoting, boolean operators and search-field
// prefixes; an output of fewer than two tokens falls back to naive extraction.
func (g *Generator) SimpleQuery(ctx context.Context, conv models.Conversation) (string, error) {
	prompt := `Based on the following conversation history, generate a simple Reddit search query using basic keywords.

Guidelines:
- Use simple keywords and phrases (no complex operators like AND, OR, NOT)
- Focus on the main topic the user is asking about
- Include relevant product names, brands, or specific terms
- Keep it simple - Reddit search works better with basic terms
- Maximum 10 words
- Output ONLY the search query string, nothing else

Conversation history:
` + conv.Flatten()

	raw, err := g.llm.Generate(ctx, prompt, g.model, map[string]interface{}{"temperature": 0.3})
	if err != nil {
		return "", err
	}
	cleaned := CleanQuery(raw)
	if len(strings.Fields(cleaned)) < 2 {
		cleaned = strings.Join(NaiveKeywords(conv.LastUser(), g.cfg.MaxKeywords), " ")
	}
	return cleaned, nil
}

func (g *Generator) deriveStructured(ctx context.Context, conv models.Conversation) SearchStrategy {
	prompt := `Derive a Reddit search strategy for the conversation below.

Rules:
- keywords: the essential search terms, most important first, no filler words
- subreddits: communities likely to discuss the topic (empty if unsure)
- exclude_terms: terms that would pull in unrelated results (often empty)
- time_filter: one of all, year, month, week, day
- sort_by: one of relevance, hot, top, new

Conversation:
` + conv.Flatten()

	var out struct {
		Keywords     []string `json:"keywords"`
		Subreddits   []string `json:"subreddits"`
		ExcludeTerms []string `json:"exclude_terms"`
		TimeFilter   string   `json:"time_filter"`
		SortBy       string   `json:"sort_by"`
	}
	schema := provider.ObjectSchema(map[string]interface{}{
		"keywords":      map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"subreddits":    map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"exclude_terms": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
		"time_filter":   map[string]interface{}{"type": "string", "enum": []string{"all", "year", "month", "week", "day"}},
		"sort_by":       map[string]interface{}{"type": "string", "enum": []string{"relevance", "hot", "top", "new"}},
	}, []string{"keywords", "subreddits", "exclude_terms", "time_filter", "sort_by"})

	if err := g.llm.GenerateObject(ctx, prompt, g.model, schema, &out); err != nil {
		g.logger.Printf("structured strategy generation failed: %v, using naive keywords", err)
		return SearchStrategy{Keywords: NaiveKeywords(conv.LastUser(), g.cfg.MaxKeywords)}.Normalize()
	}

	strat := SearchStrategy{
		Keywords:     out.Keywords,
		Subreddits:   out.Subreddits,
		ExcludeTerms: out.ExcludeTerms,
		TimeFilter:   TimeFilter(out.TimeFilter),
		SortBy:       SortBy(out.SortBy),
	}.Normalize()
	if strat.Validate() != nil {
		strat.Keywords = NaiveKeywords(conv.LastUser(), g.cfg.MaxKeywords)
	}
	return strat
}

var (
	boolOpRe      = regexp.MustCompile(`(?i)\b(AND|OR|NOT)\b`)
	fieldPrefixRe = regexp.MustCompile(`(?i)(title|subreddit|selftext|author|timestamp):`)
	spaceRe       = regexp.MustCompile(`\s+`)
	nonWordRe     = regexp.MustCompile(`[^\w\s]`)
)

// CleanQuery strips quoting, boolean operators, parentheses and search-field
// prefixes from a model-produced query string.
func CleanQuery(q string) string {
	q = strings.NewReplacer("`", "", `"`, "", "'", "", "(", "", ")", "").Replace(q)
	q = boolOpRe.ReplaceAllString(q, "")
	q = fieldPrefixRe.ReplaceAllString(q, "")
	q = spaceRe.ReplaceAllString(q, " ")
	return strings.TrimSpace(q)
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "can": {}, "had": {}, "has": {}, "was": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "with": {}, "this": {}, "that": {}, "from": {},
	"have": {}, "about": {}, "should": {}, "would": {}, "could": {}, "their": {},
	"there": {}, "best": {}, "user": {}, "assistant": {},
}

// NaiveKeywords extracts search keywords from raw text: lowercase, strip
// punctuation, drop stop words and tokens of two characters or fewer, cap at
// max tokens. Used whenever model-driven strategy generation is unavailable.
func NaiveKeywords(text string, max int) []string {
	if max <= 0 {
		max = 5
	}
	text = nonWordRe.ReplaceAllString(strings.ToLower(text), " ")
	var out []string
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) >= max {
			break
		}
	}
	return out
}
