package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/mohammad-safakhou/redditdig/config"
	"github.com/mohammad-safakhou/redditdig/models"
	"github.com/mohammad-safakhou/redditdig/provider"
)

type stubProvider struct {
	text      string
	object    interface{}
	err       error
	genCalls  int
	objCalls  int
	lastModel string
}

func (s *stubProvider) Generate(ctx context.Context, prompt, model string, options map[string]interface{}) (string, error) {
	s.genCalls++
	s.lastModel = model
	return s.text, s.err
}

func (s *stubProvider) GenerateWithTokens(ctx context.Context, prompt, model string, options map[string]interface{}) (string, int64, int64, error) {
	text, err := s.Generate(ctx, prompt, model, options)
	return text, 10, 10, err
}

func (s *stubProvider) GenerateObject(ctx context.Context, prompt, model string, schema provider.Schema, out interface{}) error {
	s.objCalls++
	s.lastModel = model
	if s.err != nil {
		return s.err
	}
	raw, err := json.Marshal(s.object)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *stubProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	return 0
}

func newTestGenerator(cfg config.StrategyConfig, llm provider.Provider) *Generator {
	g := NewGenerator(cfg, llm, "gpt-test")
	g.logger = log.New(io.Discard, "", 0)
	return g
}

func userConv(content string) models.Conversation {
	return models.Conversation{{Role: "user", Content: content}}
}

func TestDeriveStructured(t *testing.T) {
	llm := &stubProvider{object: map[string]interface{}{
		"keywords":      []string{"mechanical", "keyboard"},
		"subreddits":    []string{"MechanicalKeyboards"},
		"exclude_terms": []string{"membrane"},
		"time_filter":   "year",
		"sort_by":       "top",
	}}
	g := newTestGenerator(config.StrategyConfig{Mode: "structured", MaxKeywords: 5}, llm)

	s := g.Derive(context.Background(), userConv("what mechanical keyboard should I buy"))
	if s.Query() != "mechanical keyboard" {
		t.Fatalf("unexpected query: %q", s.Query())
	}
	if len(s.Subreddits) != 1 || s.Subreddits[0] != "MechanicalKeyboards" {
		t.Fatalf("unexpected subreddits: %v", s.Subreddits)
	}
	if s.TimeFilter != TimeYear || s.SortBy != SortTop {
		t.Fatalf("unexpected enums: %q %q", s.TimeFilter, s.SortBy)
	}
	if llm.objCalls != 1 {
		t.Fatalf("expected one object call, got %d", llm.objCalls)
	}
}

func TestDeriveStructuredFallsBackOnProviderError(t *testing.T) {
	llm := &stubProvider{err: fmt.Errorf("model unavailable")}
	g := newTestGenerator(config.StrategyConfig{Mode: "structured", MaxKeywords: 5}, llm)

	s := g.Derive(context.Background(), userConv("budget gaming laptop recommendations"))
	if err := s.Validate(); err != nil {
		t.Fatalf("fallback strategy must validate: %v", err)
	}
	if s.Query() == "" {
		t.Fatal("fallback strategy must carry keywords")
	}
}

func TestDeriveStructuredFallsBackOnEmptyKeywords(t *testing.T) {
	llm := &stubProvider{object: map[string]interface{}{
		"keywords":      []string{},
		"subreddits":    []string{},
		"exclude_terms": []string{},
		"time_filter":   "all",
		"sort_by":       "relevance",
	}}
	g := newTestGenerator(config.StrategyConfig{Mode: "structured", MaxKeywords: 5}, llm)

	s := g.Derive(context.Background(), userConv("standing desk opinions"))
	if err := s.Validate(); err != nil {
		t.Fatalf("strategy must recover keywords naively: %v", err)
	}
}

func TestDeriveFallbackUsesLastUserMessage(t *testing.T) {
	llm := &stubProvider{err: fmt.Errorf("model unavailable")}
	g := newTestGenerator(config.StrategyConfig{Mode: "structured", MaxKeywords: 5}, llm)

	conv := models.Conversation{
		{Role: "user", Content: "tell me about espresso machines"},
		{Role: "assistant", Content: "popular picks include breville and gaggia models"},
		{Role: "user", Content: "standing desk opinions"},
	}
	s := g.Derive(context.Background(), conv)
	for _, kw := range s.Keywords {
		switch kw {
		case "breville", "gaggia", "espresso", "machines":
			t.Fatalf("keyword %q leaked from an earlier turn", kw)
		}
	}
	if s.Query() != "standing desk opinions" {
		t.Fatalf("unexpected fallback query: %q", s.Query())
	}
}

func TestDeriveSimpleCleansModelOutput(t *testing.T) {
	llm := &stubProvider{text: `"mechanical keyboard" AND title:reviews`}
	g := newTestGenerator(config.StrategyConfig{Mode: "simple", MaxKeywords: 5}, llm)

	s := g.Derive(context.Background(), userConv("mechanical keyboard reviews"))
	if s.Query() != "mechanical keyboard reviews" {
		t.Fatalf("unexpected query: %q", s.Query())
	}
}

func TestSimpleQueryShortOutputFallsBack(t *testing.T) {
	llm := &stubProvider{text: "laptop"}
	g := newTestGenerator(config.StrategyConfig{Mode: "simple", MaxKeywords: 5}, llm)

	q, err := g.SimpleQuery(context.Background(), userConv("compare budget laptop brands"))
	if err != nil {
		t.Fatalf("SimpleQuery: %v", err)
	}
	if q == "laptop" {
		t.Fatal("single-token output must trigger naive extraction")
	}
}

func TestDeriveSimpleProviderErrorFallsBack(t *testing.T) {
	llm := &stubProvider{err: fmt.Errorf("model unavailable")}
	g := newTestGenerator(config.StrategyConfig{Mode: "simple", MaxKeywords: 5}, llm)

	s := g.Derive(context.Background(), userConv("wireless earbuds comparison"))
	if err := s.Validate(); err != nil {
		t.Fatalf("fallback strategy must validate: %v", err)
	}
}

func TestDeriveRoutesConfiguredModel(t *testing.T) {
	llm := &stubProvider{object: map[string]interface{}{
		"keywords":      []string{"coffee", "grinder"},
		"subreddits":    []string{},
		"exclude_terms": []string{},
		"time_filter":   "all",
		"sort_by":       "relevance",
	}}
	g := newTestGenerator(config.StrategyConfig{MaxKeywords: 5}, llm)

	g.Derive(context.Background(), userConv("coffee grinder"))
	if llm.lastModel != "gpt-test" {
		t.Fatalf("expected routed model, got %q", llm.lastModel)
	}
}
