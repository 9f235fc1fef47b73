package strategy

import (
	"reflect"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	s := SearchStrategy{Keywords: []string{" laptop ", "", "budget"}}.Normalize()
	if !reflect.DeepEqual(s.Keywords, []string{"laptop", "budget"}) {
		t.Fatalf("unexpected keywords: %v", s.Keywords)
	}
	if s.TimeFilter != TimeAll {
		t.Fatalf("expected default time filter, got %q", s.TimeFilter)
	}
	if s.SortBy != SortRelevance {
		t.Fatalf("expected default sort, got %q", s.SortBy)
	}
}

func TestNormalizeKeepsValidEnums(t *testing.T) {
	s := SearchStrategy{Keywords: []string{"x", "y"}, TimeFilter: TimeWeek, SortBy: SortTop}.Normalize()
	if s.TimeFilter != TimeWeek || s.SortBy != SortTop {
		t.Fatalf("valid enums must survive: %q %q", s.TimeFilter, s.SortBy)
	}
}

func TestNormalizeRejectsUnknownEnums(t *testing.T) {
	s := SearchStrategy{Keywords: []string{"x"}, TimeFilter: "fortnight", SortBy: "controversial"}.Normalize()
	if s.TimeFilter != TimeAll || s.SortBy != SortRelevance {
		t.Fatalf("unknown enums must reset to defaults: %q %q", s.TimeFilter, s.SortBy)
	}
}

func TestValidate(t *testing.T) {
	if err := (SearchStrategy{}).Validate(); err == nil {
		t.Fatal("empty strategy must not validate")
	}
	if err := (SearchStrategy{Keywords: []string{"laptop"}}).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestQuery(t *testing.T) {
	s := SearchStrategy{Keywords: []string{"best", "mechanical", "keyboard"}}
	if got := s.Query(); got != "best mechanical keyboard" {
		t.Fatalf("Query: %q", got)
	}
}

func TestCleanQuery(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`"mechanical keyboard" AND (cherry OR gateron)`, "mechanical keyboard cherry gateron"},
		{"title:laptop subreddit:laptops budget", "laptop laptops budget"},
		{"`quoted output`", "quoted output"},
		{"  spaced   out  ", "spaced out"},
		{"NOT a filter", "a filter"},
	}
	for _, c := range cases {
		if got := CleanQuery(c.in); got != c.want {
			t.Fatalf("CleanQuery(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNaiveKeywords(t *testing.T) {
	got := NaiveKeywords("What is the best budget laptop for programming?", 5)
	want := []string{"budget", "laptop", "programming"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NaiveKeywords = %v, want %v", got, want)
	}
}

func TestNaiveKeywordsDedupAndCap(t *testing.T) {
	got := NaiveKeywords("laptop laptop monitor monitor keyboard mouse desk", 3)
	want := []string{"laptop", "monitor", "keyboard"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NaiveKeywords = %v, want %v", got, want)
	}
}

func TestNaiveKeywordsZeroMax(t *testing.T) {
	got := NaiveKeywords("alpha beta gamma delta epsilon zeta eta", 0)
	if len(got) != 5 {
		t.Fatalf("expected default cap of 5, got %d: %v", len(got), got)
	}
}
