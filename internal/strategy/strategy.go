package strategy

import (
	"fmt"
	"strings"
)

// TimeFilter restricts a Reddit search to a time range.
type TimeFilter string

const (
	TimeAll   TimeFilter = "all"
	TimeYear  TimeFilter = "year"
	TimeMonth TimeFilter = "month"
	TimeWeek  TimeFilter = "week"
	TimeDay   TimeFilter = "day"
)

// SortBy selects the Reddit search result ordering.
type SortBy string

const (
	SortRelevance SortBy = "relevance"
	SortHot       SortBy = "hot"
	SortTop       SortBy = "top"
	SortNew       SortBy = "new"
)

// SearchStrategy is the derived search plan for one conversational turn.
// It is produced once per turn and never mutated afterwards.
type SearchStrategy struct {
	Keywords     []string   `json:"keywords"`
	Subreddits   []string   `json:"subreddits"`
	ExcludeTerms []string   `json:"exclude_terms"`
	TimeFilter   TimeFilter `json:"time_filter"`
	SortBy       SortBy     `json:"sort_by"`
}

// Query returns the keywords joined into a single search string.
func (s SearchStrategy) Query() string { return strings.Join(s.Keywords, " ") }

// Normalize fills enum defaults and drops blank keyword entries.
func (s SearchStrategy) Normalize() SearchStrategy {
	var kept []string
	for _, k := range s.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kept = append(kept, k)
		}
	}
	s.Keywords = kept
	switch s.TimeFilter {
	case TimeAll, TimeYear, TimeMonth, TimeWeek, TimeDay:
	default:
		s.TimeFilter = TimeAll
	}
	switch s.SortBy {
	case SortRelevance, SortHot, SortTop, SortNew:
	default:
		s.SortBy = SortRelevance
	}
	return s
}

// Validate reports whether the strategy can drive a search.
func (s SearchStrategy) Validate() error {
	if len(s.Keywords) == 0 {
		return fmt.Errorf("strategy has no keywords")
	}
	return nil
}
