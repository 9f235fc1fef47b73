package reddit

import (
	"testing"
)

func TestRelevanceScoreKeywordAndSubredditBonus(t *testing.T) {
	base := Post{ID: "a", Title: "something else entirely", Subreddit: "random"}
	titled := Post{ID: "b", Title: "best mechanical keyboard thread", Subreddit: "random"}
	homed := Post{ID: "c", Title: "best mechanical keyboard thread", Subreddit: "MechanicalKeyboards"}

	keywords := []string{"mechanical", "keyboard"}
	targets := []string{"mechanicalkeyboards"}

	s0 := RelevanceScore(base, keywords, targets, nil)
	s1 := RelevanceScore(titled, keywords, targets, nil)
	s2 := RelevanceScore(homed, keywords, targets, nil)

	if s1 <= s0 {
		t.Fatalf("keyword hits should raise the score: %v <= %v", s1, s0)
	}
	if s2 != s1+5 {
		t.Fatalf("subreddit match should add exactly 5: got %v, want %v", s2, s1+5)
	}
}

func TestRelevanceScoreExcludeTermPenalty(t *testing.T) {
	p := Post{ID: "a", Title: "best budget laptop for students", Subreddit: "laptops"}
	clean := RelevanceScore(p, []string{"laptop"}, nil, nil)
	penalized := RelevanceScore(p, []string{"laptop"}, nil, []string{"budget"})
	if penalized != clean-2 {
		t.Fatalf("exclude term should subtract exactly 2: got %v, want %v", penalized, clean-2)
	}
}

func TestRelevanceScoreShortKeywordsIgnored(t *testing.T) {
	p := Post{ID: "a", Title: "go is a language", Subreddit: "golang"}
	with := RelevanceScore(p, []string{"go"}, nil, nil)
	without := RelevanceScore(p, nil, nil, nil)
	if with != without {
		t.Fatalf("keywords of length <= 2 must not score: %v != %v", with, without)
	}
}

func TestRelevanceScoreNegativeEngagementClamped(t *testing.T) {
	p := Post{ID: "a", Title: "downvoted into oblivion", Subreddit: "unpopular", Score: -40, NumComments: -1}
	got := RelevanceScore(p, nil, nil, nil)
	if got != 0 {
		t.Fatalf("negative engagement should contribute nothing, got %v", got)
	}
}

func TestRankPostsStableOnTies(t *testing.T) {
	posts := []Post{
		{ID: "first", Title: "same title", Subreddit: "a"},
		{ID: "second", Title: "same title", Subreddit: "b"},
		{ID: "third", Title: "same title", Subreddit: "c"},
	}
	ranked := rankPosts(posts, nil, nil, nil)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked posts, got %d", len(ranked))
	}
	for i, want := range []string{"first", "second", "third"} {
		if ranked[i].ID != want {
			t.Fatalf("tie order changed at %d: got %s, want %s", i, ranked[i].ID, want)
		}
	}
}

func TestRankPostsDescending(t *testing.T) {
	posts := []Post{
		{ID: "low", Title: "unrelated", Subreddit: "a"},
		{ID: "high", Title: "rust borrow checker explained", Subreddit: "rust"},
	}
	ranked := rankPosts(posts, []string{"rust", "borrow"}, []string{"rust"}, nil)
	if ranked[0].ID != "high" {
		t.Fatalf("expected high-relevance post first, got %s", ranked[0].ID)
	}
}
