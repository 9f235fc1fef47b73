package viz

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mohammad-safakhou/redditdig/internal/analysis"
	"github.com/mohammad-safakhou/redditdig/utils"
)

// ListLayout selects the output formatting of a list.
type ListLayout string

const (
	ListNumbered ListLayout = "numbered"
	ListBullet   ListLayout = "bullet"
	ListDetailed ListLayout = "detailed"
	ListSummary  ListLayout = "summary"
	ListRanking  ListLayout = "ranking"
)

// ListCategory tells the formatter which part of the payload to list.
type ListCategory string

const (
	CategoryOpinions   ListCategory = "opinions"
	CategorySubreddits ListCategory = "subreddits"
	CategoryInsights   ListCategory = "insights"
	CategoryPosts      ListCategory = "posts"
	CategoryGeneral    ListCategory = "general"
)

// ListSort orders list items.
type ListSort string

const (
	ListByRelevance    ListSort = "relevance"
	ListByScore        ListSort = "score"
	ListByCount        ListSort = "count"
	ListByAlphabetical ListSort = "alphabetical"
)

// ListRequest describes the list to format from a payload.
type ListRequest struct {
	Layout         ListLayout   `json:"listType"`
	Category       ListCategory `json:"category"`
	MaxItems       int          `json:"maxItems,omitempty"`
	IncludeDetails bool         `json:"includeDetails"`
	SortBy         ListSort     `json:"sortBy,omitempty"`
}

func (r ListRequest) normalize() ListRequest {
	switch r.Layout {
	case ListNumbered, ListBullet, ListDetailed, ListSummary, ListRanking:
	default:
		r.Layout = ListSummary
	}
	switch r.Category {
	case CategoryOpinions, CategorySubreddits, CategoryInsights, CategoryPosts, CategoryGeneral:
	default:
		r.Category = CategoryGeneral
	}
	if r.MaxItems < 1 || r.MaxItems > 50 {
		r.MaxItems = 10
	}
	switch r.SortBy {
	case ListByRelevance, ListByScore, ListByCount, ListByAlphabetical:
	default:
		r.SortBy = ListByRelevance
	}
	return r
}

// listItem is one extracted row with its per-layout renderings precomputed.
type listItem struct {
	title     string
	summary   string
	rank      string
	details   []string
	detailed  string
	sortScore float64
	sortCount float64
}

// listPost is the post shape the formatter understands, matching both raw
// search records and enriched sources.
type listPost struct {
	Title       string `json:"title"`
	Subreddit   string `json:"subreddit"`
	Author      string `json:"author"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	Selftext    string `json:"selftext"`
}

// FormatList renders a payload as a Markdown list. A payload with nothing to
// list for the requested category yields an empty string, not an error.
func FormatList(raw json.RawMessage, req ListRequest) (string, error) {
	req = req.normalize()

	items, title := extractListItems(raw, req.Category)
	if len(items) == 0 {
		return "", nil
	}

	sortListItems(items, req.SortBy)
	if len(items) > req.MaxItems {
		items = items[:req.MaxItems]
	}

	var lines []string
	sep := "\n\n"
	switch req.Layout {
	case ListNumbered:
		for i, it := range items {
			lines = append(lines, renderWithDetails(fmt.Sprintf("%d. **%s**", i+1, it.title), it, req.IncludeDetails))
		}
	case ListBullet:
		for _, it := range items {
			lines = append(lines, renderWithDetails(fmt.Sprintf("- **%s**", it.title), it, req.IncludeDetails))
		}
	case ListDetailed:
		for i, it := range items {
			body := it.detailed
			if body == "" {
				body = it.summary
			}
			lines = append(lines, fmt.Sprintf("### %d. %s\n%s", i+1, it.title, body))
		}
		sep = "\n\n---\n\n"
	case ListSummary:
		for i, it := range items {
			lines = append(lines, fmt.Sprintf("%d. **%s** - %s", i+1, it.title, it.summary))
		}
		sep = "\n"
	case ListRanking:
		for i, it := range items {
			line := fmt.Sprintf("**#%d** %s", i+1, it.title)
			if it.rank != "" {
				line += " (" + it.rank + ")"
			}
			lines = append(lines, line)
		}
		sep = "\n"
	}

	return "# " + title + "\n\n" + strings.Join(lines, sep), nil
}

func renderWithDetails(head string, it listItem, includeDetails bool) string {
	if !includeDetails || len(it.details) == 0 {
		return head
	}
	return head + "\n   - " + strings.Join(it.details, "\n   - ")
}

func extractListItems(raw json.RawMessage, category ListCategory) ([]listItem, string) {
	switch category {
	case CategoryOpinions:
		var env struct {
			Opinions []analysis.Opinion `json:"opinions"`
		}
		if json.Unmarshal(raw, &env) != nil {
			return nil, ""
		}
		return opinionItems(env.Opinions), "Key Opinions and Viewpoints"
	case CategorySubreddits:
		var env struct {
			SubredditAnalysis map[string]analysis.SubredditView `json:"subredditAnalysis"`
		}
		if json.Unmarshal(raw, &env) != nil {
			return nil, ""
		}
		return subredditItems(env.SubredditAnalysis), "Community Analysis by Subreddit"
	case CategoryInsights:
		var env struct {
			KeyInsights []string `json:"keyInsights"`
		}
		if json.Unmarshal(raw, &env) != nil {
			return nil, ""
		}
		return insightItems(env.KeyInsights), "Key Insights and Findings"
	case CategoryPosts:
		return postItems(raw), "Reddit Posts Summary"
	}
	return genericItems(raw), "Data Summary"
}

func opinionItems(ops []analysis.Opinion) []listItem {
	out := make([]listItem, 0, len(ops))
	for _, op := range ops {
		it := listItem{
			title:     op.Opinion,
			summary:   fmt.Sprintf("Mentioned %d times", op.Count),
			sortCount: float64(op.Count),
		}
		if op.Count > 0 {
			it.rank = fmt.Sprintf("%d mentions", op.Count)
		}
		detail := fmt.Sprintf("Mentioned %d times", op.Count)
		if op.Confidence > 0 {
			detail += fmt.Sprintf(" (Confidence: %d/5)", op.Confidence)
		}
		it.details = append(it.details, detail)
		if len(op.Examples) > 0 {
			ex := fmt.Sprintf("Examples: %q", op.Examples[0])
			if len(op.Examples) > 1 {
				ex += fmt.Sprintf(" and %d more", len(op.Examples)-1)
			}
			it.details = append(it.details, ex)
		}

		var d strings.Builder
		fmt.Fprintf(&d, "**Frequency:** %d mentions\n", op.Count)
		if op.Confidence > 0 {
			fmt.Fprintf(&d, "**Confidence:** %d/5\n", op.Confidence)
		}
		if len(op.Examples) > 0 {
			d.WriteString("**Examples:**\n")
			for i, ex := range op.Examples {
				if i == 3 {
					fmt.Fprintf(&d, "- ...and %d more examples", len(op.Examples)-3)
					break
				}
				fmt.Fprintf(&d, "- %q\n", ex)
			}
		}
		it.detailed = strings.TrimRight(d.String(), "\n")
		out = append(out, it)
	}
	return out
}

func subredditItems(subs map[string]analysis.SubredditView) []listItem {
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]listItem, 0, len(names))
	for _, name := range names {
		v := subs[name]
		s := v.Sentiments
		it := listItem{
			title:     "r/" + name,
			summary:   v.Summary,
			sortCount: float64(s.Total),
		}
		if it.summary == "" {
			it.summary = "Community analysis"
		}
		if s.Total > 0 {
			it.rank = fmt.Sprintf("%d posts", s.Total)
		}
		it.details = append(it.details,
			it.summary,
			fmt.Sprintf("Activity: %d posts (%d positive, %d negative)", s.Total, s.Positive, s.Negative),
		)
		var d strings.Builder
		fmt.Fprintf(&d, "**Summary:** %s\n", it.summary)
		fmt.Fprintf(&d, "**Activity:** %d total posts\n", s.Total)
		d.WriteString("**Sentiment Breakdown:**\n")
		fmt.Fprintf(&d, "- Positive: %d posts\n", s.Positive)
		fmt.Fprintf(&d, "- Negative: %d posts\n", s.Negative)
		fmt.Fprintf(&d, "- Neutral: %d posts", s.Total-s.Positive-s.Negative)
		it.detailed = d.String()
		out = append(out, it)
	}
	return out
}

func insightItems(insights []string) []listItem {
	out := make([]listItem, 0, len(insights))
	for i, ins := range insights {
		out = append(out, listItem{
			title:    ins,
			summary:  fmt.Sprintf("Priority %d", i+1),
			detailed: ins,
		})
	}
	return out
}

func postItems(raw json.RawMessage) []listItem {
	var posts []listPost
	if err := json.Unmarshal(raw, &posts); err != nil {
		var env struct {
			Posts   []listPost `json:"posts"`
			Sources []listPost `json:"sources"`
		}
		if json.Unmarshal(raw, &env) != nil {
			return nil
		}
		posts = env.Posts
		if len(posts) == 0 {
			posts = env.Sources
		}
	}

	out := make([]listItem, 0, len(posts))
	for _, p := range posts {
		if p.Title == "" {
			continue
		}
		it := listItem{
			title:     p.Title,
			summary:   fmt.Sprintf("%d points, %d comments", p.Score, p.NumComments),
			sortScore: float64(p.Score),
			sortCount: float64(p.NumComments),
		}
		if p.Score > 0 {
			it.rank = fmt.Sprintf("%d points", p.Score)
		}
		it.details = append(it.details,
			fmt.Sprintf("Score: %d points, %d comments", p.Score, p.NumComments),
			fmt.Sprintf("Posted in r/%s by u/%s", p.Subreddit, p.Author),
		)
		if len(p.Selftext) > 100 {
			it.details = append(it.details, "Preview: "+utils.Truncate(p.Selftext, 100))
		}
		var d strings.Builder
		fmt.Fprintf(&d, "**Author:** u/%s\n", p.Author)
		fmt.Fprintf(&d, "**Subreddit:** r/%s\n", p.Subreddit)
		fmt.Fprintf(&d, "**Engagement:** %d points, %d comments", p.Score, p.NumComments)
		if p.Selftext != "" {
			fmt.Fprintf(&d, "\n**Content:** %s", utils.Truncate(p.Selftext, 200))
		}
		it.detailed = d.String()
		out = append(out, it)
	}
	return out
}

func genericItems(raw json.RawMessage) []listItem {
	// Array payloads list by their name-ish field, object payloads by key.
	var series []SeriesItem
	if err := json.Unmarshal(raw, &series); err == nil {
		var out []listItem
		for i, s := range series {
			title := s.label()
			if title == "" {
				title = fmt.Sprintf("Item %d", i+1)
			}
			out = append(out, listItem{
				title:     title,
				summary:   fmt.Sprintf("Value: %v", s.amount()),
				sortScore: s.amount(),
				sortCount: s.amount(),
			})
		}
		return out
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []listItem
	for _, k := range keys {
		out = append(out, listItem{
			title:   k,
			summary: utils.Truncate(string(fields[k]), 120),
		})
	}
	return out
}

func sortListItems(items []listItem, by ListSort) {
	switch by {
	case ListByScore:
		sort.SliceStable(items, func(i, j int) bool { return items[i].sortScore > items[j].sortScore })
	case ListByCount:
		sort.SliceStable(items, func(i, j int) bool { return items[i].sortCount > items[j].sortCount })
	case ListByAlphabetical:
		sort.SliceStable(items, func(i, j int) bool { return items[i].title < items[j].title })
	}
}
