package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mohammad-safakhou/redditdig/config"
	"github.com/mohammad-safakhou/redditdig/internal/strategy"
	"github.com/mohammad-safakhou/redditdig/internal/telemetry"
	"github.com/mohammad-safakhou/redditdig/utils"
)

// Fetcher retrieves and enriches Reddit posts for a search strategy. It runs
// one general search plus one search per target subreddit, deduplicates and
// ranks the merged candidates, then detail-fetches the top candidates
// sequentially with pacing delays. Partial failures degrade, they never abort
// the whole search; an empty result is a normal outcome, not an error.
type Fetcher struct {
	cfg    config.RedditConfig
	client *Client
	cache  *Cache
	tel    *telemetry.Telemetry
	logger *log.Logger

	// injectable for tests
	wait        func(ctx context.Context, d time.Duration) error
	detailDelay func() time.Duration
}

// NewFetcher creates a fetcher. cache and tel may be nil.
func NewFetcher(cfg config.RedditConfig, cache *Cache, tel *telemetry.Telemetry) *Fetcher {
	client := NewClient(cfg.RequestTimeout, cfg.UserAgent, DefaultRetryPolicy(cfg.MaxRetries, cfg.RetryBackoff))
	return &Fetcher{
		cfg:    cfg,
		client: client,
		cache:  cache,
		tel:    tel,
		logger: log.New(log.Writer(), "[FETCHER] ", log.LstdFlags),
		wait: func(ctx context.Context, d time.Duration) error {
			select {
			case <-time.After(d):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
		detailDelay: func() time.Duration {
			spread := cfg.DetailDelayMax - cfg.DetailDelayMin
			if spread <= 0 {
				return cfg.DetailDelayMin
			}
			return cfg.DetailDelayMin + time.Duration(rand.Int63n(int64(spread)))
		},
	}
}

// approach is one search request: the general full-text search or one
// subreddit-restricted search.
type approach struct {
	url       string
	params    url.Values
	general   bool
	subreddit string
}

// Search retrieves up to limit enriched posts for the strategy, sorted by
// descending relevance. An empty slice means nothing was retrievable.
func (f *Fetcher) Search(ctx context.Context, strat strategy.SearchStrategy, limit int) ([]EnrichedPost, error) {
	if limit <= 0 {
		limit = 5
	}
	strat = strat.Normalize()
	if err := strat.Validate(); err != nil {
		return nil, err
	}

	targets := strat.Subreddits
	if len(targets) == 0 {
		targets = InferSubreddits(f.cfg, strat.Keywords)
	}

	approaches := f.buildApproaches(strat, targets, limit)

	var candidates []Post
	for i, a := range approaches {
		posts, err := f.searchOnce(ctx, a)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Printf("search approach %s failed: %v", a.describe(), err)
		} else {
			f.logger.Printf("found %d posts from %s", len(posts), a.describe())
			candidates = append(candidates, posts...)
		}
		if i < len(approaches)-1 {
			if err := f.wait(ctx, f.cfg.SearchDelay); err != nil {
				return nil, err
			}
		}
	}

	unique := dedupe(candidates)
	if len(unique) == 0 {
		return nil, nil
	}
	f.logger.Printf("%d unique posts after dedup, scoring and ranking", len(unique))

	ranked := rankPosts(unique, strat.Keywords, targets, strat.ExcludeTerms)
	if len(ranked) > 2*limit {
		ranked = ranked[:2*limit]
	}

	var enriched []EnrichedPost
	for i, cand := range ranked {
		if len(enriched) >= limit {
			break
		}
		post, err := f.fetchDetail(ctx, cand)
		if err != nil {
			if ctx.Err() != nil {
				return enriched, ctx.Err()
			}
			f.logger.Printf("detail fetch for %s failed: %v", cand.ID, err)
		} else {
			enriched = append(enriched, post)
		}
		if i < len(ranked)-1 && len(enriched) < limit {
			if err := f.wait(ctx, f.detailDelay()); err != nil {
				return enriched, err
			}
		}
	}
	f.logger.Printf("retrieved %d detailed posts", len(enriched))
	return enriched, nil
}

func (f *Fetcher) buildApproaches(strat strategy.SearchStrategy, targets []string, limit int) []approach {
	query := strat.Query()
	fullQuery := query
	for _, t := range strat.ExcludeTerms {
		if t = strings.TrimSpace(t); t != "" {
			fullQuery += " -" + t
		}
	}

	general := url.Values{}
	general.Set("q", fullQuery)
	general.Set("limit", strconv.Itoa(limit*2))
	general.Set("sort", string(strat.SortBy))
	general.Set("t", string(strat.TimeFilter))
	general.Set("type", "link")

	approaches := []approach{{url: f.cfg.BaseURL + "/search.json", params: general, general: true}}

	perSub := limit / maxInt(len(targets), 1)
	if perSub < 2 {
		perSub = 2
	}
	for _, sub := range targets {
		p := url.Values{}
		p.Set("q", query)
		p.Set("restrict_sr", "on")
		p.Set("limit", strconv.Itoa(perSub))
		p.Set("sort", string(strat.SortBy))
		p.Set("t", string(strat.TimeFilter))
		p.Set("type", "link")
		approaches = append(approaches, approach{
			url:       fmt.Sprintf("%s/r/%s/search.json", f.cfg.BaseURL, sub),
			params:    p,
			subreddit: sub,
		})
	}
	return approaches
}

func (a approach) describe() string {
	if a.general {
		return "general search"
	}
	return "r/" + a.subreddit
}

func (f *Fetcher) searchOnce(ctx context.Context, a approach) ([]Post, error) {
	full := a.url + "?" + a.params.Encode()
	if payload, ok := f.cache.Get(ctx, full); ok {
		var posts []Post
		if err := json.Unmarshal(payload, &posts); err == nil {
			return posts, nil
		}
	}

	var l listing
	err := f.client.GetJSON(ctx, a.url, a.params, &l)
	f.tel.RecordRedditRequest("search", err == nil)
	if err != nil {
		return nil, err
	}
	posts := l.posts()
	if payload, err := json.Marshal(posts); err == nil {
		f.cache.Set(ctx, full, payload)
	}
	return posts, nil
}

func (f *Fetcher) fetchDetail(ctx context.Context, cand scoredPost) (EnrichedPost, error) {
	if cand.Permalink == "" {
		return EnrichedPost{}, fmt.Errorf("post %s has no permalink", cand.ID)
	}

	var raw []json.RawMessage
	err := f.client.GetJSON(ctx, f.cfg.BaseURL+cand.Permalink+".json", nil, &raw)
	f.tel.RecordRedditRequest("detail", err == nil)
	if err != nil {
		return EnrichedPost{}, err
	}
	if len(raw) < 2 {
		return EnrichedPost{}, fmt.Errorf("unexpected detail payload for %s", cand.ID)
	}

	var postList listing
	if err := json.Unmarshal(raw[0], &postList); err != nil {
		return EnrichedPost{}, fmt.Errorf("decode post listing: %w", err)
	}
	posts := postList.posts()
	if len(posts) == 0 {
		return EnrichedPost{}, fmt.Errorf("detail payload for %s has no post", cand.ID)
	}
	post := posts[0]

	var comments commentListing
	if err := json.Unmarshal(raw[1], &comments); err != nil {
		// comments are optional; keep the post
		f.logger.Printf("decode comments for %s failed: %v", cand.ID, err)
	}

	var top []Comment
	for _, c := range comments.Data.Children {
		if len(top) >= f.cfg.CommentLimit {
			break
		}
		body := c.Data.Body
		if body == "" || body == "[deleted]" || body == "[removed]" || len(body) <= 10 {
			continue
		}
		top = append(top, Comment{
			Author: c.Data.Author,
			Body:   utils.Truncate(body, f.cfg.CommentCharLimit),
			Score:  c.Data.Score,
		})
	}

	selftext := utils.Truncate(post.Selftext, f.cfg.SelftextLimit)
	if selftext == "" {
		selftext = "No post body."
	}
	var b strings.Builder
	b.WriteString(selftext)
	b.WriteString("\n\nTop Comments:\n")
	if len(top) == 0 {
		b.WriteString("No comments available.")
	} else {
		for i, c := range top {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "Comment %d (%d points): %s", i+1, c.Score, c.Body)
		}
	}

	return EnrichedPost{
		Post:           post,
		URL:            f.cfg.BaseURL + post.Permalink,
		RelevanceScore: cand.relevance,
		FullContent:    b.String(),
		TopComments:    top,
	}, nil
}

// InferSubreddits picks target subreddits from the configured topic map when
// the strategy names none. The first keyword trigger that appears in the query
// wins; otherwise the general discussion defaults apply.
func InferSubreddits(cfg config.RedditConfig, keywords []string) []string {
	query := strings.ToLower(strings.Join(keywords, " "))
	triggers := make([]string, 0, len(cfg.TopicSubreddits))
	for trigger := range cfg.TopicSubreddits {
		triggers = append(triggers, trigger)
	}
	sort.Strings(triggers)
	for _, trigger := range triggers {
		if strings.Contains(query, strings.ToLower(trigger)) {
			return cfg.TopicSubreddits[trigger]
		}
	}
	return cfg.DefaultSubreddits
}

func dedupe(posts []Post) []Post {
	seen := make(map[string]struct{}, len(posts))
	var out []Post
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
