package reddit

// Post is the subset of a raw Reddit search record the assistant consumes.
// Records missing the identity fields (id, title, subreddit) are dropped at
// decode time rather than propagated.
type Post struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subreddit   string `json:"subreddit"`
	Author      string `json:"author"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	Selftext    string `json:"selftext"`
	Permalink   string `json:"permalink"`
}

func (p Post) valid() bool {
	return p.ID != "" && p.Title != "" && p.Subreddit != ""
}

// Comment is one top-level comment attached to an enriched post.
type Comment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
	Score  int    `json:"score"`
}

// EnrichedPost is a post after detail-fetch: comments attached, relevance
// scored, and full content assembled under a bounded character budget.
type EnrichedPost struct {
	Post
	URL            string    `json:"url"`
	RelevanceScore float64   `json:"relevance_score"`
	FullContent    string    `json:"full_content"`
	TopComments    []Comment `json:"top_comments"`
}

// listing mirrors Reddit's {"data":{"children":[{"data":{...}}]}} envelope.
type listing struct {
	Data struct {
		Children []struct {
			Data Post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (l listing) posts() []Post {
	var out []Post
	for _, c := range l.Data.Children {
		if c.Data.valid() {
			out = append(out, c.Data)
		}
	}
	return out
}

// commentListing mirrors the second element of a post-detail response.
type commentListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Author string `json:"author"`
				Body   string `json:"body"`
				Score  int    `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}
