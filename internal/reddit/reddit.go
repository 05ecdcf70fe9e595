// Package reddit reads the top posts of a subreddit through the public JSON
// listing. No OAuth; Reddit requires a descriptive User-Agent instead.
package reddit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deusflow/engtrends/internal/fetch"
	"github.com/deusflow/engtrends/internal/news"
	"github.com/deusflow/engtrends/internal/textutil"
)

const (
	DefaultBaseURL = "https://www.reddit.com"
	selftextRunes  = 300
)

// Post is the listing child payload.
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Selftext    string  `json:"selftext"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	IsVideo     bool    `json:"is_video"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	CreatedUTC  float64 `json:"created_utc"`

	subreddit string
}

type listing struct {
	Data struct {
		Children []struct {
			Data Post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (p Post) Fields() news.Fields {
	var thread string
	if p.Permalink != "" {
		thread = "https://reddit.com" + p.Permalink
	}

	var published string
	if p.CreatedUTC > 0 {
		published = time.Unix(int64(p.CreatedUTC), 0).UTC().Format("Jan 02")
	}

	extra := map[string]string{"subreddit": p.subreddit}
	if p.UpvoteRatio > 0 {
		extra["upvote_ratio"] = strconv.FormatFloat(p.UpvoteRatio, 'f', 2, 64)
	}

	var id string
	if p.ID != "" {
		id = "reddit:" + p.ID
	}

	return news.Fields{
		ID:            id,
		Title:         p.Title,
		Link:          p.URL,
		FallbackLink:  thread,
		Secondary:     textutil.Truncate(p.Selftext, selftextRunes),
		Score:         news.PassThroughScore(p.Score),
		CommentsLink:  thread,
		CommentsCount: p.NumComments,
		Published:     published,
		Extra:         extra,
	}
}

type Config struct {
	BaseURL    string
	TimeFilter string
	Limit      int
	MinScore   int
}

// Provider reads one subreddit.
type Provider struct {
	client *fetch.Client
	name   string
	sub    string
	cfg    Config
}

func New(client *fetch.Client, name, sub string, cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TimeFilter == "" {
		cfg.TimeFilter = "week"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 15
	}
	return &Provider{client: client, name: name, sub: sub, cfg: cfg}
}

func (p *Provider) Source() news.Source {
	return news.Source{Name: p.name, Icon: "🔴"}
}

func (p *Provider) listingURL() string {
	q := url.Values{}
	q.Set("t", p.cfg.TimeFilter)
	q.Set("limit", strconv.Itoa(p.cfg.Limit))
	return fmt.Sprintf("%s/r/%s/top.json?%s", strings.TrimRight(p.cfg.BaseURL, "/"), url.PathEscape(p.sub), q.Encode())
}

// Fetch skips videos, blank titles and posts under the score floor.
// A 429 response surfaces as fetch.ErrRateLimited.
func (p *Provider) Fetch(ctx context.Context) ([]news.Record, error) {
	var l listing
	if err := p.client.GetJSON(ctx, p.listingURL(), &l); err != nil {
		return nil, err
	}

	records := make([]news.Record, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		post := child.Data
		if post.IsVideo || post.Score < p.cfg.MinScore || strings.TrimSpace(post.Title) == "" {
			continue
		}
		post.subreddit = p.name
		records = append(records, post)
	}
	return records, nil
}
