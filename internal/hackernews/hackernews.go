// Package hackernews reads the Hacker News top stories list.
package hackernews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deusflow/engtrends/internal/fetch"
	"github.com/deusflow/engtrends/internal/news"
)

const (
	DefaultBaseURL = "https://hacker-news.firebaseio.com/v0"
	itemPageURL    = "https://news.ycombinator.com/item?id="
)

// Story is an item from the Firebase API.
type Story struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
}

func (s Story) Fields() news.Fields {
	// Without an id there is no item page and nothing to deduplicate on.
	var id, page string
	if s.ID != 0 {
		id = "hn:" + strconv.Itoa(s.ID)
		page = itemPageURL + strconv.Itoa(s.ID)
	}

	var published string
	if s.Time > 0 {
		published = time.Unix(s.Time, 0).UTC().Format("Jan 02")
	}

	return news.Fields{
		ID:            id,
		Title:         s.Title,
		Link:          s.URL,
		FallbackLink:  page,
		Score:         news.PassThroughScore(s.Score),
		CommentsLink:  page,
		CommentsCount: s.Descendants,
		Published:     published,
	}
}

type Config struct {
	BaseURL     string
	Limit       int
	Concurrency int // parallel item requests, default 8
	Logger      *slog.Logger
}

type Provider struct {
	client *fetch.Client
	cfg    Config
	log    *slog.Logger
}

func New(client *fetch.Client, cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 30
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Provider{client: client, cfg: cfg, log: log}
}

func (p *Provider) Source() news.Source {
	return news.Source{Name: "Hacker News", Icon: "🟠"}
}

// Fetch returns top stories in ranking order. Items that fail to load are
// skipped; the call fails only when the id list cannot be read or every item failed.
func (p *Provider) Fetch(ctx context.Context) ([]news.Record, error) {
	var ids []int
	if err := p.client.GetJSON(ctx, p.cfg.BaseURL+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("top stories: %w", err)
	}
	if len(ids) > p.cfg.Limit {
		ids = ids[:p.cfg.Limit]
	}

	stories := make([]*Story, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			var s Story
			if err := p.client.GetJSON(gctx, fmt.Sprintf("%s/item/%d.json", p.cfg.BaseURL, id), &s); err != nil {
				errs[i] = err
				return nil
			}
			stories[i] = &s
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([]news.Record, 0, len(stories))
	failed := 0
	for i, s := range stories {
		if s == nil {
			failed++
			p.log.Debug("hacker news item skipped", "id", ids[i], "error", errs[i])
			continue
		}
		if s.Type != "story" || s.Title == "" {
			continue
		}
		records = append(records, *s)
	}

	if len(ids) > 0 && failed == len(ids) {
		return nil, fmt.Errorf("all %d items failed: %w", failed, errors.Join(errs...))
	}
	return records, nil
}
