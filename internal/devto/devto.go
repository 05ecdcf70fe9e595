// Package devto reads top articles from the dev.to public API.
package devto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/deusflow/engtrends/internal/fetch"
	"github.com/deusflow/engtrends/internal/news"
	"github.com/deusflow/engtrends/internal/textutil"
)

// Article is the subset of the dev.to article payload the pipeline reads.
type Article struct {
	ID                 int    `json:"id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	URL                string `json:"url"`
	Reactions          int    `json:"positive_reactions_count"`
	Comments           int    `json:"comments_count"`
	PublishedAt        string `json:"published_at"`
	ReadingTimeMinutes int    `json:"reading_time_minutes"`
}

func (a Article) Fields() news.Fields {
	var extra map[string]string
	if a.ReadingTimeMinutes > 0 {
		extra = map[string]string{"reading_time": strconv.Itoa(a.ReadingTimeMinutes) + " min"}
	}
	var id string
	if a.ID != 0 {
		id = "devto:" + strconv.Itoa(a.ID)
	}
	return news.Fields{
		ID:            id,
		Title:         a.Title,
		Link:          a.URL,
		Secondary:     a.Description,
		Score:         news.ReactionScore(a.Reactions, a.Comments),
		CommentsLink:  a.URL,
		CommentsCount: a.Comments,
		Published:     textutil.Prefix(a.PublishedAt, 10),
		Extra:         extra,
	}
}

// Provider queries several overlapping article listings in order.
type Provider struct {
	client    *fetch.Client
	endpoints []string
	log       *slog.Logger
}

func New(client *fetch.Client, endpoints []string, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.Default()
	}
	return &Provider{client: client, endpoints: endpoints, log: log}
}

func (p *Provider) Source() news.Source {
	return news.Source{Name: "dev.to", Icon: "🟣"}
}

// Fetch concatenates every endpoint's articles. A failing endpoint is skipped;
// the call fails only when none succeeded.
func (p *Provider) Fetch(ctx context.Context) ([]news.Record, error) {
	var (
		records []news.Record
		errs    []error
	)
	for _, url := range p.endpoints {
		var page []Article
		if err := p.client.GetJSON(ctx, url, &page); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.log.Warn("dev.to endpoint failed", "url", url, "error", err)
			errs = append(errs, err)
			continue
		}
		for _, a := range page {
			records = append(records, a)
		}
	}

	if len(p.endpoints) > 0 && len(errs) == len(p.endpoints) {
		return nil, fmt.Errorf("every endpoint failed: %w", errors.Join(errs...))
	}
	return records, nil
}
