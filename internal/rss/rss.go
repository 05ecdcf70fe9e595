package rss

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/deusflow/engtrends/internal/fetch"
	"github.com/deusflow/engtrends/internal/news"
	"github.com/deusflow/engtrends/internal/textutil"
)

// Entry is one feed entry. Feeds carry no usable identifier or score.
type Entry struct {
	Title     string
	Link      string
	Summary   string
	Published string
}

func (e Entry) Fields() news.Fields {
	return news.Fields{
		Title:     e.Title,
		Link:      e.Link,
		Secondary: textutil.PlainText(e.Summary),
		Score:     news.NoScore(),
		Published: textutil.Prefix(e.Published, 10),
	}
}

// Provider reads the first entries of one named RSS or Atom feed.
type Provider struct {
	client  *fetch.Client
	name    string
	url     string
	entries int
}

func New(client *fetch.Client, name, url string, entries int) *Provider {
	if entries <= 0 {
		entries = 8
	}
	return &Provider{client: client, name: name, url: url, entries: entries}
}

func (p *Provider) Source() news.Source {
	return news.Source{Name: p.name, Icon: "🔵"}
}

func (p *Provider) Fetch(ctx context.Context) ([]news.Record, error) {
	body, err := p.client.Get(ctx, p.url)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", p.url, err)
	}

	items := feed.Items
	if len(items) > p.entries {
		items = items[:p.entries]
	}

	records := make([]news.Record, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		summary := it.Description
		if summary == "" {
			summary = it.Content
		}
		published := it.Published
		if published == "" {
			published = it.Updated
		}
		records = append(records, Entry{
			Title:     it.Title,
			Link:      it.Link,
			Summary:   summary,
			Published: published,
		})
	}
	return records, nil
}
