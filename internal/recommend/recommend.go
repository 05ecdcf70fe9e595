// Package recommend picks templated content ideas for the trending topics.
package recommend

import (
	"github.com/deusflow/engtrends/internal/news"
	"github.com/deusflow/engtrends/internal/topic"
)

// InspirationCount is how many top items annotate each recommendation.
const InspirationCount = 2

// Template is static recommendation copy.
type Template struct {
	Topic          topic.Topic `yaml:"topic" json:"topic"`
	Title          string      `yaml:"title" json:"title"`
	Description    string      `yaml:"description" json:"description"`
	Demo           string      `yaml:"demo" json:"demo"`
	Format         string      `yaml:"format" json:"format"`
	CTA            string      `yaml:"cta" json:"cta"`
	Tags           []string    `yaml:"tags" json:"tags"`
	SEODescription string      `yaml:"seo_description" json:"seo_description"`
	ReadTime       string      `yaml:"read_time" json:"read_time"`
	HeroPrompt     string      `yaml:"hero_prompt" json:"hero_prompt"`
	Body           string      `yaml:"body" json:"body"`
}

// Lookup maps topics to their templates; the first template of a topic is canonical.
type Lookup map[topic.Topic][]Template

// Canonical returns the first template registered for t.
func (l Lookup) Canonical(t topic.Topic) (Template, bool) {
	templates := l[t]
	if len(templates) == 0 {
		return Template{}, false
	}
	return templates[0], true
}

// Recommendation is a selected template annotated with the titles that inspired it.
type Recommendation struct {
	Template
	InspiredBy []string `json:"inspired_by"`
	Padded     bool     `json:"padded"`
}

// Select walks the ranking from the top and emits one recommendation per topic
// that has a template, until maxCount is reached. The rest is padded with fallback.
func Select(ranking []news.TopicCount, byTopic map[topic.Topic][]news.Item, lookup Lookup, fallback Template, maxCount int) []Recommendation {
	if maxCount <= 0 {
		return []Recommendation{}
	}

	recs := make([]Recommendation, 0, maxCount)
	used := make(map[topic.Topic]struct{})

	for _, tc := range ranking {
		if len(recs) >= maxCount {
			break
		}
		if _, done := used[tc.Topic]; done {
			continue
		}
		tmpl, ok := lookup.Canonical(tc.Topic)
		if !ok {
			continue
		}

		tmpl.Topic = tc.Topic
		recs = append(recs, Recommendation{
			Template:   tmpl,
			InspiredBy: inspiration(byTopic[tc.Topic]),
		})
		used[tc.Topic] = struct{}{}
	}

	for len(recs) < maxCount {
		recs = append(recs, Recommendation{
			Template:   fallback,
			InspiredBy: []string{},
			Padded:     true,
		})
	}
	return recs
}

func inspiration(items []news.Item) []string {
	top := news.TopByScore(items, InspirationCount)
	titles := make([]string, 0, len(top))
	for _, it := range top {
		if it.Title != "" {
			titles = append(titles, it.Title)
		}
	}
	return titles
}
