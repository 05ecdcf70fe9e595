package news

import (
	"strings"

	"github.com/deusflow/engtrends/internal/topic"
)

// Item is one normalized, classified content entry.
type Item struct {
	ID            string            `json:"id,omitempty"` // provider-supplied identifier, empty when the source has none
	Title         string            `json:"title"`
	URL           string            `json:"url"`
	Score         int               `json:"score"`
	Source        string            `json:"source"`
	SourceIcon    string            `json:"source_icon"`
	Topic         topic.Topic       `json:"topic"`
	CommentsURL   string            `json:"comments_url"`
	CommentsCount int               `json:"comments_count"`
	Published     string            `json:"published,omitempty"` // display only, format varies by source
	Extra         map[string]string `json:"extra,omitempty"`
}

// Source describes the origin a provider reports items under.
type Source struct {
	Name string
	Icon string
}

// Fields is the per-provider projection of a raw record onto the canonical shape.
// Score must already be computed with one of the score formulas below.
type Fields struct {
	ID            string
	Title         string
	Link          string
	FallbackLink  string // used when Link is empty
	Secondary     string // extra text for classification only
	Score         int
	CommentsLink  string
	CommentsCount int
	Published     string
	Extra         map[string]string
}

// Record is a raw record in whatever shape its provider returns.
type Record interface {
	Fields() Fields
}

// Draft is a normalized item whose topic has not been assigned yet.
type Draft struct {
	Item      Item
	Secondary string
}

// Normalize maps a raw record onto an unclassified Item. Records without a title
// or a resolvable link are dropped (ok is false).
func Normalize(rec Record, src Source) (Draft, bool) {
	f := rec.Fields()

	title := strings.TrimSpace(f.Title)
	if title == "" {
		return Draft{}, false
	}

	link := strings.TrimSpace(f.Link)
	if link == "" {
		link = strings.TrimSpace(f.FallbackLink)
	}
	if link == "" {
		return Draft{}, false
	}

	comments := strings.TrimSpace(f.CommentsLink)
	if comments == "" {
		comments = link
	}

	count := f.CommentsCount
	if count < 0 {
		count = 0
	}

	var extra map[string]string
	if len(f.Extra) > 0 {
		extra = make(map[string]string, len(f.Extra))
		for k, v := range f.Extra {
			extra[k] = v
		}
	}

	return Draft{
		Item: Item{
			ID:            strings.TrimSpace(f.ID),
			Title:         title,
			URL:           link,
			Score:         f.Score,
			Source:        src.Name,
			SourceIcon:    src.Icon,
			CommentsURL:   comments,
			CommentsCount: count,
			Published:     f.Published,
			Extra:         extra,
		},
		Secondary: f.Secondary,
	}, true
}

// Classify assigns the draft its one topic.
func (d Draft) Classify(c *topic.Classifier) Item {
	it := d.Item
	it.Topic = c.Classify(it.Title, d.Secondary)
	return it
}

// PassThroughScore uses the provider's own popularity number.
func PassThroughScore(n int) int {
	return n
}

// ReactionScore weights comments twice as much as reactions.
func ReactionScore(reactions, comments int) int {
	return reactions + 2*comments
}

// NoScore is for sources without a popularity signal.
func NoScore() int {
	return 0
}
