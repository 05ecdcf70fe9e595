// Package catalog loads the YAML tables the pipeline runs on: topic keyword
// rules, recommendation templates and the list of sources. An empty path
// selects the copy embedded in the binary.
package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/engtrends/configs"
	"github.com/deusflow/engtrends/internal/recommend"
	"github.com/deusflow/engtrends/internal/topic"
)

const (
	topicsFile    = "topics.yaml"
	templatesFile = "templates.yaml"
	sourcesFile   = "sources.yaml"
)

// TopicsConfig is the YAML shape of the topic table.
// topics:
//   - name: "🗄️ Databases"
//     keywords: ["postgres", "redis"]
type TopicsConfig struct {
	Default string `yaml:"default"`
	Topics  []struct {
		Name     string   `yaml:"name"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"topics"`
}

// TemplatesConfig is the YAML shape of the recommendation copy.
type TemplatesConfig struct {
	Default   recommend.Template   `yaml:"default"`
	Templates []recommend.Template `yaml:"templates"`
}

// Sources lists every provider to build for a run.
type Sources struct {
	UserAgent  string           `yaml:"user_agent"`
	HackerNews HackerNewsSource `yaml:"hackernews"`
	DevTo      DevToSource      `yaml:"devto"`
	RSS        RSSSource        `yaml:"rss"`
	Reddit     RedditSource     `yaml:"reddit"`
}

type HackerNewsSource struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit"`
}

type DevToSource struct {
	Enabled   bool     `yaml:"enabled"`
	Endpoints []string `yaml:"endpoints"`
}

type RSSSource struct {
	EntriesPerFeed int    `yaml:"entries_per_feed"`
	Feeds          []Feed `yaml:"feeds"`
}

// Feed is one named RSS/Atom feed.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type RedditSource struct {
	TimeFilter string      `yaml:"time_filter"`
	Limit      int         `yaml:"limit"`
	MinScore   int         `yaml:"min_score"`
	Subreddits []Subreddit `yaml:"subreddits"`
}

// Subreddit pairs a display name with the subreddit path segment.
type Subreddit struct {
	Name string `yaml:"name"`
	Sub  string `yaml:"sub"`
}

// LoadTopics builds the ordered topic table.
func LoadTopics(path string) (*topic.Table, error) {
	var cfg TopicsConfig
	if err := decode(path, topicsFile, &cfg); err != nil {
		return nil, err
	}

	rules := make([]topic.Rule, 0, len(cfg.Topics))
	for _, t := range cfg.Topics {
		rules = append(rules, topic.Rule{Topic: topic.Topic(t.Name), Keywords: t.Keywords})
	}

	table, err := topic.NewTable(rules, topic.Topic(cfg.Default))
	if err != nil {
		return nil, fmt.Errorf("topics %s: %w", describe(path, topicsFile), err)
	}
	return table, nil
}

// LoadTemplates builds the topic lookup and returns the padding template.
func LoadTemplates(path string) (recommend.Lookup, recommend.Template, error) {
	var cfg TemplatesConfig
	if err := decode(path, templatesFile, &cfg); err != nil {
		return nil, recommend.Template{}, err
	}
	if cfg.Default.Title == "" {
		return nil, recommend.Template{}, fmt.Errorf("templates %s: default template needs a title", describe(path, templatesFile))
	}

	lookup := make(recommend.Lookup)
	for i, t := range cfg.Templates {
		if t.Topic == "" {
			return nil, recommend.Template{}, fmt.Errorf("templates %s: entry %d has no topic", describe(path, templatesFile), i)
		}
		lookup[t.Topic] = append(lookup[t.Topic], t)
	}
	return lookup, cfg.Default, nil
}

// LoadSources reads the source list and fills in defaults.
func LoadSources(path string) (Sources, error) {
	var s Sources
	if err := decode(path, sourcesFile, &s); err != nil {
		return Sources{}, err
	}

	if s.UserAgent == "" {
		s.UserAgent = "EngTrends/1.0"
	}
	if s.HackerNews.Limit <= 0 {
		s.HackerNews.Limit = 30
	}
	if s.RSS.EntriesPerFeed <= 0 {
		s.RSS.EntriesPerFeed = 8
	}
	if s.Reddit.TimeFilter == "" {
		s.Reddit.TimeFilter = "week"
	}
	if s.Reddit.Limit <= 0 {
		s.Reddit.Limit = 15
	}
	if s.Reddit.MinScore <= 0 {
		s.Reddit.MinScore = 50
	}
	return s, nil
}

func decode(path, embedded string, out any) error {
	raw, err := read(path, embedded)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parse %s: %w", describe(path, embedded), err)
	}
	return nil
}

func read(path, embedded string) ([]byte, error) {
	if path == "" {
		raw, err := configs.FS.ReadFile(embedded)
		if err != nil {
			return nil, fmt.Errorf("read embedded %s: %w", embedded, err)
		}
		return raw, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func describe(path, embedded string) string {
	if path == "" {
		return "embedded " + embedded
	}
	return path
}
