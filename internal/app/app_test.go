package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/engtrends/internal/catalog"
	"github.com/deusflow/engtrends/internal/config"
	"github.com/deusflow/engtrends/internal/devto"
	"github.com/deusflow/engtrends/internal/fetch"
	"github.com/deusflow/engtrends/internal/hackernews"
	"github.com/deusflow/engtrends/internal/news"
	"github.com/deusflow/engtrends/internal/reddit"
	"github.com/deusflow/engtrends/internal/retry"
	"github.com/deusflow/engtrends/internal/rss"
	"github.com/deusflow/engtrends/internal/topic"
)

type story struct {
	id    string
	title string
}

func (s story) Fields() news.Fields {
	return news.Fields{ID: s.id, Title: s.title, FallbackLink: "https://forum.example/item?id=" + s.id}
}

type stub struct {
	name    string
	records []news.Record
	err     error
}

func (s stub) Source() news.Source { return news.Source{Name: s.name} }

func (s stub) Fetch(context.Context) ([]news.Record, error) { return s.records, s.err }

type captureNotifier struct {
	text string
	err  error
}

func (c *captureNotifier) SendMessage(_ context.Context, text string) error {
	c.text = text
	return c.err
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		OutputPath:         filepath.Join(dir, "report.html"),
		JSONOutputPath:     filepath.Join(dir, "report.json"),
		MaxRecommendations: 5,
		ProviderTimeout:    time.Second,
		RequestTimeout:     time.Second,
		RetryAttempts:      1,
		LogFormat:          "text",
	}
}

func TestRunOnceEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, quiet())
	require.NoError(t, err)
	defer a.Close()

	notifier := &captureNotifier{}
	a.WithNotifier(notifier).WithProviders([]news.Provider{
		stub{name: "first", records: []news.Record{
			story{id: "1", title: "New Kubernetes release"},
			story{id: "2", title: "Redis internals deep dive"},
		}},
		stub{name: "second", records: []news.Record{story{id: "1", title: "Duplicate of kubernetes post"}}},
		stub{name: "third", err: errors.New("unreachable")},
	})

	out, err := a.RunOnce(context.Background())
	require.NoError(t, err)

	res := out.Result
	require.Len(t, res.Items, 2)
	assert.Equal(t, "New Kubernetes release", res.Items[0].Title)
	assert.Equal(t, topic.Topic("☁️ Cloud / Infra"), res.Items[0].Topic)
	assert.Equal(t, topic.Topic("🗄️ Databases"), res.Items[1].Topic)
	assert.Equal(t, []news.TopicCount{
		{Topic: "☁️ Cloud / Infra", Count: 1},
		{Topic: "🗄️ Databases", Count: 1},
	}, res.Ranking)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "third", res.Failures[0].Source)

	recs := out.Recommendations
	require.Len(t, recs, 5)
	assert.Equal(t, topic.Topic("☁️ Cloud / Infra"), recs[0].Topic)
	assert.Equal(t, []string{"New Kubernetes release"}, recs[0].InspiredBy)
	assert.Equal(t, topic.Topic("🗄️ Databases"), recs[1].Topic)
	for _, r := range recs[2:] {
		assert.True(t, r.Padded)
		assert.Equal(t, topic.Topic("🔧 Engineering"), r.Topic)
	}

	assert.Equal(t, "2 items analysed. ☁️ Cloud / Infra leads with 1, followed by 🗄️ Databases with 1.", out.Report.Intro)
	assert.Contains(t, notifier.text, "2 items from 2 sources")

	html, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Redis internals deep dive")

	raw, err := os.ReadFile(cfg.JSONOutputPath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, res.RunID, doc["run_id"])
}

func TestRunOnceNotifierFailureDoesNotFailRun(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), quiet())
	require.NoError(t, err)

	a.WithNotifier(&captureNotifier{err: errors.New("telegram down")}).WithProviders(nil)
	out, err := a.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out.Result.Items)
	assert.Len(t, out.Recommendations, 5)
}

func TestRunOnceReportWriteFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputPath = filepath.Join(t.TempDir(), "missing-dir", "report.html")

	a, err := New(context.Background(), cfg, quiet())
	require.NoError(t, err)

	_, err = a.WithProviders(nil).RunOnce(context.Background())
	assert.ErrorContains(t, err, "html report")
}

func TestRunLoopStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.RunInterval = 10 * time.Millisecond

	a, err := New(context.Background(), cfg, quiet())
	require.NoError(t, err)

	calls := 0
	a.WithProviders([]news.Provider{countingProvider{calls: &calls}})

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Run(ctx))
	assert.GreaterOrEqual(t, calls, 2)
}

type countingProvider struct{ calls *int }

func (c countingProvider) Source() news.Source { return news.Source{Name: "counter"} }

func (c countingProvider) Fetch(context.Context) ([]news.Record, error) {
	*c.calls++
	return nil, nil
}

func TestBuildProvidersOrder(t *testing.T) {
	sources, err := catalog.LoadSources("")
	require.NoError(t, err)

	client := fetch.New(sources.UserAgent, time.Second, retry.Policy{})
	providers := BuildProviders(sources, client, quiet())
	require.Len(t, providers, 2+len(sources.RSS.Feeds)+len(sources.Reddit.Subreddits))

	assert.IsType(t, &hackernews.Provider{}, providers[0])
	assert.IsType(t, &devto.Provider{}, providers[1])
	assert.IsType(t, &rss.Provider{}, providers[2])
	assert.IsType(t, &reddit.Provider{}, providers[len(providers)-1])
	assert.Equal(t, "🔴", providers[len(providers)-1].Source().Icon)

	sources.HackerNews.Enabled = false
	sources.DevTo.Enabled = false
	assert.Len(t, BuildProviders(sources, client, quiet()), len(sources.RSS.Feeds)+len(sources.Reddit.Subreddits))
}

func TestSummarizeCountsProvidersWithoutItems(t *testing.T) {
	table, err := topic.NewTable(nil, "🔧 Engineering")
	require.NoError(t, err)
	agg := news.NewAggregator(topic.NewClassifier(table), news.Options{Logger: quiet()})

	res := agg.Merge([]news.Batch{
		{Source: news.Source{Name: "hn"}, Records: []news.Record{story{id: "1", title: "Postgres 17"}}},
		{Source: news.Source{Name: "quiet-feed"}},
		{Source: news.Source{Name: "mirror"}, Records: []news.Record{story{id: "1", title: "Postgres 17"}}},
		{Source: news.Source{Name: "down"}, Err: errors.New("503")},
	})

	s := summarize(res, time.Second)
	assert.Equal(t, map[string]bool{"hn": true, "quiet-feed": true, "mirror": true, "down": false}, s.Sources)
	assert.Equal(t, 1, s.Items)
	assert.Equal(t, 1, s.Duplicates)
}
