package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/engtrends/internal/catalog"
	"github.com/deusflow/engtrends/internal/news"
	"github.com/deusflow/engtrends/internal/recommend"
)

func sample() news.AggregationResult {
	items := []news.Item{
		{Title: "Kubernetes 1.31", URL: "https://k8s.example", Score: 40, Source: "Hacker News", SourceIcon: "🟠", Topic: "☁️ Cloud / Infra"},
		{Title: "<script>alert(1)</script>", URL: "https://x.example", Score: 5, Source: "dev.to", SourceIcon: "🟣", Topic: "☁️ Cloud / Infra"},
		{Title: "Redis internals", URL: "https://redis.example", Score: 10, Source: "Hacker News", SourceIcon: "🟠", Topic: "🗄️ Databases"},
	}
	return news.AggregationResult{
		RunID:    "run-1",
		Items:    items,
		Ranking:  news.RankTopics(items),
		Failures: []news.ProviderFailure{{Source: "r/golang", Err: errors.New("rate limited")}},
		Stats:    news.Stats{Providers: 3, Failed: 1, Records: 3},
	}
}

func TestBuild(t *testing.T) {
	recs := []recommend.Recommendation{{Template: recommend.Template{Title: "Diagrams"}}}
	d := Build(sample(), recs, "intro", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	assert.Equal(t, 3, d.Total)
	assert.Equal(t, []SourceCount{{Name: "Hacker News", Icon: "🟠", Count: 2}, {Name: "dev.to", Icon: "🟣", Count: 1}}, d.Sources)
	assert.Equal(t, []TopicBar{{Topic: "☁️ Cloud / Infra", Count: 2, Percent: 100}, {Topic: "🗄️ Databases", Count: 1, Percent: 50}}, d.Topics)
	require.Len(t, d.Items, 3)
	assert.Equal(t, "Kubernetes 1.31", d.Items[0].Title)
	assert.Equal(t, []Failure{{Source: "r/golang", Error: "rate limited"}}, d.Failures)
}

func TestBuildCapsItems(t *testing.T) {
	var res news.AggregationResult
	for i := 0; i < TopItems+10; i++ {
		res.Items = append(res.Items, news.Item{Title: fmt.Sprint(i), Score: i})
	}
	d := Build(res, nil, "", time.Now())
	require.Len(t, d.Items, TopItems)
	assert.Equal(t, fmt.Sprint(TopItems+9), d.Items[0].Title)
}

func TestRenderHTMLEscapes(t *testing.T) {
	recs := []recommend.Recommendation{{
		Template:   recommend.Template{Title: "Diagrams", Tags: []string{"k8s"}},
		InspiredBy: []string{"Kubernetes 1.31", "Redis internals"},
	}}
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, Build(sample(), recs, "A busy week.", time.Now())))

	out := buf.String()
	assert.Contains(t, out, "A busy week.")
	assert.Contains(t, out, "Inspired by: Kubernetes 1.31; Redis internals")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>alert")
	assert.Contains(t, out, "r/golang: rate limited")
}

func TestRenderHTMLDraftBody(t *testing.T) {
	recs := []recommend.Recommendation{{Template: recommend.Template{
		Title:          "Diagrams",
		SEODescription: "Map your cluster.",
		HeroPrompt:     "A glowing cluster",
		Body:           "<p>Intro</p>\n<h2>Step one</h2>\n<ol><li>Draw it</li></ol>",
	}}}
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, Build(sample(), recs, "", time.Now())))

	out := buf.String()
	assert.Contains(t, out, `<details class="draft"><summary>Draft post</summary><p>Intro</p>`)
	assert.Contains(t, out, "<h2>Step one</h2>")
	assert.Contains(t, out, "SEO: Map your cluster.")
	assert.Contains(t, out, "Hero image prompt: <i>A glowing cluster</i>")
}

func TestRenderHTMLCatalogDrafts(t *testing.T) {
	lookup, def, err := catalog.LoadTemplates("")
	require.NoError(t, err)
	ai, ok := lookup.Canonical("🤖 AI / ML")
	require.True(t, ok)

	recs := []recommend.Recommendation{{Template: ai}, {Template: def, Padded: true}}
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, Build(sample(), recs, "", time.Now())))

	out := buf.String()
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte(`<details class="draft">`)))
	assert.Contains(t, out, "<h2>Why the Existing Approach Fails</h2>")
	assert.Contains(t, out, "<h2>Why Meeting-Heavy Rituals Don't Scale</h2>")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, Build(sample(), nil, "", time.Now())))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc["run_id"])
	assert.Equal(t, float64(3), doc["total_items"])
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteFile(path, RenderHTML, Build(sample(), nil, "", time.Now())))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Engineering Trends")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
