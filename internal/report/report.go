// Package report renders a run as an HTML page and a JSON document.
package report

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/deusflow/engtrends/internal/news"
	"github.com/deusflow/engtrends/internal/recommend"
	"github.com/deusflow/engtrends/internal/topic"
)

// TopItems is how many items the report lists.
const TopItems = 50

//go:embed report.html.tmpl
var pageSource string

var page = template.Must(template.New("report").Funcs(template.FuncMap{
	// Template bodies come from the recommendation catalog, not from fetched content.
	"draft": func(body string) template.HTML { return template.HTML(body) },
}).Parse(pageSource))

type SourceCount struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Count int    `json:"count"`
}

type TopicBar struct {
	Topic   topic.Topic `json:"topic"`
	Count   int         `json:"count"`
	Percent int         `json:"percent"` // relative to the leading topic
}

type Failure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// Data is everything a report shows.
type Data struct {
	RunID           string                     `json:"run_id"`
	GeneratedAt     time.Time                  `json:"generated_at"`
	Intro           string                     `json:"intro"`
	Total           int                        `json:"total_items"`
	Stats           news.Stats                 `json:"stats"`
	Sources         []SourceCount              `json:"sources"`
	Topics          []TopicBar                 `json:"topics"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Items           []news.Item                `json:"items"`
	Failures        []Failure                  `json:"failures"`
}

// Build assembles report data from one run.
func Build(res news.AggregationResult, recs []recommend.Recommendation, intro string, now time.Time) Data {
	d := Data{
		RunID:           res.RunID,
		GeneratedAt:     now.UTC(),
		Intro:           intro,
		Total:           len(res.Items),
		Stats:           res.Stats,
		Sources:         countSources(res.Items),
		Topics:          bars(res.Ranking),
		Recommendations: recs,
		Items:           news.TopByScore(res.Items, TopItems),
		Failures:        make([]Failure, 0, len(res.Failures)),
	}
	for _, f := range res.Failures {
		msg := "unknown error"
		if f.Err != nil {
			msg = f.Err.Error()
		}
		d.Failures = append(d.Failures, Failure{Source: f.Source, Error: msg})
	}
	return d
}

func countSources(items []news.Item) []SourceCount {
	out := []SourceCount{}
	index := make(map[string]int)
	for _, it := range items {
		i, ok := index[it.Source]
		if !ok {
			i = len(out)
			index[it.Source] = i
			out = append(out, SourceCount{Name: it.Source, Icon: it.SourceIcon})
		}
		out[i].Count++
	}
	return out
}

func bars(ranking []news.TopicCount) []TopicBar {
	out := make([]TopicBar, 0, len(ranking))
	if len(ranking) == 0 {
		return out
	}
	lead := ranking[0].Count
	for _, tc := range ranking {
		pct := 0
		if lead > 0 {
			pct = tc.Count * 100 / lead
		}
		out = append(out, TopicBar{Topic: tc.Topic, Count: tc.Count, Percent: pct})
	}
	return out
}

func RenderHTML(w io.Writer, d Data) error {
	if err := page.Execute(w, d); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func RenderJSON(w io.Writer, d Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteFile renders into path through a temp file so readers never see a partial report.
func WriteFile(path string, render func(io.Writer, Data) error, d Data) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := render(tmp, d); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
