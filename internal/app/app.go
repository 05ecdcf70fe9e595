// Package app wires catalogs, providers and sinks into one pipeline run.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/engtrends/internal/cache"
	"github.com/deusflow/engtrends/internal/catalog"
	"github.com/deusflow/engtrends/internal/config"
	"github.com/deusflow/engtrends/internal/devto"
	"github.com/deusflow/engtrends/internal/fetch"
	"github.com/deusflow/engtrends/internal/gemini"
	"github.com/deusflow/engtrends/internal/hackernews"
	"github.com/deusflow/engtrends/internal/metrics"
	"github.com/deusflow/engtrends/internal/news"
	"github.com/deusflow/engtrends/internal/ratelimit"
	"github.com/deusflow/engtrends/internal/recommend"
	"github.com/deusflow/engtrends/internal/reddit"
	"github.com/deusflow/engtrends/internal/report"
	"github.com/deusflow/engtrends/internal/retry"
	"github.com/deusflow/engtrends/internal/rss"
	"github.com/deusflow/engtrends/internal/telegram"
	"github.com/deusflow/engtrends/internal/topic"
)

// Notifier delivers the run digest somewhere.
type Notifier interface {
	SendMessage(ctx context.Context, text string) error
}

type App struct {
	cfg        *config.Config
	log        *slog.Logger
	aggregator *news.Aggregator
	providers  []news.Provider
	lookup     recommend.Lookup
	fallback   recommend.Template

	gemini   *gemini.Client
	intro    gemini.Generator
	notifier Notifier
	now      func() time.Time
}

// Outcome is what one run produced.
type Outcome struct {
	Result          news.AggregationResult
	Recommendations []recommend.Recommendation
	Report          report.Data
}

// New loads the catalogs and builds the providers and optional integrations.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	table, err := catalog.LoadTopics(cfg.TopicsConfigPath)
	if err != nil {
		return nil, err
	}
	lookup, fallback, err := catalog.LoadTemplates(cfg.TemplatesConfigPath)
	if err != nil {
		return nil, err
	}
	sources, err := catalog.LoadSources(cfg.SourcesConfigPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg: cfg,
		log: log,
		aggregator: news.NewAggregator(topic.NewClassifier(table), news.Options{
			Timeout:      cfg.ProviderTimeout,
			Concurrency:  cfg.ProviderConcurrency,
			ContentDedup: cfg.ContentDedup,
			Logger:       log,
		}),
		lookup:   lookup,
		fallback: fallback,
		now:      time.Now,
	}

	client := fetch.New(sources.UserAgent, cfg.RequestTimeout, retry.Policy{
		Attempts: cfg.RetryAttempts,
		Delay:    cfg.RetryDelay,
		Backoff:  true,
	})
	a.providers = BuildProviders(sources, client, log)

	if cfg.GeminiAPIKey != "" {
		g, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Warn("gemini disabled", "error", err)
		} else {
			a.gemini = g
			a.intro = gemini.NewGuarded(g,
				cache.New[string](cfg.IntroCacheTTL),
				ratelimit.NewBudget(cfg.MaxGeminiRequests, 24*time.Hour))
		}
	}
	if cfg.TelegramEnabled() {
		a.notifier = telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID)
	}

	log.Info("app ready",
		"providers", len(a.providers),
		"topics", len(table.Topics()),
		"gemini", a.intro != nil,
		"telegram", a.notifier != nil)
	return a, nil
}

// BuildProviders turns the source list into providers in report order:
// Hacker News, dev.to, feeds, then subreddits.
func BuildProviders(s catalog.Sources, client *fetch.Client, log *slog.Logger) []news.Provider {
	var providers []news.Provider

	if s.HackerNews.Enabled {
		providers = append(providers, hackernews.New(client, hackernews.Config{
			Limit:  s.HackerNews.Limit,
			Logger: log,
		}))
	}
	if s.DevTo.Enabled && len(s.DevTo.Endpoints) > 0 {
		providers = append(providers, devto.New(client, s.DevTo.Endpoints, log))
	}
	for _, f := range s.RSS.Feeds {
		providers = append(providers, rss.New(client, f.Name, f.URL, s.RSS.EntriesPerFeed))
	}
	for _, sub := range s.Reddit.Subreddits {
		providers = append(providers, reddit.New(client, sub.Name, sub.Sub, reddit.Config{
			TimeFilter: s.Reddit.TimeFilter,
			Limit:      s.Reddit.Limit,
			MinScore:   s.Reddit.MinScore,
		}))
	}
	return providers
}

func (a *App) WithProviders(p []news.Provider) *App {
	a.providers = p
	return a
}

func (a *App) WithGenerator(g gemini.Generator) *App {
	a.intro = g
	return a
}

func (a *App) WithNotifier(n Notifier) *App {
	a.notifier = n
	return a
}

func (a *App) Close() {
	if a.gemini != nil {
		a.gemini.Close()
	}
}

// Run executes once, or on every RunInterval tick until ctx is done.
// In loop mode a failed run is logged and the next tick still fires.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.RunInterval <= 0 {
		_, err := a.RunOnce(ctx)
		return err
	}

	ticker := time.NewTicker(a.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if _, err := a.RunOnce(ctx); err != nil {
			a.log.Error("run failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce aggregates, selects recommendations, writes the report and sends
// the digest. Only a failure to write the report fails the run.
func (a *App) RunOnce(ctx context.Context) (Outcome, error) {
	start := a.now()

	res := a.aggregator.Run(ctx, a.providers)
	recs := recommend.Select(res.Ranking, news.GroupByTopic(res.Items), a.lookup, a.fallback, a.cfg.MaxRecommendations)

	brief := gemini.Brief{
		Ranking: res.Ranking,
		Top:     news.TopByScore(res.Items, 10),
		Total:   len(res.Items),
	}
	intro, err := gemini.Intro(ctx, a.intro, brief)
	if err != nil {
		a.log.Warn("intro fallback used", "error", err)
	}

	data := report.Build(res, recs, intro, a.now())
	out := Outcome{Result: res, Recommendations: recs, Report: data}

	if err := a.writeReports(data); err != nil {
		metrics.Global.SetError(err.Error())
		return out, err
	}

	if a.notifier != nil {
		if err := a.notifier.SendMessage(ctx, telegram.Digest(res, recs)); err != nil {
			a.log.Warn("digest not sent", "error", err)
		} else {
			metrics.NotificationsSent.Inc()
		}
	}

	metrics.Global.RecordRun(summarize(res, a.now().Sub(start)))
	a.log.Info("run complete",
		"run_id", res.RunID,
		"items", len(res.Items),
		"topics", len(res.Ranking),
		"recommendations", len(recs),
		"output", a.cfg.OutputPath)
	return out, nil
}

func (a *App) writeReports(data report.Data) error {
	if err := report.WriteFile(a.cfg.OutputPath, report.RenderHTML, data); err != nil {
		return fmt.Errorf("html report: %w", err)
	}
	if a.cfg.JSONOutputPath != "" {
		if err := report.WriteFile(a.cfg.JSONOutputPath, report.RenderJSON, data); err != nil {
			return fmt.Errorf("json report: %w", err)
		}
	}
	return nil
}

func summarize(res news.AggregationResult, elapsed time.Duration) metrics.RunSummary {
	sources := make(map[string]bool, len(res.Succeeded)+len(res.Failures))
	for _, name := range res.Succeeded {
		sources[name] = true
	}
	for _, f := range res.Failures {
		sources[f.Source] = false
	}
	return metrics.RunSummary{
		Duration:   elapsed,
		Sources:    sources,
		Items:      len(res.Items),
		Dropped:    res.Stats.Dropped,
		Duplicates: res.Stats.Duplicates,
	}
}
