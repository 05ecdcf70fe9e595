package news

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/engtrends/internal/topic"
)

// Provider fetches raw records from one named source.
type Provider interface {
	Source() Source
	Fetch(ctx context.Context) ([]Record, error)
}

// Batch is what one provider returned in a run.
type Batch struct {
	Source  Source
	Records []Record
	Err     error
}

// ProviderFailure is a provider that contributed nothing to the run.
type ProviderFailure struct {
	Source string
	Err    error
}

func (f ProviderFailure) Error() string {
	return fmt.Sprintf("provider %s: %v", f.Source, f.Err)
}

// Stats summarizes one aggregation run.
type Stats struct {
	Providers  int `json:"providers"`
	Failed     int `json:"failed"`
	Records    int `json:"records"`
	Dropped    int `json:"dropped"`
	Duplicates int `json:"duplicates"`
}

// AggregationResult is the output of one run: items in provider order, then
// each provider's own order, plus the topic ranking over those items.
type AggregationResult struct {
	RunID   string
	Items   []Item
	Ranking []TopicCount
	// Succeeded names every provider whose batch merged, even when it kept no items.
	Succeeded []string
	Failures  []ProviderFailure
	Stats     Stats
}

// Options tune an Aggregator. Zero values are usable.
type Options struct {
	// Timeout bounds each provider call; 0 means no bound beyond the caller's context.
	Timeout time.Duration
	// Concurrency caps parallel provider calls; 0 means unlimited.
	Concurrency int
	// ContentDedup also drops identifier-less items whose title and link were already seen.
	ContentDedup bool
	Logger       *slog.Logger
}

// Aggregator runs providers and merges their records into one item collection.
type Aggregator struct {
	classifier *topic.Classifier
	opts       Options
	logger     *slog.Logger
}

func NewAggregator(classifier *topic.Classifier, opts Options) *Aggregator {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Aggregator{classifier: classifier, opts: opts, logger: log}
}

// Run fetches every provider concurrently and merges the batches in provider order.
// It never fails: a provider error, panic or timeout only removes that provider's items.
func (a *Aggregator) Run(ctx context.Context, providers []Provider) AggregationResult {
	batches := make([]Batch, len(providers))

	var g errgroup.Group
	if a.opts.Concurrency > 0 {
		g.SetLimit(a.opts.Concurrency)
	}
	for i, p := range providers {
		g.Go(func() error {
			batches[i] = a.fetch(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	return a.Merge(batches)
}

type fetchResult struct {
	records []Record
	err     error
}

func (a *Aggregator) fetch(ctx context.Context, p Provider) Batch {
	src := p.Source()
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		records, err := p.Fetch(ctx)
		done <- fetchResult{records: records, err: err}
	}()

	select {
	case res := <-done:
		a.logger.Debug("provider finished",
			"source", src.Name, "records", len(res.records), "elapsed", time.Since(start))
		return Batch{Source: src, Records: res.records, Err: res.err}
	case <-ctx.Done():
		return Batch{Source: src, Err: fmt.Errorf("gave up waiting: %w", ctx.Err())}
	}
}

// Merge normalizes, classifies and deduplicates batches in the given order.
// The first occurrence of an identifier wins; later ones are dropped.
func (a *Aggregator) Merge(batches []Batch) AggregationResult {
	res := AggregationResult{
		RunID: uuid.NewString(),
		Items: make([]Item, 0),
	}
	seenIDs := make(map[string]struct{})
	seenContent := make(map[string]struct{})

	for _, b := range batches {
		res.Stats.Providers++

		if b.Err != nil {
			a.fail(&res, b.Source, b.Err)
			continue
		}

		part, err := a.mergeBatch(b, seenIDs, seenContent)
		if err != nil {
			a.fail(&res, b.Source, err)
			continue
		}

		// commit only once the whole batch went through
		for id := range part.ids {
			seenIDs[id] = struct{}{}
		}
		for key := range part.keys {
			seenContent[key] = struct{}{}
		}
		res.Items = append(res.Items, part.items...)
		res.Succeeded = append(res.Succeeded, b.Source.Name)
		res.Stats.Records += part.records
		res.Stats.Dropped += part.dropped
		res.Stats.Duplicates += part.duplicates

		a.logger.Debug("merged provider",
			"source", b.Source.Name, "items", len(part.items),
			"dropped", part.dropped, "duplicates", part.duplicates)
	}

	res.Ranking = RankTopics(res.Items)

	a.logger.Info("aggregation done",
		"run_id", res.RunID,
		"providers", res.Stats.Providers,
		"failed", res.Stats.Failed,
		"items", len(res.Items),
		"dropped", res.Stats.Dropped,
		"duplicates", res.Stats.Duplicates)
	return res
}

func (a *Aggregator) fail(res *AggregationResult, src Source, err error) {
	res.Stats.Failed++
	res.Failures = append(res.Failures, ProviderFailure{Source: src.Name, Err: err})
	a.logger.Warn("provider failed", "source", src.Name, "error", err)
}

type batchPart struct {
	items      []Item
	ids        map[string]struct{}
	keys       map[string]struct{}
	records    int
	dropped    int
	duplicates int
}

func (a *Aggregator) mergeBatch(b Batch, seenIDs, seenContent map[string]struct{}) (part batchPart, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while normalizing: %v", r)
		}
	}()

	part.ids = make(map[string]struct{})
	part.keys = make(map[string]struct{})

	for _, rec := range b.Records {
		part.records++
		if rec == nil {
			part.dropped++
			continue
		}

		draft, ok := Normalize(rec, b.Source)
		if !ok {
			part.dropped++
			continue
		}

		if id := draft.Item.ID; id != "" {
			if seen(id, seenIDs, part.ids) {
				part.duplicates++
				continue
			}
			part.ids[id] = struct{}{}
		} else if a.opts.ContentDedup {
			key := ContentKey(draft.Item.Title, draft.Item.URL)
			if seen(key, seenContent, part.keys) {
				part.duplicates++
				continue
			}
			part.keys[key] = struct{}{}
		}

		part.items = append(part.items, draft.Classify(a.classifier))
	}
	return part, nil
}

func seen(key string, committed, pending map[string]struct{}) bool {
	if _, ok := committed[key]; ok {
		return true
	}
	_, ok := pending[key]
	return ok
}

// ContentKey hashes the normalized title and link of an item.
func ContentKey(title, link string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	h := sha1.New()
	h.Write([]byte(normalized + "|" + strings.TrimSpace(link)))
	return hex.EncodeToString(h.Sum(nil))
}
