// Package engine runs notification cycles: it fetches the latest entry of
// every category feed and hands the resulting events to the dispatcher.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"quake_bot/internal/dedup"
	"quake_bot/internal/dispatch"
	"quake_bot/internal/feed"
	"quake_bot/internal/model"
	"quake_bot/internal/quake"
	"quake_bot/internal/subscribers"
)

// ErrAllSourcesFailed is returned when every category a cycle tried to fetch
// failed.
var ErrAllSourcesFailed = errors.New("all feed sources failed")

// FeedSource returns the entries of a feed in document order.
type FeedSource interface {
	Entries(ctx context.Context, url string) ([]feed.Entry, error)
}

// SubscriberStore is the read side of the subscriber store.
type SubscriberStore interface {
	List() []model.Subscriber
	Find(chatID string) (model.Subscriber, error)
}

// Dispatcher delivers events to subscribers.
type Dispatcher interface {
	DispatchTo(ctx context.Context, tr *dedup.Tracker, sub model.Subscriber, ev model.Event) (dispatch.Result, error)
	Broadcast(ctx context.Context, tr *dedup.Tracker, subs []model.Subscriber, ev model.Event) (dispatch.Result, error)
}

// Report summarizes one cycle.
type Report struct {
	Categories  int
	FetchFailed int
	Empty       int
	Events      []model.Event
	Delivery    dispatch.Result
}

// Engine runs notification cycles.
type Engine struct {
	sources    map[model.Category]string
	feeds      FeedSource
	store      SubscriberStore
	dispatcher Dispatcher
	log        *slog.Logger
	now        func() time.Time
}

// New creates an Engine. sources maps each category to its feed URL;
// categories without a URL are never fetched.
func New(sources map[model.Category]string, feeds FeedSource, store SubscriberStore, d Dispatcher, log *slog.Logger) *Engine {
	return &Engine{
		sources:    sources,
		feeds:      feeds,
		store:      store,
		dispatcher: d,
		log:        log,
		now:        time.Now,
	}
}

type fetchResult struct {
	category model.Category
	entries  []feed.Entry
	err      error
}

// RunCycle fetches every category and broadcasts each latest event to all
// subscribers that opted into it. Per-category failures are logged and
// counted in the report. The cycle fails only on context cancellation or when
// no category could be fetched.
func (e *Engine) RunCycle(ctx context.Context) (Report, error) {
	e.log.Info("starting notification cycle")
	subs := e.store.List()
	return e.run(ctx, model.Categories, func(ctx context.Context, tr *dedup.Tracker, ev model.Event) (dispatch.Result, error) {
		return e.dispatcher.Broadcast(ctx, tr, subs, ev)
	})
}

// RunFor runs an on-demand cycle for one subscriber. Categories the
// subscriber has disabled are not fetched. An unknown subscriber gets no
// fetches at all.
func (e *Engine) RunFor(ctx context.Context, chatID string) (Report, error) {
	sub, err := e.store.Find(chatID)
	if errors.Is(err, subscribers.ErrNotFound) {
		e.log.Debug("on-demand cycle for unknown subscriber", "chat_id", chatID)
		return Report{}, nil
	}
	if err != nil {
		return Report{}, fmt.Errorf("find subscriber: %w", err)
	}

	enabled := lo.Filter(model.Categories, func(c model.Category, _ int) bool {
		return sub.Preferences.Get(c)
	})
	return e.run(ctx, enabled, func(ctx context.Context, tr *dedup.Tracker, ev model.Event) (dispatch.Result, error) {
		return e.dispatcher.DispatchTo(ctx, tr, sub, ev)
	})
}

type dispatchFunc func(ctx context.Context, tr *dedup.Tracker, ev model.Event) (dispatch.Result, error)

func (e *Engine) run(ctx context.Context, categories []model.Category, send dispatchFunc) (Report, error) {
	var report Report
	categories = lo.Filter(categories, func(c model.Category, _ int) bool {
		return e.sources[c] != ""
	})

	results := e.fetchAll(ctx, categories)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	tr := dedup.New()
	for _, r := range results {
		report.Categories++
		if r.err != nil {
			e.log.Error("fetch category feed", "category", r.category, "url", e.sources[r.category], "error", r.err)
			report.FetchFailed++
			continue
		}

		entry, ok := quake.Latest(r.entries)
		if !ok {
			e.log.Debug("no entries in feed", "category", r.category)
			report.Empty++
			continue
		}

		ev := quake.Normalize(r.category, entry, e.now())
		report.Events = append(report.Events, ev)

		res, err := send(ctx, tr, ev)
		report.Delivery.Add(res)
		if err != nil {
			return report, fmt.Errorf("dispatch %s: %w", r.category, err)
		}
	}

	e.log.Info("notification cycle done",
		"categories", report.Categories,
		"fetch_failed", report.FetchFailed,
		"sent", report.Delivery.Sent,
		"skipped", report.Delivery.Skipped,
		"send_failed", report.Delivery.Failed,
	)
	if report.Categories > 0 && report.FetchFailed == report.Categories {
		return report, ErrAllSourcesFailed
	}
	return report, nil
}

// fetchAll fetches every category concurrently. Results keep the order of
// categories regardless of completion order.
func (e *Engine) fetchAll(ctx context.Context, categories []model.Category) []fetchResult {
	results := make([]fetchResult, len(categories))

	var wg sync.WaitGroup
	for i, c := range categories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries, err := e.feeds.Entries(ctx, e.sources[c])
			results[i] = fetchResult{category: c, entries: entries, err: err}
		}()
	}
	wg.Wait()
	return results
}
