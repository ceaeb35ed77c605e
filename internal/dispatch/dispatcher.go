// Package dispatch delivers alert events to subscribers.
package dispatch

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"quake_bot/internal/dedup"
	"quake_bot/internal/model"
)

// Sender delivers a Markdown message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// Journal records delivery attempts across cycles.
type Journal interface {
	RecordDelivery(ctx context.Context, d model.Delivery) error
	WasDelivered(ctx context.Context, chatID, eventID string) (bool, error)
}

// Result counts the outcome of a dispatch.
type Result struct {
	Sent    int
	Skipped int
	Failed  int
}

// Add accumulates other into r.
func (r *Result) Add(other Result) {
	r.Sent += other.Sent
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

// Dispatcher routes events to subscribers that opted into their category.
type Dispatcher struct {
	sender          Sender
	journal         Journal
	limiter         *rate.Limiter
	suppressRepeats bool
	log             *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithJournal records every attempt in j.
func WithJournal(j Journal) Option {
	return func(d *Dispatcher) { d.journal = j }
}

// WithRateLimit caps outgoing messages per second. Zero or less disables it.
func WithRateLimit(perSecond int) Option {
	return func(d *Dispatcher) {
		if perSecond > 0 {
			d.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// WithRepeatSuppression skips events the journal shows were already delivered
// to a chat in an earlier cycle. It has no effect without a journal.
func WithRepeatSuppression(enabled bool) Option {
	return func(d *Dispatcher) { d.suppressRepeats = enabled }
}

// New creates a Dispatcher.
func New(sender Sender, log *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{sender: sender, log: log}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DispatchTo sends ev to a single subscriber if they opted into its category
// and have not received it during this cycle.
func (d *Dispatcher) DispatchTo(ctx context.Context, tr *dedup.Tracker, sub model.Subscriber, ev model.Event) (Result, error) {
	return d.Broadcast(ctx, tr, []model.Subscriber{sub}, ev)
}

// Broadcast sends ev to every opted-in subscriber. A failed send is logged
// and counted; it never stops delivery to the rest. Only context cancellation
// ends a broadcast early.
func (d *Dispatcher) Broadcast(ctx context.Context, tr *dedup.Tracker, subs []model.Subscriber, ev model.Event) (Result, error) {
	var res Result
	text := FormatAlert(ev)

	for _, sub := range subs {
		if !sub.Preferences.Get(ev.Category) {
			continue
		}
		if !tr.ShouldSend(sub.ChatID, ev.ID) {
			d.log.Debug("skip duplicate event", "chat_id", sub.ChatID, "event_id", ev.ID)
			res.Skipped++
			continue
		}
		if d.deliveredBefore(ctx, sub.ChatID, ev.ID) {
			d.log.Debug("skip repeated event", "chat_id", sub.ChatID, "event_id", ev.ID)
			res.Skipped++
			continue
		}

		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return res, err
			}
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if err := d.sender.Send(ctx, sub.ChatID, text); err != nil {
			d.log.Error("send alert", "chat_id", sub.ChatID, "category", ev.Category, "error", err)
			d.record(ctx, sub.ChatID, ev, model.DeliveryFailed, err)
			res.Failed++
			continue
		}

		tr.MarkSent(sub.ChatID, ev.ID)
		d.record(ctx, sub.ChatID, ev, model.DeliverySent, nil)
		d.log.Info("sent alert", "chat_id", sub.ChatID, "category", ev.Category)
		res.Sent++
	}
	return res, nil
}

func (d *Dispatcher) deliveredBefore(ctx context.Context, chatID, eventID string) bool {
	if !d.suppressRepeats || d.journal == nil {
		return false
	}
	ok, err := d.journal.WasDelivered(ctx, chatID, eventID)
	if err != nil {
		d.log.Error("check delivery journal", "chat_id", chatID, "error", err)
		return false
	}
	return ok
}

func (d *Dispatcher) record(ctx context.Context, chatID string, ev model.Event, status model.DeliveryStatus, sendErr error) {
	if d.journal == nil {
		return
	}
	rec := model.Delivery{
		ChatID:   chatID,
		Category: ev.Category,
		EventID:  ev.ID,
		Title:    ev.Title,
		Status:   status,
	}
	if sendErr != nil {
		rec.Error = sendErr.Error()
	}
	if err := d.journal.RecordDelivery(context.WithoutCancel(ctx), rec); err != nil {
		d.log.Error("record delivery", "chat_id", chatID, "error", err)
	}
}
