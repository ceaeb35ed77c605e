// Package subscribers implements the durable subscriber preference store.
//
// The whole collection lives in memory and is written back to a single JSON
// file after every mutation.
package subscribers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/lo"

	"quake_bot/internal/model"
)

// ErrNotFound is returned by Find when no subscriber has the given identity.
var ErrNotFound = errors.New("subscriber not found")

// Store owns the subscriber collection and its backing file.
type Store struct {
	mu        sync.RWMutex
	path      string
	defaultID string
	subs      []model.Subscriber
	log       *slog.Logger
	onChange  func(count int)
}

// Option configures a Store.
type Option func(*Store)

// WithChangeHook registers fn to be called with the subscriber count after
// every load and mutation.
func WithChangeHook(fn func(count int)) Option {
	return func(s *Store) { s.onChange = fn }
}

// New creates a Store backed by the file at path. defaultID is the chat that
// is subscribed to everything on first run; empty means no default subscriber.
// Call Load before use.
func New(path, defaultID string, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		path:      path,
		defaultID: defaultID,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted subscribers. A missing file is initialized with the
// default subscriber; an unreadable one is left untouched and the store falls
// back to the default subscriber in memory.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.subs = s.defaults()
		if err := s.saveLocked(); err != nil {
			s.log.Error("save subscribers", "path", s.path, "error", err)
		}
		s.log.Info("created subscribers file", "path", s.path, "count", len(s.subs))
	case err != nil:
		s.log.Error("read subscribers, using default", "path", s.path, "error", err)
		s.subs = s.defaults()
	default:
		subs, changed, err := decode(data)
		if err != nil {
			s.log.Error("parse subscribers, using default", "path", s.path, "error", err)
			s.subs = s.defaults()
			break
		}
		s.subs = subs
		if changed {
			s.log.Info("rewriting normalized subscribers", "count", len(subs))
			if err := s.saveLocked(); err != nil {
				s.log.Error("save normalized subscribers", "path", s.path, "error", err)
			}
		}
		s.log.Info("loaded subscribers", "path", s.path, "count", len(s.subs))
	}

	s.notifyLocked()
}

// Find returns the subscriber with the given identity.
func (s *Store) Find(chatID string) (model.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, _, ok := s.indexLocked(chatID)
	if !ok {
		return model.Subscriber{}, ErrNotFound
	}
	return sub, nil
}

// List returns a copy of all subscribers in insertion order.
func (s *Store) List() []model.Subscriber {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Subscriber, len(s.subs))
	copy(out, s.subs)
	return out
}

// Count returns the number of subscribers.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Upsert merges patch into an existing subscriber or creates a new one with
// significant and m4plus enabled before the patch is applied. The collection
// is persisted before Upsert returns; a failed write is logged and the
// in-memory change is kept.
func (s *Store) Upsert(chatID string, patch model.PreferencePatch) model.Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := s.upsertLocked(chatID, func(p *model.Preferences) { p.Apply(patch) })
	s.persistLocked()
	return sub
}

// Toggle flips one category for a subscriber, creating it if needed, and
// returns the new value. An unknown subscriber counts as having it disabled.
func (s *Store) Toggle(chatID string, c model.Category) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	enabled := true
	if _, _, ok := s.indexLocked(chatID); ok {
		s.upsertLocked(chatID, func(p *model.Preferences) {
			enabled = !p.Get(c)
			p.Set(c, enabled)
		})
	} else {
		s.upsertLocked(chatID, func(p *model.Preferences) { p.Set(c, true) })
	}
	s.persistLocked()
	return enabled
}

// Remove deletes a subscriber. It reports whether the subscriber existed.
func (s *Store) Remove(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.subs)
	s.subs = lo.Filter(s.subs, func(sub model.Subscriber, _ int) bool {
		return sub.ChatID != chatID
	})
	removed := len(s.subs) != before

	s.persistLocked()
	return removed
}

func (s *Store) indexLocked(chatID string) (model.Subscriber, int, bool) {
	return lo.FindIndexOf(s.subs, func(sub model.Subscriber) bool {
		return sub.ChatID == chatID
	})
}

func (s *Store) upsertLocked(chatID string, update func(p *model.Preferences)) model.Subscriber {
	_, idx, ok := s.indexLocked(chatID)
	if !ok {
		s.subs = append(s.subs, model.Subscriber{
			ChatID:      chatID,
			Preferences: model.NewSubscriberDefaults(),
		})
		idx = len(s.subs) - 1
	}
	update(&s.subs[idx].Preferences)
	return s.subs[idx]
}

func (s *Store) defaults() []model.Subscriber {
	if s.defaultID == "" {
		return []model.Subscriber{}
	}
	return []model.Subscriber{{ChatID: s.defaultID, Preferences: model.AllEnabled()}}
}

func (s *Store) persistLocked() {
	if err := s.saveLocked(); err != nil {
		s.log.Error("save subscribers", "path", s.path, "error", err)
	} else {
		s.log.Debug("saved subscribers", "path", s.path, "count", len(s.subs))
	}
	s.notifyLocked()
}

func (s *Store) notifyLocked() {
	if s.onChange != nil {
		s.onChange(len(s.subs))
	}
}

// saveLocked rewrites the whole file through a temp file and rename.
func (s *Store) saveLocked() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s.subs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal subscribers: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace subscribers file: %w", err)
	}
	return nil
}

// decode parses either the current record layout or the legacy flat list of
// chat IDs. changed is true when a legacy entry was upgraded or a duplicate
// identity dropped, meaning the file no longer matches the result.
func decode(data []byte) (subs []model.Subscriber, changed bool, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("decode subscribers: %w", err)
	}

	subs = make([]model.Subscriber, 0, len(raw))
	for i, item := range raw {
		var chatID string
		if err := json.Unmarshal(item, &chatID); err == nil {
			subs = append(subs, model.Subscriber{ChatID: chatID, Preferences: model.AllEnabled()})
			changed = true
			continue
		}

		var sub model.Subscriber
		if err := json.Unmarshal(item, &sub); err != nil {
			return nil, false, fmt.Errorf("decode subscriber %d: %w", i, err)
		}
		subs = append(subs, sub)
	}
	uniq := lo.UniqBy(subs, func(sub model.Subscriber) string { return sub.ChatID })
	return uniq, changed || len(uniq) != len(subs), nil
}
