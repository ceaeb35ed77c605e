// Package dedup tracks which events were already delivered to which chat
// during a single notification cycle.
package dedup

import "sync"

// Tracker is a per-cycle record of delivered event IDs keyed by chat.
// It is safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	sent map[string]map[string]struct{}
}

// New returns an empty Tracker. Create one per cycle.
func New() *Tracker {
	return &Tracker{sent: make(map[string]map[string]struct{})}
}

// ShouldSend reports whether eventID has not yet been delivered to chatID.
func (t *Tracker) ShouldSend(chatID, eventID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, seen := t.sent[chatID][eventID]
	return !seen
}

// MarkSent records a successful delivery.
func (t *Tracker) MarkSent(chatID, eventID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	events, ok := t.sent[chatID]
	if !ok {
		events = make(map[string]struct{})
		t.sent[chatID] = events
	}
	events[eventID] = struct{}{}
}
