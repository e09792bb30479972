// Package typing tracks who is composing in a conversation. State is
// session-local and never persisted.
package typing

import (
	"sort"
	"sync"
	"time"
)

// Typist is a currently-typing participant.
type Typist struct {
	UserID      string
	DisplayName string
}

type entry struct {
	displayName   string
	lastBroadcast time.Time
	expire        *time.Timer
}

// Tracker keeps an expiring set of typists. Signal applies the sender-side
// debounce guard (a timestamp comparison, not a timer) and re-arms the
// expiry window; a renewed signal resets the window rather than stacking
// timers.
type Tracker struct {
	mu       sync.Mutex
	typists  map[string]*entry
	debounce time.Duration
	ttl      time.Duration
	onExpire func(userID string)
	now      func() time.Time
}

// NewTracker builds a Tracker. onExpire may be nil; it fires once per typist
// whose window lapses without a renewed signal.
func NewTracker(debounce, ttl time.Duration, onExpire func(userID string)) *Tracker {
	return &Tracker{
		typists:  make(map[string]*entry),
		debounce: debounce,
		ttl:      ttl,
		onExpire: onExpire,
		now:      time.Now,
	}
}

// Signal records a typing signal from the user. It returns true when the
// signal should be rebroadcast to other participants, which is at most once
// per debounce window.
func (t *Tracker) Signal(userID, displayName string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e, ok := t.typists[userID]
	if !ok {
		e = &entry{displayName: displayName, lastBroadcast: now}
		e.expire = time.AfterFunc(t.ttl, func() { t.expire(userID) })
		t.typists[userID] = e
		return true
	}

	e.displayName = displayName
	e.expire.Reset(t.ttl)
	if now.Sub(e.lastBroadcast) < t.debounce {
		return false
	}
	e.lastBroadcast = now
	return true
}

// Remove drops a typist immediately, without firing onExpire. Used when a
// message from the typist arrives or their connection goes away.
func (t *Tracker) Remove(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.typists[userID]; ok {
		e.expire.Stop()
		delete(t.typists, userID)
	}
}

// Typing returns a stable snapshot of current typists.
func (t *Tracker) Typing() []Typist {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Typist, 0, len(t.typists))
	for id, e := range t.typists {
		out = append(out, Typist{UserID: id, DisplayName: e.displayName})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Stop cancels all pending expiry timers.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, e := range t.typists {
		e.expire.Stop()
		delete(t.typists, id)
	}
}

func (t *Tracker) expire(userID string) {
	t.mu.Lock()
	_, ok := t.typists[userID]
	if ok {
		delete(t.typists, userID)
	}
	t.mu.Unlock()

	if ok && t.onExpire != nil {
		t.onExpire(userID)
	}
}
