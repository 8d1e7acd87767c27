// Package subscribe implements the pub/sub dispatcher the capture loop
// hands decoded messages to: subscribers register by message id and
// receive callbacks in the order they subscribed.
package subscribe

import (
	"sync"

	"go.uber.org/zap"
)

// Callback receives a decoded message payload. The concrete type passed in
// is *decode.Message, kept as `any` here so this package does not import
// decode.
type Callback func(msg any)

type entry struct {
	name string
	cb   Callback
}

// Registry maps message id to an ordered list of named callbacks. Dispatch
// snapshots the callback slice for an id under a read lock and releases it
// before invoking callbacks, so a callback may itself call
// Subscribe/Unsubscribe without deadlocking.
type Registry struct {
	mu   sync.RWMutex
	byID map[uint16][]entry
	log  *zap.Logger
}

// New returns an empty Registry.
func New(log *zap.Logger) *Registry {
	return &Registry{byID: make(map[uint16][]entry), log: log}
}

// Subscribe appends (name, cb) under id. No de-duplication: subscribing
// the same name twice yields two invocations per dispatch.
func (r *Registry) Subscribe(id uint16, name string, cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = append(r.byID[id], entry{name: name, cb: cb})
}

// Unsubscribe removes every entry under id whose name matches (retain by
// non-match). If the resulting list is empty, the id key is left mapped to
// an empty (not missing) slice so HasSubscriptions observes false either
// way.
func (r *Registry) Unsubscribe(id uint16, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries, ok := r.byID[id]
	if !ok {
		return
	}
	kept := entries[:0:0]
	for _, e := range entries {
		if e.name != name {
			kept = append(kept, e)
		}
	}
	r.byID[id] = kept
}

// HasSubscriptions reports whether any callback is registered for id.
func (r *Registry) HasSubscriptions(id uint16) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID[id]) > 0
}

// HasSubscriptionsFor reports whether name has a callback registered under
// id specifically.
func (r *Registry) HasSubscriptionsFor(id uint16, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.byID[id] {
		if e.name == name {
			return true
		}
	}
	return false
}

// Dispatch invokes every callback registered for id, in subscribe order,
// on the calling goroutine. The callback slice is copied under a read
// lock and the lock released before any callback runs, so a callback that
// calls Subscribe or Unsubscribe on this same registry does not deadlock.
// A panicking callback is recovered and logged so it cannot prevent later
// callbacks in the same dispatch from running.
func (r *Registry) Dispatch(id uint16, msg any) {
	r.mu.RLock()
	snapshot := make([]entry, len(r.byID[id]))
	copy(snapshot, r.byID[id])
	r.mu.RUnlock()

	for _, e := range snapshot {
		r.invoke(e, msg)
	}
}

func (r *Registry) invoke(e entry, msg any) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("subscriber callback panicked",
				zap.String("subscriber", e.name), zap.Any("panic", rec))
		}
	}()
	e.cb(msg)
}
