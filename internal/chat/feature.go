package chat

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vahor/dofuscap/internal/decode"
	"github.com/vahor/dofuscap/internal/schema"
	"github.com/vahor/dofuscap/internal/subscribe"
)

// subscriberName is the name this feature registers under in the
// subscription registry, equivalent to the original implementation's
// WINDOW_PREFIX used both as a subscriber tag and as a window-label
// prefix.
const subscriberName = "chat"

// knownEventClasses are the schema class names this feature listens for.
var knownEventClasses = []string{"ChatServerMessage", "ChatServerWithObjectMessage"}

// TabOptions mirrors the original ChatTabOptions: per-tab toggles that do
// not affect filtering, only what a tab's sinks do with a matched event.
type TabOptions struct {
	KeepHistory bool `json:"keepHistory"`
	Notify      bool `json:"notify"`
}

// TabConfig is one chat tab's configuration: a display name, its sink
// options, an optional filter tree, and a display order.
type TabConfig struct {
	Name    string      `json:"name"`
	Options TabOptions  `json:"options"`
	Filters *FilterTree `json:"filters,omitempty"`
	Order   uint8       `json:"order"`
}

// MatchHandler receives a matched Event for a specific tab id, so the
// caller can wire it to history persistence and/or a WebSocket broadcast.
type MatchHandler func(tabID string, ev Event)

// Feature subscribes to chat-carrying message ids and routes matching
// events to per-tab handlers.
type Feature struct {
	subs     *subscribe.Registry
	eventIDs []uint16
	onMatch  MatchHandler

	mu   sync.RWMutex
	tabs map[string]TabConfig
}

// New resolves the known chat message classes against reg and returns a
// Feature with no tabs configured (and therefore no active subscription).
func New(subs *subscribe.Registry, reg *schema.Registry, onMatch MatchHandler) *Feature {
	f := &Feature{
		subs:    subs,
		onMatch: onMatch,
		tabs:    make(map[string]TabConfig),
	}
	for _, name := range knownEventClasses {
		if id, ok := reg.IDOf(name); ok {
			f.eventIDs = append(f.eventIDs, id)
		}
	}
	return f
}

// handleSubscription subscribes to every known event id once at least one
// tab exists, and unsubscribes once none do — matching the original's
// all-or-nothing subscribe/unsubscribe over the whole event set rather
// than per-tab subscriptions.
func (f *Feature) handleSubscription() {
	f.mu.RLock()
	hasTabs := len(f.tabs) > 0
	f.mu.RUnlock()

	for _, id := range f.eventIDs {
		subscribed := f.subs.HasSubscriptionsFor(id, subscriberName)
		switch {
		case hasTabs && !subscribed:
			f.subs.Subscribe(id, subscriberName, f.dispatch)
		case !hasTabs && subscribed:
			f.subs.Unsubscribe(id, subscriberName)
		}
	}
}

// dispatch is the subscription callback: it projects the decoded message
// once and evaluates every tab's filter against it.
func (f *Feature) dispatch(raw any) {
	msg, ok := raw.(*decode.Message)
	if !ok {
		return
	}
	ev := FromMessage(msg)

	f.mu.RLock()
	defer f.mu.RUnlock()
	for id, tab := range f.tabs {
		if tab.Filters == nil || tab.Filters.Evaluate(ev) {
			f.onMatch(id, ev)
		}
	}
}

// CreateTab adds a new tab with a fresh uuid and updates the subscription
// state, returning the new tab's id.
func (f *Feature) CreateTab(cfg TabConfig) string {
	id := uuid.New().String()
	f.SetTab(id, cfg)
	return id
}

// SetTab inserts or replaces a tab under a caller-chosen id and updates
// the subscription state. Used when restoring tabs that were persisted
// with their own ids, as opposed to CreateTab's fresh uuid.
func (f *Feature) SetTab(id string, cfg TabConfig) {
	f.mu.Lock()
	f.tabs[id] = cfg
	f.mu.Unlock()

	f.handleSubscription()
}

// DeleteTab removes a tab and updates the subscription state.
func (f *Feature) DeleteTab(id string) {
	f.mu.Lock()
	_, existed := f.tabs[id]
	delete(f.tabs, id)
	f.mu.Unlock()

	if existed {
		f.handleSubscription()
	}
}

// GetTabConfig returns a tab's configuration.
func (f *Feature) GetTabConfig(id string) (TabConfig, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	cfg, ok := f.tabs[id]
	return cfg, ok
}

// ListTabs returns a snapshot of all configured tabs.
func (f *Feature) ListTabs() map[string]TabConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]TabConfig, len(f.tabs))
	for k, v := range f.tabs {
		out[k] = v
	}
	return out
}

// UpdateTabConfig replaces an existing tab's configuration, or inserts it
// if id is new. Unlike CreateTab/DeleteTab this does not touch the
// subscription state, since an already-configured tab implies the
// subscription is already active.
func (f *Feature) UpdateTabConfig(id string, cfg TabConfig) {
	f.mu.Lock()
	f.tabs[id] = cfg
	f.mu.Unlock()
}
