package chat

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// UI clients are served from the local app itself, not a remote
	// origin, so the default same-origin check is relaxed here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Broadcaster fans matched chat events out to one WebSocket connection per
// tab id, replacing the original implementation's window-event emission.
type Broadcaster struct {
	log *zap.Logger

	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]struct{}
}

// NewBroadcaster returns an empty Broadcaster.
func NewBroadcaster(log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		log:   log,
		conns: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request to a WebSocket connection subscribed to
// tabID's events. Mount it at a path carrying the tab id, e.g.
// "/tabs/{id}".
func (b *Broadcaster) ServeHTTP(tabID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.log.Warn("chat websocket upgrade failed", zap.Error(err), zap.String("tab", tabID))
			return
		}
		b.register(tabID, conn)

		// The UI does not send anything over this connection; reading
		// here only detects the remote side closing it.
		defer b.unregister(tabID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

func (b *Broadcaster) register(tabID string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conns[tabID] == nil {
		b.conns[tabID] = make(map[*websocket.Conn]struct{})
	}
	b.conns[tabID][conn] = struct{}{}
}

func (b *Broadcaster) unregister(tabID string, conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns[tabID], conn)
	if len(b.conns[tabID]) == 0 {
		delete(b.conns, tabID)
	}
	conn.Close()
}

// Broadcast sends ev as JSON to every connection currently subscribed to
// tabID. A write failure drops that connection rather than aborting the
// whole broadcast.
func (b *Broadcaster) Broadcast(tabID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.Warn("chat event marshal failed", zap.Error(err))
		return
	}

	b.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(b.conns[tabID]))
	for c := range b.conns[tabID] {
		targets = append(targets, c)
	}
	b.mu.Unlock()

	for _, c := range targets {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			b.unregister(tabID, c)
		}
	}
}
