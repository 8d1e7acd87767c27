package chat

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// History persists matched chat events per tab to a SQLite database, one
// row per event, so a tab's scrollback survives across capture restarts.
type History struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenHistory opens (creating if necessary) the SQLite database at path
// and ensures the messages table exists.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("chat: open history db: %w", err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tab_id TEXT NOT NULL,
	channel INTEGER NOT NULL,
	sender_name TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_messages_tab_ts ON chat_messages(tab_id, timestamp);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("chat: create history schema: %w", err)
	}

	return &History{db: db}, nil
}

// Append inserts ev under tabID.
func (h *History) Append(tabID string, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.db.Exec(
		`INSERT INTO chat_messages (tab_id, channel, sender_name, content, timestamp) VALUES (?, ?, ?, ?, ?)`,
		tabID, ev.Channel, ev.SenderName, ev.Content, ev.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("chat: append history: %w", err)
	}
	return nil
}

// Recent returns up to limit of the most recently stored events for tabID,
// oldest first.
func (h *History) Recent(tabID string, limit int) ([]Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rows, err := h.db.Query(
		`SELECT channel, sender_name, content, timestamp FROM chat_messages
		 WHERE tab_id = ? ORDER BY id DESC LIMIT ?`,
		tabID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("chat: query history: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.Channel, &ev.SenderName, &ev.Content, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("chat: scan history row: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Close closes the underlying database handle.
func (h *History) Close() error {
	return h.db.Close()
}
