package chat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryAppendAndRecentOrdering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	h, err := OpenHistory(path)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.Append("tab-1", Event{Channel: 0, SenderName: "A", Content: "first", Timestamp: 1}))
	require.NoError(t, h.Append("tab-1", Event{Channel: 0, SenderName: "B", Content: "second", Timestamp: 2}))
	require.NoError(t, h.Append("tab-2", Event{Channel: 1, SenderName: "C", Content: "other tab", Timestamp: 3}))

	got, err := h.Recent("tab-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "second", got[1].Content)
}

func TestHistoryRecentRespectsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.db")
	h, err := OpenHistory(path)
	require.NoError(t, err)
	defer h.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Append("tab-1", Event{Content: "msg"}))
	}

	got, err := h.Recent("tab-1", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
