package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterTreeUnmarshalLeafChannel(t *testing.T) {
	var tree FilterTree
	require.NoError(t, json.Unmarshal([]byte(`{"leaf":{"type":"channel","value":1}}`), &tree))
	require.NotNil(t, tree.Leaf)
	assert.Equal(t, FilterChannel, tree.Leaf.Type)

	assert.True(t, tree.Evaluate(Event{Channel: 1}))
	assert.False(t, tree.Evaluate(Event{Channel: 2}))
}

func TestFilterTreeUnmarshalAndRequiresAllChildren(t *testing.T) {
	raw := `{"and":[{"leaf":{"type":"channel","value":1}},{"leaf":{"type":"player","value":"Astrub"}}]}`
	var tree FilterTree
	require.NoError(t, json.Unmarshal([]byte(raw), &tree))

	assert.True(t, tree.Evaluate(Event{Channel: 1, SenderName: "Astrub"}))
	assert.False(t, tree.Evaluate(Event{Channel: 1, SenderName: "Someone"}))
	assert.False(t, tree.Evaluate(Event{Channel: 2, SenderName: "Astrub"}))
}

func TestFilterTreeUnmarshalOrRequiresAnyChild(t *testing.T) {
	raw := `{"or":[{"leaf":{"type":"channel","value":1}},{"leaf":{"type":"channel","value":2}}]}`
	var tree FilterTree
	require.NoError(t, json.Unmarshal([]byte(raw), &tree))

	assert.True(t, tree.Evaluate(Event{Channel: 1}))
	assert.True(t, tree.Evaluate(Event{Channel: 2}))
	assert.False(t, tree.Evaluate(Event{Channel: 3}))
}

func TestFilterTreeWordLeafMatchesSubstring(t *testing.T) {
	var tree FilterTree
	require.NoError(t, json.Unmarshal([]byte(`{"leaf":{"type":"word","value":"help"}}`), &tree))

	assert.True(t, tree.Evaluate(Event{Content: "need help please"}))
	assert.False(t, tree.Evaluate(Event{Content: "all good"}))
}

func TestFilterTreeUnmarshalRejectsEmptyNode(t *testing.T) {
	var tree FilterTree
	err := json.Unmarshal([]byte(`{}`), &tree)
	assert.Error(t, err)
}

func TestFilterTreeNestedAndOr(t *testing.T) {
	raw := `{"and":[{"leaf":{"type":"channel","value":1}},{"or":[{"leaf":{"type":"word","value":"sos"}},{"leaf":{"type":"word","value":"help"}}]}]}`
	var tree FilterTree
	require.NoError(t, json.Unmarshal([]byte(raw), &tree))

	assert.True(t, tree.Evaluate(Event{Channel: 1, Content: "sos"}))
	assert.False(t, tree.Evaluate(Event{Channel: 1, Content: "nothing"}))
	assert.False(t, tree.Evaluate(Event{Channel: 2, Content: "sos"}))
}
