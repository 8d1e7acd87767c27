package chat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vahor/dofuscap/internal/decode"
	"github.com/vahor/dofuscap/internal/schema"
	"github.com/vahor/dofuscap/internal/subscribe"
)

const fixtureCatalog = `[
	{"class_name": "ChatServerMessage", "id": 1, "attributes": {"channel": "UnsignedShort", "content": "String"}}
]`

func loadFixtureRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureCatalog), 0o644))
	reg, err := schema.Load(path, zap.NewNop())
	require.NoError(t, err)
	return reg
}

func TestFeatureOnlySubscribesWhenTabsExist(t *testing.T) {
	reg := loadFixtureRegistry(t)
	subs := subscribe.New(zap.NewNop())
	f := New(subs, reg, func(string, Event) {})

	require.False(t, subs.HasSubscriptions(1))

	id := f.CreateTab(TabConfig{Name: "general"})
	require.True(t, subs.HasSubscriptions(1))

	f.DeleteTab(id)
	require.False(t, subs.HasSubscriptions(1))
}

func TestFeatureFilterChannelZeroOnlyForwardsMatchingEvents(t *testing.T) {
	reg := loadFixtureRegistry(t)
	subs := subscribe.New(zap.NewNop())

	var matched []Event
	f := New(subs, reg, func(tabID string, ev Event) {
		matched = append(matched, ev)
	})

	leaf := &FilterLeaf{Type: FilterChannel, Value: []byte("0")}
	f.CreateTab(TabConfig{Name: "general", Filters: &FilterTree{Leaf: leaf}})

	subs.Dispatch(1, &decode.Message{
		ID:   1,
		Name: "ChatServerMessage",
		Attributes: []decode.Attr{
			{Name: "channel", Value: uint16(0)},
			{Name: "content", Value: "hello"},
		},
	})
	subs.Dispatch(1, &decode.Message{
		ID:   1,
		Name: "ChatServerMessage",
		Attributes: []decode.Attr{
			{Name: "channel", Value: uint16(3)},
			{Name: "content", Value: "ignored"},
		},
	})

	require.Len(t, matched, 1)
	require.Equal(t, "hello", matched[0].Content)
}

func TestFeatureUpdateTabConfigDoesNotChangeSubscription(t *testing.T) {
	reg := loadFixtureRegistry(t)
	subs := subscribe.New(zap.NewNop())
	f := New(subs, reg, func(string, Event) {})

	id := f.CreateTab(TabConfig{Name: "general"})
	require.True(t, subs.HasSubscriptions(1))

	f.UpdateTabConfig(id, TabConfig{Name: "renamed"})
	require.True(t, subs.HasSubscriptions(1))

	cfg, ok := f.GetTabConfig(id)
	require.True(t, ok)
	require.Equal(t, "renamed", cfg.Name)
}

func TestFeatureListTabsReturnsSnapshot(t *testing.T) {
	reg := loadFixtureRegistry(t)
	subs := subscribe.New(zap.NewNop())
	f := New(subs, reg, func(string, Event) {})

	f.CreateTab(TabConfig{Name: "a"})
	f.CreateTab(TabConfig{Name: "b"})

	tabs := f.ListTabs()
	require.Len(t, tabs, 2)
}
